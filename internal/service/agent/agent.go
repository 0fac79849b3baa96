package agent

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/sandevgo/personas/internal/core"
	"github.com/sandevgo/personas/pkg/log"
	"github.com/sandevgo/personas/pkg/pattern"
)

// Response kinds understood by Respond.
const (
	KindGreeting   = "greeting"
	KindAnalysis   = "analysis"
	KindCompletion = "completion"
)

var ErrUnknownPattern = errors.New("unknown response pattern")

type PersonalityService interface {
	Load(ctx context.Context, agentName string) *core.Personality
	UpdateComponent(ctx context.Context, agentName, component string, data map[string]any) error
}

// Agent is a running persona backed by its stored personality.
type Agent struct {
	name        string
	svc         PersonalityService
	personality *core.Personality
	journal     *Journal
	now         func() time.Time
}

type Option func(*options)

type options struct {
	logDir string
	now    func() time.Time
}

// WithLogDir enables the per-agent log file under dir.
func WithLogDir(dir string) Option {
	return func(o *options) { o.logDir = dir }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New loads the agent's personality and opens its journal. The caller owns
// the returned Agent and must Close it.
func New(ctx context.Context, name string, svc PersonalityService, opts ...Option) (*Agent, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	journal, err := NewJournal(name, o.logDir, o.now)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal for %s: %w", name, err)
	}

	a := &Agent{
		name:    name,
		svc:     svc,
		journal: journal,
		now:     o.now,
	}
	a.reload(ctx)

	log.FromCtx(ctx).Info().Str("agent", name).Str("type", a.personality.Core.PersonalityType).Msg("agent initialized")
	return a, nil
}

// reload fetches the personality and fills in defaults. A missing document
// is seeded with the default traits and patterns; a present but unreadable
// one is left alone and the defaults are used in memory only.
func (a *Agent) reload(ctx context.Context) {
	logger := log.FromCtx(ctx)
	p := a.svc.Load(ctx, a.name)

	if p.Core.IsZero() {
		p.Core = DefaultCore(a.name)
	}

	switch p.Status.Detailed {
	case core.ReasonOK:
	case core.ReasonNotFound:
		traits, patterns := DefaultTraits(), DefaultPatterns()
		err := a.svc.UpdateComponent(ctx, a.name, core.ComponentDetailed, map[string]any{
			core.KeyTraits:             traits,
			core.KeyResponsePatterns:   patterns,
			core.KeyLearningHistory:    []any{},
			core.KeyContextualMemories: []any{},
		})
		if err != nil {
			logger.Error().Err(err).Str("agent", a.name).Msg("failed to save default personality")
		}
		p.Traits, p.ResponsePatterns = traits, patterns
	default:
		logger.Warn().Str("agent", a.name).Str("reason", string(p.Status.Detailed)).Msg("using default traits in memory")
		p.Traits, p.ResponsePatterns = DefaultTraits(), DefaultPatterns()
	}

	a.personality = p
}

func (a *Agent) Name() string {
	return a.name
}

// Personality returns the current snapshot. Mutating it persists nothing.
func (a *Agent) Personality() *core.Personality {
	return a.personality
}

func (a *Agent) Journal() *Journal {
	return a.journal
}

func (a *Agent) Trait(name string, fallback float64) float64 {
	if v, ok := a.personality.Traits[name]; ok {
		return v
	}
	return fallback
}

// Pattern renders the named response pattern. agent_name is always bound.
func (a *Agent) Pattern(name string, vars map[string]string) (string, error) {
	tmpl, ok := a.personality.ResponsePatterns[name]
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrUnknownPattern)
	}

	bound := make(map[string]string, len(vars)+1)
	maps.Copy(bound, vars)
	bound["agent_name"] = a.name

	out, err := pattern.Render(tmpl, bound)
	if err != nil {
		return "", fmt.Errorf("response pattern %q: %w", name, err)
	}
	return out, nil
}

// Respond journals the input and answers it according to kind.
func (a *Agent) Respond(ctx context.Context, input, kind string) (string, error) {
	a.journal.Record(ctx, input, kind)

	switch kind {
	case KindGreeting:
		return a.Pattern(KindGreeting, nil)
	case KindAnalysis:
		findings := Analyze(a.Trait("precision", 0.5), a.Trait("creativity", 0.5))
		return a.Pattern(KindAnalysis, map[string]string{"context": input, "findings": findings})
	case KindCompletion:
		summary := fmt.Sprintf("Processed '%s' using %s approach", input, a.personality.Core.PersonalityType)
		return a.Pattern(KindCompletion, map[string]string{"summary": summary})
	default:
		return "Processed: " + input, nil
	}
}

// Analyze describes how an agent with the given traits approaches a problem.
func Analyze(precision, creativity float64) string {
	var style string
	switch {
	case precision > 0.7:
		style = "detailed and systematic"
	case precision > 0.4:
		style = "balanced"
	default:
		style = "high-level overview"
	}

	var note string
	switch {
	case creativity > 0.7:
		note = "with innovative insights"
	case creativity > 0.4:
		note = "with practical solutions"
	default:
		note = "with standard approaches"
	}

	return style + " analysis " + note
}

func (a *Agent) Mood() string {
	return a.journal.Mood()
}

// Summary aggregates the interactions whose age in whole days is at most
// days, so an entry exactly days+1 days old is left out.
func (a *Agent) Summary(days int) core.MemorySummary {
	cutoff := a.now().Add(-time.Duration(days+1) * 24 * time.Hour)
	recent := a.journal.Since(cutoff)

	s := core.MemorySummary{
		AgentName:         a.name,
		PersonalityType:   a.personality.Core.PersonalityType,
		PeriodDays:        days,
		TotalInteractions: len(recent),
		CurrentMood:       a.journal.Mood(),
		InteractionTypes:  map[string]int{},
		KeyContexts:       []string{},
	}
	for _, e := range recent {
		s.InteractionTypes[e.Type]++
		if len(s.KeyContexts) < 5 {
			s.KeyContexts = append(s.KeyContexts, truncate(e.Context, 100))
		}
	}
	return s
}

// Report renders the weekly summary and the personality counters as text.
func (a *Agent) Report() string {
	s := a.Summary(7)
	c := a.personality.Core

	types := make([]string, 0, len(s.InteractionTypes))
	for _, k := range slices.Sorted(maps.Keys(s.InteractionTypes)) {
		types = append(types, fmt.Sprintf("%s: %d", k, s.InteractionTypes[k]))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s - Agent Memory Report\n\n", a.name)
	fmt.Fprintf(&sb, "Personality: %s\n", c.PersonalityType)
	fmt.Fprintf(&sb, "Communication: %s\n", c.CommunicationStyle)
	fmt.Fprintf(&sb, "Activity Level: %.1f\n", c.ActivityLevel)
	fmt.Fprintf(&sb, "Current Mood: %s\n\n", s.CurrentMood)
	fmt.Fprintf(&sb, "Recent Activity (%d days):\n", s.PeriodDays)
	fmt.Fprintf(&sb, "• Total Interactions: %d\n", s.TotalInteractions)
	fmt.Fprintf(&sb, "• Interaction Types: %s\n\n", strings.Join(types, ", "))
	sb.WriteString("Recent Contexts:\n")
	for _, ctx := range s.KeyContexts {
		fmt.Fprintf(&sb, "• %s\n", ctx)
	}
	fmt.Fprintf(&sb, "\nRelationships: %d active connections\n", len(a.personality.Relationships))
	for _, rel := range a.personality.Relationships {
		fmt.Fprintf(&sb, "• %s (%s, strength %.1f)\n", rel.Peer(a.name), rel.RelationshipType, rel.Strength)
	}
	fmt.Fprintf(&sb, "Learning History: %d entries\n", len(a.personality.LearningHistory))
	fmt.Fprintf(&sb, "Contextual Memories: %d memories", len(a.personality.ContextualMemories))

	return sb.String()
}

// SaveComponent persists a component update and reloads the personality.
func (a *Agent) SaveComponent(ctx context.Context, component string, data map[string]any) error {
	if err := a.svc.UpdateComponent(ctx, a.name, component, data); err != nil {
		return err
	}
	log.FromCtx(ctx).Info().Str("agent", a.name).Str("component", component).Msg("personality component updated")
	a.reload(ctx)
	return nil
}

func (a *Agent) Close() error {
	return a.journal.Close()
}

func DefaultCore(name string) core.CoreProfile {
	return core.CoreProfile{
		AgentName:            name,
		PersonalityType:      "general_purpose",
		CommunicationStyle:   "professional",
		AuthorityLevel:       "MEDIUM",
		CulturalBackground:   "General professional",
		ExpertiseSummary:     "General AI capabilities",
		ManagementPhilosophy: "Helpful and collaborative",
		ActivityLevel:        0.5,
	}
}

func DefaultTraits() map[string]float64 {
	return map[string]float64{
		"helpfulness": 0.8,
		"curiosity":   0.7,
		"precision":   0.6,
		"creativity":  0.5,
	}
}

func DefaultPatterns() map[string]string {
	return map[string]string{
		KindGreeting:   "Hello! I'm {agent_name}, ready to help.",
		KindAnalysis:   "Analyzing {context}: {findings}",
		KindCompletion: "Task completed: {summary}",
	}
}
