package agent

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/personas/internal/core"
	"github.com/sandevgo/personas/pkg/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService keeps one agent's personality in memory.
type fakeService struct {
	personality core.Personality
	updates     []string
	updateErr   error
}

func (f *fakeService) Load(context.Context, string) *core.Personality {
	p := f.personality
	return &p
}

func (f *fakeService) UpdateComponent(_ context.Context, _ string, component string, data map[string]any) error {
	f.updates = append(f.updates, component)
	if f.updateErr != nil {
		return f.updateErr
	}
	if component != core.ComponentDetailed {
		return nil
	}
	raw, _ := json.Marshal(data)
	var doc core.DetailedProfile
	_ = json.Unmarshal(raw, &doc)
	f.personality.Traits = doc.Traits
	f.personality.ResponsePatterns = doc.ResponsePatterns
	f.personality.Status.Detailed = core.ReasonOK
	return nil
}

func missingAgent() *fakeService {
	return &fakeService{personality: core.Personality{
		Traits:           map[string]float64{},
		ResponsePatterns: map[string]string{},
		Status: core.LoadStatus{
			Core:          core.ReasonNotFound,
			Detailed:      core.ReasonNotFound,
			Relationships: core.ReasonOK,
		},
	}}
}

func storedAgent(name string) *fakeService {
	return &fakeService{personality: core.Personality{
		Core: core.CoreProfile{
			AgentName:          name,
			PersonalityType:    "analyst",
			CommunicationStyle: "direct",
			ActivityLevel:      0.7,
		},
		Traits: map[string]float64{"precision": 0.9, "creativity": 0.2},
		ResponsePatterns: map[string]string{
			KindGreeting:   "Hi, {agent_name} here.",
			KindAnalysis:   "{context} => {findings}",
			KindCompletion: "Done: {summary}",
			"broken":       "Hello {unknown}",
		},
		Relationships: []core.Relationship{{Agent1: "bob", Agent2: name, RelationshipType: "mentor", Strength: 0.8}},
		Status:        core.LoadStatus{Core: core.ReasonOK, Detailed: core.ReasonOK, Relationships: core.ReasonOK},
	}}
}

func newAgent(t *testing.T, svc PersonalityService, opts ...Option) *Agent {
	t.Helper()
	a, err := New(context.Background(), "test_agent", svc, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNew_SeedsDefaults(t *testing.T) {
	t.Parallel()
	svc := missingAgent()
	a := newAgent(t, svc)

	assert.Equal(t, []string{core.ComponentDetailed}, svc.updates)
	assert.Equal(t, "general_purpose", a.Personality().Core.PersonalityType)
	assert.Equal(t, "test_agent", a.Personality().Core.AgentName)
	assert.Equal(t, 0.8, a.Trait("helpfulness", 0))
	assert.Equal(t, 0.5, a.Personality().Core.ActivityLevel)
}

func TestNew_DefaultsDoNotOverwriteExistingDocument(t *testing.T) {
	t.Parallel()
	svc := storedAgent("test_agent")
	svc.personality.Core = core.CoreProfile{}
	svc.personality.Status.Core = core.ReasonNotFound

	a := newAgent(t, svc)

	assert.Empty(t, svc.updates)
	assert.Equal(t, "general_purpose", a.Personality().Core.PersonalityType)
	assert.Equal(t, 0.9, a.Trait("precision", 0))
}

func TestNew_MalformedDocumentKeptOnDisk(t *testing.T) {
	t.Parallel()
	svc := storedAgent("test_agent")
	svc.personality.Traits = map[string]float64{}
	svc.personality.ResponsePatterns = map[string]string{}
	svc.personality.Status.Detailed = core.ReasonMalformed

	a := newAgent(t, svc)

	assert.Empty(t, svc.updates)
	assert.Equal(t, 0.6, a.Trait("precision", 0))
}

func TestNew_SeedFailureStillUsable(t *testing.T) {
	t.Parallel()
	svc := missingAgent()
	svc.updateErr = core.TransportError("files", "write", errors.New("read-only"))

	a := newAgent(t, svc)

	greeting, err := a.Respond(context.Background(), "Hello", KindGreeting)
	require.NoError(t, err)
	assert.Equal(t, "Hello! I'm test_agent, ready to help.", greeting)
}

func TestAgent_Respond(t *testing.T) {
	t.Parallel()
	a := newAgent(t, storedAgent("test_agent"))
	ctx := context.Background()

	tests := []struct {
		kind  string
		input string
		want  string
	}{
		{KindGreeting, "Hello", "Hi, test_agent here."},
		{KindAnalysis, "disk usage", "disk usage => detailed and systematic analysis with standard approaches"},
		{KindCompletion, "report", "Done: Processed 'report' using analyst approach"},
		{"custom", "ping", "Processed: ping"},
	}
	for _, tt := range tests {
		got, err := a.Respond(ctx, tt.input, tt.kind)
		require.NoError(t, err, tt.kind)
		assert.Equal(t, tt.want, got, tt.kind)
	}

	assert.Equal(t, len(tests), a.Journal().Count())
}

func TestAgent_Pattern(t *testing.T) {
	t.Parallel()
	a := newAgent(t, storedAgent("test_agent"))

	_, err := a.Pattern("broken", nil)
	var missing *pattern.MissingPlaceholderError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "unknown", missing.Name)

	_, err = a.Pattern("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownPattern)

	// agent_name cannot be overridden by the caller
	got, err := a.Pattern(KindGreeting, map[string]string{"agent_name": "mallory"})
	require.NoError(t, err)
	assert.Contains(t, got, "test_agent")
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	tests := []struct {
		precision, creativity float64
		want                  string
	}{
		{0.8, 0.8, "detailed and systematic analysis with innovative insights"},
		{0.7, 0.7, "balanced analysis with practical solutions"},
		{0.5, 0.41, "balanced analysis with practical solutions"},
		{0.4, 0.4, "high-level overview analysis with standard approaches"},
		{0.0, 1.0, "high-level overview analysis with innovative insights"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Analyze(tt.precision, tt.creativity))
	}
}

func TestMood(t *testing.T) {
	t.Parallel()

	tests := map[int]string{0: "neutral", 5: "neutral", 6: "engaged", 10: "engaged", 11: "active", 20: "active", 21: "focused"}
	for count, want := range tests {
		assert.Equal(t, want, Mood(count), count)
	}
}

func TestAgent_MoodProgression(t *testing.T) {
	t.Parallel()
	a := newAgent(t, storedAgent("test_agent"))
	ctx := context.Background()

	for range 6 {
		_, err := a.Respond(ctx, "x", "custom")
		require.NoError(t, err)
	}
	assert.Equal(t, "engaged", a.Mood())

	// the recorded mood is the one before the interaction
	entry := a.Journal().Record(ctx, "y", "custom")
	assert.Equal(t, "engaged", entry.Mood)
}

func TestAgent_SummaryAndReport(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	clock := now
	a := newAgent(t, storedAgent("test_agent"), WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	clock = now.Add(-30 * 24 * time.Hour)
	_, _ = a.Respond(ctx, "ancient", "custom")

	clock = now
	_, _ = a.Respond(ctx, "Hello", KindGreeting)
	_, _ = a.Respond(ctx, strings.Repeat("x", 150), KindAnalysis)
	_, _ = a.Respond(ctx, "wrap up", KindAnalysis)

	s := a.Summary(7)
	assert.Equal(t, 3, s.TotalInteractions)
	assert.Equal(t, map[string]int{KindGreeting: 1, KindAnalysis: 2}, s.InteractionTypes)
	require.Len(t, s.KeyContexts, 3)
	assert.Len(t, s.KeyContexts[1], 100)
	assert.Equal(t, "analyst", s.PersonalityType)

	report := a.Report()
	assert.Contains(t, report, "test_agent - Agent Memory Report")
	assert.Contains(t, report, "Activity Level: 0.7")
	assert.Contains(t, report, "Interaction Types: analysis: 2, greeting: 1")
	assert.Contains(t, report, "Relationships: 1 active connections")
	assert.Contains(t, report, "• bob (mentor, strength 0.8)")
	assert.NotContains(t, report, "ancient")
}

func TestAgent_SummaryWindowBoundary(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	clock := now
	a := newAgent(t, storedAgent("test_agent"), WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	clock = now.Add(-8 * 24 * time.Hour)
	_, _ = a.Respond(ctx, "eight days", "custom")
	clock = now.Add(-8*24*time.Hour + time.Second)
	_, _ = a.Respond(ctx, "almost eight days", "custom")
	clock = now.Add(-7 * 24 * time.Hour)
	_, _ = a.Respond(ctx, "seven days", "custom")

	clock = now
	s := a.Summary(7)
	assert.Equal(t, 2, s.TotalInteractions)
	assert.Equal(t, []string{"almost eight days", "seven days"}, s.KeyContexts)

	s = a.Summary(0)
	assert.Zero(t, s.TotalInteractions)
}

func TestAgent_SaveComponent(t *testing.T) {
	t.Parallel()
	svc := storedAgent("test_agent")
	a := newAgent(t, svc)

	err := a.SaveComponent(context.Background(), core.ComponentDetailed, map[string]any{
		core.KeyTraits:           map[string]float64{"precision": 0.1},
		core.KeyResponsePatterns: DefaultPatterns(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.1, a.Trait("precision", 0))

	svc.updateErr = core.ErrUnknownComponent
	err = a.SaveComponent(context.Background(), "bogus", map[string]any{})
	assert.ErrorIs(t, err, core.ErrUnknownComponent)
}

func TestJournal_LogFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a, err := New(context.Background(), "test_agent", storedAgent("test_agent"), WithLogDir(dir))
	require.NoError(t, err)

	_, err = a.Respond(context.Background(), "Hello", KindGreeting)
	require.NoError(t, err)
	require.NoError(t, a.Close())
	// closing twice is harmless
	require.NoError(t, a.Close())

	data, err := os.ReadFile(filepath.Join(dir, "test_agent.log"))
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &line))
	assert.Equal(t, "interaction", line["message"])
	assert.Equal(t, KindGreeting, line["type"])
	assert.Equal(t, "neutral", line["mood"])
	assert.NotEmpty(t, line["id"])
}
