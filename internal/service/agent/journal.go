package agent

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sandevgo/personas/pkg/log"
)

// Interaction is one journaled exchange with the agent.
type Interaction struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Context   string    `json:"context"`
	Type      string    `json:"type"`
	Mood      string    `json:"agent_mood"`
}

// Journal records an agent's interactions in memory and appends them to
// <logDir>/<agent>.log. It belongs to a single agent.
type Journal struct {
	mu      sync.Mutex
	entries []Interaction

	file   zerolog.Logger
	closer io.Closer
	now    func() time.Time
}

// NewJournal opens the agent's log file. An empty logDir keeps the journal
// in memory only.
func NewJournal(agentName, logDir string, now func() time.Time) (*Journal, error) {
	j := &Journal{
		file: zerolog.Nop(),
		now:  now,
	}
	if logDir == "" {
		return j, nil
	}

	logger, closer, err := log.NewFileLogger(filepath.Join(logDir, agentName+".log"))
	if err != nil {
		return nil, err
	}
	j.file = logger.With().Str("agent", agentName).Logger()
	j.closer = closer
	return j, nil
}

// Record stores an interaction. Its mood reflects the count before it.
func (j *Journal) Record(ctx context.Context, input, kind string) Interaction {
	j.mu.Lock()
	entry := Interaction{
		ID:        uuid.New(),
		Timestamp: j.now(),
		Context:   input,
		Type:      kind,
		Mood:      Mood(len(j.entries)),
	}
	j.entries = append(j.entries, entry)

	preview := truncate(input, 50)
	j.file.Info().
		Str("id", entry.ID.String()).
		Str("type", kind).
		Str("mood", entry.Mood).
		Str("context", preview).
		Msg("interaction")
	j.mu.Unlock()

	log.FromCtx(ctx).Info().Str("type", kind).Str("context", preview).Msg("interaction")
	return entry
}

func (j *Journal) Count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

func (j *Journal) Mood() string {
	return Mood(j.Count())
}

// Since returns the interactions recorded strictly after cutoff, oldest first.
func (j *Journal) Since(cutoff time.Time) []Interaction {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Interaction, 0, len(j.entries))
	for _, e := range j.entries {
		if e.Timestamp.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closer == nil {
		return nil
	}
	err := j.closer.Close()
	j.closer = nil
	j.file = zerolog.Nop()
	return err
}

// Mood maps an interaction count to the agent's current mood.
func Mood(count int) string {
	switch {
	case count > 20:
		return "focused"
	case count > 10:
		return "active"
	case count > 5:
		return "engaged"
	default:
		return "neutral"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
