package command

import (
	"context"
	"errors"
	"testing"

	"github.com/sandevgo/personas/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePersona struct {
	calls []string
	err   error
}

func (f *fakePersona) Name() string { return "agentX" }

func (f *fakePersona) Respond(_ context.Context, input, kind string) (string, error) {
	f.calls = append(f.calls, kind+":"+input)
	if f.err != nil {
		return "", f.err
	}
	return kind + " -> " + input, nil
}

func (f *fakePersona) Personality() *core.Personality {
	return &core.Personality{Traits: map[string]float64{"precision": 0.75}}
}

func (f *fakePersona) Mood() string   { return "engaged" }
func (f *fakePersona) Report() string { return "agentX - Agent Memory Report" }

func TestRouter_Execute(t *testing.T) {
	t.Parallel()
	persona := &fakePersona{}
	router := New(NewCommands(persona))
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		handled bool
		want    string
	}{
		{"plain text", "analyse the logs", false, ""},
		{"greet", "/greet", true, "greeting -> greet"},
		{"complete", "/complete ship the release", true, "completion -> ship the release"},
		{"trait", "/trait precision", true, "0.75"},
		{"trait usage", "/trait", true, "/trait <name>"},
		{"trait missing", "/trait humor", true, "not found"},
		{"mood", "/mood", true, "engaged"},
		{"report", "/report", true, "Agent Memory Report"},
		{"help", "/help", true, "/complete"},
		{"unknown", "/bogus", true, "Unknown command: /bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, handled := router.Execute(ctx, tt.input)
			assert.Equal(t, tt.handled, handled)
			assert.Contains(t, out, tt.want)
		})
	}

	assert.Equal(t, []string{"greeting:greet", "completion:ship the release"}, persona.calls)
}

func TestRouter_CommandError(t *testing.T) {
	t.Parallel()
	router := New(NewCommands(&fakePersona{err: errors.New("pattern broken")}))

	out, handled := router.Execute(context.Background(), "/greet")
	require.True(t, handled)
	assert.Contains(t, out, "pattern broken")
}

func TestRouter_ListCommandsSorted(t *testing.T) {
	t.Parallel()
	router := New(NewCommands(&fakePersona{}))

	var names []string
	for _, cmd := range router.ListCommands() {
		names = append(names, cmd.Name())
	}
	assert.Equal(t, []string{"complete", "greet", "help", "mood", "report", "trait"}, names)
}
