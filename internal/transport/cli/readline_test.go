package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/chzyer/readline"
	"github.com/sandevgo/personas/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoAgent struct {
	inputs []string
	err    error
}

func (a *echoAgent) Name() string { return "agentX" }

func (a *echoAgent) Respond(_ context.Context, input, kind string) (string, error) {
	a.inputs = append(a.inputs, kind+":"+input)
	if a.err != nil {
		return "", a.err
	}
	return "ok " + input, nil
}

type stubRouter struct{}

func (stubRouter) Execute(_ context.Context, input string) (string, bool) {
	if input == "/mood" {
		return "mood › neutral", true
	}
	return "", false
}

func (stubRouter) ListCommands() []core.Command { return nil }

func script(lines ...string) func() (string, error) {
	return func() (string, error) {
		if len(lines) == 0 {
			return "", io.EOF
		}
		line := lines[0]
		lines = lines[1:]
		return line, nil
	}
}

func TestReadLine_Loop(t *testing.T) {
	t.Parallel()
	agent := &echoAgent{}
	r := &ReadLine{agent: agent, router: stubRouter{}}
	var out bytes.Buffer

	err := r.loop(context.Background(), script("  ", "/mood", "check the logs", "exit", "never read"), &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"analysis:check the logs"}, agent.inputs)
	assert.Contains(t, out.String(), "mood › neutral")
	assert.Contains(t, out.String(), "ok check the logs")
}

func TestReadLine_LoopAgentError(t *testing.T) {
	t.Parallel()
	r := &ReadLine{agent: &echoAgent{err: errors.New("pattern broken")}, router: stubRouter{}}
	var out bytes.Buffer

	err := r.loop(context.Background(), script("hello"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "pattern broken")
}

func TestReadLine_LoopInterrupt(t *testing.T) {
	t.Parallel()
	r := &ReadLine{agent: &echoAgent{}, router: stubRouter{}}

	err := r.loop(context.Background(), func() (string, error) { return "", readline.ErrInterrupt }, io.Discard)
	assert.NoError(t, err)
}

func TestReadLine_LoopCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &ReadLine{agent: &echoAgent{}, router: stubRouter{}}

	err := r.loop(ctx, script("hello"), io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
}
