package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/personas/internal/core"
	"github.com/sandevgo/personas/internal/service/ui"
	"github.com/sandevgo/personas/pkg/log"
)

// Agent is what the chat loop talks to.
type Agent interface {
	Name() string
	Respond(ctx context.Context, input, kind string) (string, error)
}

// ReadLine is an interactive chat with one agent. Slash commands go to the
// router; any other line is analysed by the agent.
type ReadLine struct {
	agent  Agent
	router core.CmdRouter
	rl     *readline.Instance
	done   chan struct{}
}

func NewReadLine(agent Agent, router core.CmdRouter, runtimePath string) (*ReadLine, error) {
	if err := os.MkdirAll(runtimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	completions := make([]readline.PrefixCompleterInterface, 0)
	for _, cmd := range router.ListCommands() {
		completions = append(completions, readline.PcItem("/"+cmd.Name()))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ui.AgentStyle.Render(agent.Name()) + " >>> ",
		HistoryFile:     filepath.Join(runtimePath, "chat_history"),
		AutoComplete:    readline.NewPrefixCompleter(completions...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		agent:  agent,
		router: router,
		rl:     rl,
		done:   make(chan struct{}),
	}, nil
}

// Done is closed when the loop ends on user request.
func (r *ReadLine) Done() <-chan struct{} {
	return r.done
}

func (r *ReadLine) Start(ctx context.Context) error {
	defer close(r.done)
	err := r.loop(ctx, r.rl.Readline, r.rl.Stdout())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *ReadLine) loop(ctx context.Context, next func() (string, error), out io.Writer) error {
	logger := log.FromCtx(ctx)
	fmt.Fprintf(out, "Chatting with %s. Type /help for commands, exit to quit.\n", r.agent.Name())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := next()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		if reply, handled := r.router.Execute(ctx, line); handled {
			fmt.Fprintln(out, reply)
			continue
		}

		reply, err := r.agent.Respond(ctx, line, "analysis")
		if err != nil {
			logger.Error().Err(err).Msg("agent response failed")
			fmt.Fprintf(out, "%s %v\n", ui.ErrorStyle.Render("error"), err)
			continue
		}
		fmt.Fprintf(out, "%s %s\n", ui.AgentStyle.Render(r.agent.Name()+":"), reply)
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}

