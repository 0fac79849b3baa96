package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sandevgo/personas/internal/core"
)

// Persona is the part of a running agent the chat commands drive.
type Persona interface {
	Name() string
	Respond(ctx context.Context, input, kind string) (string, error)
	Personality() *core.Personality
	Mood() string
	Report() string
}

// RespondCommand forwards its arguments to the agent as a fixed response kind.
type RespondCommand struct {
	agent       Persona
	name        string
	kind        string
	description string
	formatter   *ResponseFormatter
}

func NewRespondCommand(agent Persona, name, kind, description string) *RespondCommand {
	return &RespondCommand{
		agent:       agent,
		name:        name,
		kind:        kind,
		description: description,
		formatter:   NewResponseFormatter(),
	}
}

func (c *RespondCommand) Name() string        { return c.name }
func (c *RespondCommand) Description() string { return c.description }

func (c *RespondCommand) Execute(ctx context.Context, args []string) (string, error) {
	input := strings.Join(args, " ")
	if input == "" {
		input = c.name
	}

	out, err := c.agent.Respond(ctx, input, c.kind)
	if err != nil {
		return "", err
	}
	return c.formatter.Agent(c.agent.Name(), out), nil
}

type TraitCommand struct {
	agent     Persona
	formatter *ResponseFormatter
}

func NewTraitCommand(agent Persona) *TraitCommand {
	return &TraitCommand{agent: agent, formatter: NewResponseFormatter()}
}

func (c *TraitCommand) Name() string        { return "trait" }
func (c *TraitCommand) Description() string { return "Show a personality trait value" }

func (c *TraitCommand) Execute(_ context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return c.formatter.Usage("/trait <name>"), nil
	}

	v, ok := c.agent.Personality().Traits[args[0]]
	if !ok {
		return "", fmt.Errorf("trait %q: %w", args[0], core.ErrNotFound)
	}
	return c.formatter.Label(args[0], strconv.FormatFloat(v, 'f', 2, 64)), nil
}

type MoodCommand struct {
	agent     Persona
	formatter *ResponseFormatter
}

func NewMoodCommand(agent Persona) *MoodCommand {
	return &MoodCommand{agent: agent, formatter: NewResponseFormatter()}
}

func (c *MoodCommand) Name() string        { return "mood" }
func (c *MoodCommand) Description() string { return "Show the agent's current mood" }

func (c *MoodCommand) Execute(context.Context, []string) (string, error) {
	return c.formatter.Label("mood", c.agent.Mood()), nil
}

type ReportCommand struct {
	agent Persona
}

func NewReportCommand(agent Persona) *ReportCommand {
	return &ReportCommand{agent: agent}
}

func (c *ReportCommand) Name() string        { return "report" }
func (c *ReportCommand) Description() string { return "Print the memory report" }

func (c *ReportCommand) Execute(context.Context, []string) (string, error) {
	return c.agent.Report(), nil
}

type HelpCommand struct {
	router    *Router
	formatter *ResponseFormatter
}

func NewHelpCommand() *HelpCommand {
	return &HelpCommand{formatter: NewResponseFormatter()}
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "List available commands" }

func (c *HelpCommand) Execute(context.Context, []string) (string, error) {
	lines := []string{c.formatter.Info("Commands")}
	for _, cmd := range c.router.ListCommands() {
		lines = append(lines, c.formatter.Label("/"+cmd.Name(), cmd.Description()))
	}
	lines = append(lines, "", "Anything else is sent to the agent for analysis. Type exit to quit.")
	return c.formatter.Combine(lines...), nil
}
