package command

import (
	"github.com/sandevgo/personas/internal/core"
)

// NewCommands builds the chat commands for one agent, /help included.
func NewCommands(agent Persona) []core.Command {
	cmds := []core.Command{
		NewRespondCommand(agent, "greet", "greeting", "Greet the agent"),
		NewRespondCommand(agent, "complete", "completion", "Ask the agent to complete a task"),
		NewTraitCommand(agent),
		NewMoodCommand(agent),
		NewReportCommand(agent),
	}
	help := NewHelpCommand()
	cmds = append(cmds, help)
	help.router = New(cmds)
	return cmds
}
