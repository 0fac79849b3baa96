package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/personas/internal/service/agent"
	"github.com/sandevgo/personas/internal/service/command"
	"github.com/sandevgo/personas/internal/service/ui"
	"github.com/sandevgo/personas/internal/transport/cli"
	"github.com/sandevgo/personas/pkg/log"
	"github.com/sandevgo/personas/pkg/srv"
	"github.com/spf13/cobra"
)

// summaryDays is the window of the summary persisted when a chat ends.
const summaryDays = 7

func openAgent(ctx context.Context, r *runtime, name string) (*agent.Agent, error) {
	return agent.New(ctx, name, r.svc, agent.WithLogDir(r.appCfg.GetLogPath()))
}

var respondCmd = &cobra.Command{
	Use:   "respond NAME KIND CONTEXT...",
	Short: "Generate one response (greeting, analysis, completion or any other kind)",
	Args:  cobra.MinimumNArgs(3),
	RunE: withRuntime(func(ctx context.Context, cmd *cobra.Command, r *runtime, args []string) error {
		a, err := openAgent(ctx, r, args[0])
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.Respond(ctx, strings.Join(args[2:], " "), args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}),
}

var reportCmd = &cobra.Command{
	Use:   "report NAME",
	Short: "Print an agent's memory report",
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(ctx context.Context, cmd *cobra.Command, r *runtime, args []string) error {
		a, err := openAgent(ctx, r, args[0])
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintln(cmd.OutOrStdout(), ui.TitleStyle.Render(a.Name()))
		fmt.Fprintln(cmd.OutOrStdout(), a.Report())
		return nil
	}),
}

var chatCmd = &cobra.Command{
	Use:   "chat NAME",
	Short: "Talk to an agent interactively",
	Long:  `Plain lines are analysed by the agent. Type /help for the slash commands. The session summary is stored when the chat ends.`,
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(ctx context.Context, cmd *cobra.Command, r *runtime, args []string) error {
		logger := log.FromCtx(ctx)

		a, err := openAgent(ctx, r, args[0])
		if err != nil {
			return err
		}

		router := command.New(command.NewCommands(a))
		rl, err := cli.NewReadLine(a, router, r.appCfg.GetRuntimePath())
		if err != nil {
			a.Close()
			return err
		}

		services := []srv.Service{
			srv.NewCleanup(a.Close),
			srv.NewCleanup(func() error {
				summary := a.Summary(summaryDays)
				if summary.TotalInteractions == 0 {
					return nil
				}
				// the chat may end on interrupt, the summary is still written
				return r.coreRepo.SaveMemorySummary(context.WithoutCancel(ctx), summary)
			}),
			rl,
		}

		srv.StartServices(ctx, []srv.Service{rl})

		select {
		case <-ctx.Done():
		case <-rl.Done():
		}

		srv.Shutdown(ctx, services)
		logger.Debug().Str("agent", a.Name()).Int("interactions", a.Journal().Count()).Msg("chat ended")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(respondCmd, reportCmd, chatCmd)
}
