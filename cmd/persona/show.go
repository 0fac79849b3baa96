package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sandevgo/personas/pkg/log"
	"github.com/spf13/cobra"
)

var showRaw bool

var showCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print an agent's merged personality as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(ctx context.Context, cmd *cobra.Command, r *runtime, args []string) error {
		var v any
		if showRaw {
			doc, err := r.detailRepo.ReadDetailedRaw(ctx, args[0])
			if err != nil {
				return err
			}
			v = doc
		} else {
			p := r.svc.Load(ctx, args[0])
			if !p.Status.Found() {
				log.FromCtx(ctx).Warn().Str("agent", args[0]).Msg("no personality data found")
			}
			v = p
		}

		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}),
}

var updateFile string

var updateCmd = &cobra.Command{
	Use:   "update NAME COMPONENT",
	Short: "Update one personality component from a JSON object",
	Long: `Reads a JSON object from --file or stdin and writes it to the store owning COMPONENT.

COMPONENT is core or detailed. For detailed, each top-level key replaces the
same key in the agent's document; other keys are kept.`,
	Args: cobra.ExactArgs(2),
	RunE: withRuntime(func(ctx context.Context, cmd *cobra.Command, r *runtime, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if updateFile != "" {
			f, err := os.Open(updateFile)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		var data map[string]any
		if err := json.NewDecoder(in).Decode(&data); err != nil {
			return fmt.Errorf("failed to decode update payload: %w", err)
		}

		if err := r.svc.UpdateComponent(ctx, args[0], args[1], data); err != nil {
			return err
		}
		log.FromCtx(ctx).Info().Str("agent", args[0]).Str("component", args[1]).Msg("updated")
		return nil
	}),
}

func init() {
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "print the stored personality document as is")
	updateCmd.Flags().StringVarP(&updateFile, "file", "f", "", "JSON file with the update (default stdin)")
	rootCmd.AddCommand(showCmd, updateCmd)
}
