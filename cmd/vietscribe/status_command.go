package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vietscribe/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, dependency, and transcript status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			summary, err := store.Summarize(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, "Engine")
			fmt.Fprintln(out, renderStatusLine("Kind", statusOK, cfg.Engine.Kind+"/"+cfg.Engine.Model, colorize))
			fmt.Fprintln(out, renderStatusLine("Language", statusOK, cfg.Engine.Language, colorize))

			fmt.Fprintln(out, "\nChecks")
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			for _, status := range preflight.CheckSystemDeps(cfg) {
				kind := statusOK
				if !status.Available {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, status.Detail, colorize))
			}

			fmt.Fprintln(out, "\nTranscripts")
			rows := [][]string{{
				fmt.Sprintf("%d", summary.Total),
				fmt.Sprintf("%d", summary.Pending),
				fmt.Sprintf("%d", summary.Processing),
				fmt.Sprintf("%d", summary.Completed),
				fmt.Sprintf("%d", summary.Failed),
			}}
			fmt.Fprintln(out, renderTable(
				[]string{"Total", "Pending", "Processing", "Completed", "Failed"},
				rows,
				map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true},
			))
			return nil
		},
	}
}
