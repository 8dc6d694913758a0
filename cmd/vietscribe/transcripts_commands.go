package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vietscribe/internal/textutil"
	"vietscribe/internal/transcripts"
)

func newTranscriptsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "Inspect and manage stored transcripts",
	}

	cmd.AddCommand(newTranscriptsListCommand(ctx))
	cmd.AddCommand(newTranscriptsShowCommand(ctx))
	cmd.AddCommand(newTranscriptsRemoveCommand(ctx))
	cmd.AddCommand(newTranscriptsClearCommand(ctx))
	return cmd
}

func newTranscriptsListCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transcripts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var statuses []transcripts.Status
			for _, raw := range statusFilters {
				status := transcripts.Status(strings.TrimSpace(raw))
				if !transcripts.ValidStatus(status) {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}

			items, err := store.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No transcripts")
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					item.Token,
					textutil.Truncate(item.Filename, 32),
					string(item.Status),
					formatDuration(item.DurationSeconds),
					fmt.Sprintf("%d/%d", item.ChunksDone, item.ChunkCount),
					item.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Token", "File", "Status", "Length", "Chunks", "Created"},
				rows,
				map[int]bool{4: true},
			))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&statusFilters, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func newTranscriptsShowCommand(ctx *commandContext) *cobra.Command {
	var rawText bool

	cmd := &cobra.Command{
		Use:   "show <token>",
		Short: "Show a transcript's details and text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			transcript, err := store.GetByToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if transcript == nil {
				return fmt.Errorf("unknown transcript %q", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Token:    %s\n", transcript.Token)
			fmt.Fprintf(out, "File:     %s\n", transcript.Filename)
			fmt.Fprintf(out, "Status:   %s\n", transcript.Status)
			fmt.Fprintf(out, "Engine:   %s\n", transcript.Engine)
			fmt.Fprintf(out, "Language: %s\n", transcript.Language)
			fmt.Fprintf(out, "Length:   %s\n", formatDuration(transcript.DurationSeconds))
			fmt.Fprintf(out, "Chunks:   %d/%d\n", transcript.ChunksDone, transcript.ChunkCount)
			if transcript.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:    %s\n", transcript.ErrorMessage)
			}
			if transcript.CompletedAt != nil {
				fmt.Fprintf(out, "Finished: %s\n", transcript.CompletedAt.Local().Format(time.RFC3339))
			}

			text := transcript.FinalText
			if rawText {
				text = transcript.RawText
			}
			if text != "" {
				fmt.Fprintf(out, "\n%s\n", text)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&rawText, "raw", false, "Print the raw engine output instead of the cleaned text")
	return cmd
}

func newTranscriptsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <token>",
		Short: "Remove a transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("unknown transcript %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func newTranscriptsClearCommand(ctx *commandContext) *cobra.Command {
	var completedOnly bool
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove stored transcripts in bulk",
		RunE: func(cmd *cobra.Command, args []string) error {
			if completedOnly && failedOnly {
				return fmt.Errorf("--completed and --failed are mutually exclusive")
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var removed int64
			switch {
			case completedOnly:
				removed, err = store.ClearCompleted(cmd.Context())
			case failedOnly:
				removed, err = store.ClearFailed(cmd.Context())
			default:
				removed, err = store.Clear(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d transcript(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&completedOnly, "completed", false, "Remove only completed transcripts")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Remove only failed transcripts")
	return cmd
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return d.String()
}
