package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"vietscribe/internal/pipeline"
	"vietscribe/internal/textutil"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Transcribe a local video file and print the text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(quiet)
			if err != nil {
				return err
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := pipeline.New(cfg, store, nil, logger)
			if err != nil {
				return err
			}

			transcript, err := p.SubmitFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Transcribing %s (token %s)\n", transcript.Filename, transcript.Token)

			transcript, err = p.Process(cmd.Context(), transcript.Token)
			if err != nil {
				return fmt.Errorf("transcription failed: %w", err)
			}

			fmt.Fprintf(out, "Completed in %d chunk(s), %.1fs of audio\n\n", transcript.ChunkCount, transcript.DurationSeconds)
			fmt.Fprintln(out, transcript.FinalText)

			if strings.TrimSpace(outputPath) != "" {
				target, err := resolveOutputPath(outputPath, transcript.Filename)
				if err != nil {
					return err
				}
				if err := os.WriteFile(target, []byte(transcript.FinalText+"\n"), 0o644); err != nil {
					return fmt.Errorf("write transcript: %w", err)
				}
				fmt.Fprintf(out, "\nSaved transcript to %s\n", target)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the transcript to a .txt file (path or directory)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress pipeline log output")
	return cmd
}

func resolveOutputPath(output, sourceName string) (string, error) {
	expanded, err := filepath.Abs(output)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}
	info, err := os.Stat(expanded)
	if err == nil && info.IsDir() {
		base := textutil.SanitizeFileName(strings.TrimSuffix(sourceName, filepath.Ext(sourceName)))
		if base == "" {
			base = "transcript"
		}
		return filepath.Join(expanded, base+".txt"), nil
	}
	return expanded, nil
}
