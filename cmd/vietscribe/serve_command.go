package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vietscribe/internal/notifications"
	"vietscribe/internal/pipeline"
	"vietscribe/internal/preflight"
	"vietscribe/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the transcription web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if !skipPreflight {
				if err := runPreflight(cmd, ctx); err != nil {
					return err
				}
			}

			logger, err := ctx.newLogger(false)
			if err != nil {
				return err
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			notifier := notifications.NewService(cfg)
			p, err := pipeline.New(cfg, store, notifier, logger)
			if err != nil {
				return err
			}

			srv, err := server.New(cfg, store, p, notifier, logger)
			if err != nil {
				return err
			}
			if err := srv.Start(cmd.Context()); err != nil {
				return err
			}
			defer srv.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Vietscribe listening on http://%s\n", srv.Addr())

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(signals)

			select {
			case <-cmd.Context().Done():
			case sig := <-signals:
				fmt.Fprintf(cmd.OutOrStdout(), "Received %s, shutting down\n", sig)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip startup readiness checks")
	return cmd
}

func runPreflight(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, result := range preflight.RunAll(cmd.Context(), cfg) {
		kind := statusOK
		if !result.Passed {
			kind = statusError
			failed++
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, shouldColorize(out)))
	}
	for _, status := range preflight.CheckSystemDeps(cfg) {
		kind := statusOK
		if !status.Available {
			kind = statusError
			failed++
		}
		fmt.Fprintln(out, renderStatusLine(status.Name, kind, status.Detail, shouldColorize(out)))
	}
	if failed > 0 {
		return fmt.Errorf("preflight failed: %d check(s) did not pass", failed)
	}
	return nil
}
