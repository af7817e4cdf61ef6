package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cardvault/internal/auth"
	"cardvault/internal/httpapi"
	"cardvault/internal/logging"
	"cardvault/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind := strings.TrimSpace(bindFlag); bind != "" {
				cfg.Paths.APIBind = bind
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if failed := failedChecks(preflight.RunAll(runCtx, cfg)); len(failed) > 0 {
				return fmt.Errorf("preflight failed: %s (run `cardvault doctor` for details)", strings.Join(failed, ", "))
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays,
				logging.LogFilePath(cfg.Paths.LogDir, time.Now()))

			lib, closeLib, err := ctx.openLibrary(cmd, logger)
			if err != nil {
				return err
			}
			defer closeLib()

			authSvc := auth.New(cfg)
			if !authSvc.Enabled() {
				logging.WarnWithContext(logger, "admin auth not configured; write routes are disabled", "auth_disabled",
					logging.String(logging.FieldErrorHint, "set auth.admin_password and auth.jwt_secret"),
					logging.String(logging.FieldImpact, "uploads, edits, and deletes answer 503"),
				)
			}

			server := httpapi.New(cfg, lib, authSvc, logger)
			if err := server.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cardvault listening on http://%s\n", server.Addr())

			<-runCtx.Done()
			logger.Info("cardvault shutting down")
			server.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Override paths.api_bind")
	return cmd
}

func failedChecks(results []preflight.Result) []string {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r.Name)
		}
	}
	return failed
}
