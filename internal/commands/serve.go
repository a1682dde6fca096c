package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledger/internal/api"
)

func newServeCommand(g *globals) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), g, func(a *app) error {
				serverCfg := a.cfg.Server
				if port != "" {
					serverCfg.Port = port
				}

				handler := api.NewLedgerHandler(api.Services{
					Journal:  a.journal,
					Accounts: a.accounts,
					Periods:  a.periods,
					Reports:  a.reports,
					Recorder: a.recorder,
				}, a.log)
				srv := api.NewServer(a.log, serverCfg, a.actor, handler)

				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				errCh := make(chan error, 1)
				go func() { errCh <- srv.Run() }()

				select {
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				case <-ctx.Done():
				}

				a.log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					a.log.Error("shutdown failed", zap.Error(err))
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default from config)")
	return cmd
}
