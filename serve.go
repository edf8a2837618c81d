package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ghostwriter/publisher"
	"ghostwriter/server"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API for book runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			a, err := setup(ctx, cmd, out)
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()

			pub := publisher.New(publisher.Options{
				OutputDir: a.cfg.OutputDir,
				Timestamp: a.cfg.TimestampOutput,
				HTML:      a.cfg.HTMLOutput,
			}, a.log)
			srv, err := server.New(ctx, a.crew, pub, server.Defaults{
				WordCount:         a.cfg.WordCount,
				MaxRevisionCycles: a.cfg.MaxRevisionCycles,
			}, a.log)
			if err != nil {
				return err
			}

			httpSrv := &http.Server{
				Addr:              a.cfg.ServerAddr,
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() { errCh <- httpSrv.ListenAndServe() }()

			color.New(color.FgCyan, color.Bold).Fprintf(out, "Listening on %s\n", a.cfg.ServerAddr)
			a.log.Info("server started", zap.String("addr", a.cfg.ServerAddr))

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				a.log.Warn("server shutdown", zap.Error(err))
			}
			srv.Wait()
			a.log.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	return cmd
}
