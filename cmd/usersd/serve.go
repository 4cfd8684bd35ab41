package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-users-auth"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
		defer stop()

		app, err := NewApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		logger := app.GetLogger("http")

		if err := app.repo.Migrate(ctx); err != nil {
			return err
		}

		srv := auth.NewHTTPServer(auth.ServerOptions{
			Auther:           app.auther,
			Users:            app.users,
			Metrics:          app.metrics,
			LoggerProvider:   loggerProvider{app: app},
			CORSAllowOrigins: app.config.CORSOrigins(),
			AuthScheme:       app.config.GetAuthScheme(),
			ContextKey:       app.config.GetContextKey(),
			Debug:            app.config.Debug,
		})

		addr := app.config.HTTPAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", addr)
			errCh <- srv.Serve(addr)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides HTTP_ADDR")
}
