package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskhub/internal/app"
	"taskhub/internal/database"
	"taskhub/internal/obs"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the refund reconciler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if migrateUp {
				if err := database.Migrate(db); err != nil {
					return err
				}
				log.Info("migrations applied")
			}

			shutdownTracer, err := obs.InitTracer(ctx, obs.Config{
				Endpoint:    cfg.OTLPEndpoint,
				ServiceName: cfg.ServiceName,
				Environment: cfg.AppEnv,
			})
			if err != nil {
				return err
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := shutdownTracer(flushCtx); err != nil {
					log.Warn("tracer shutdown", "error", err)
				}
			}()

			gateway, err := app.NewGateway(cfg)
			if err != nil {
				return err
			}
			broker, err := app.NewBroker(cfg, log)
			if err != nil {
				return err
			}

			if cfg.AppEnv == "prod" {
				gin.SetMode(gin.ReleaseMode)
			}
			a := app.New(cfg, db, log, gateway, broker)
			defer func() {
				if err := a.Close(); err != nil {
					log.Warn("app close", "error", err)
				}
			}()

			if cfg.ReconcileInterval > 0 {
				go a.Reconciler.Loop(ctx, cfg.ReconcileInterval)
			}

			srv := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           a.Router,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("http server listening", "addr", cfg.HTTPAddr, "payment_provider", cfg.PaymentProvider, "events_driver", cfg.EventsDriver)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancelShutdown()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
