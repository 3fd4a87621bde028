package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"github.com/spf13/cobra"

	handler "github.com/neomorfeo/fabflow/internal/adapter/http"
	"github.com/neomorfeo/fabflow/internal/adapter/otel"
	"github.com/neomorfeo/fabflow/internal/app"
	"github.com/neomorfeo/fabflow/internal/domain"
)

const notifyBuffer = 256

func newServeCmd(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the chat worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, *cfg, newLogger(*cfg))
		},
	}
	cmd.Flags().StringVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	return cmd
}

func newRouter(orders *app.OrderService, engine *app.WorkflowEngine) *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware("fabflow", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("fabflow", "0.1.0"))
	handler.Register(api, orders, engine)
	return router
}

// run serves the API until ctx is cancelled, then drains in-flight
// requests, pending notifications and running jobs.
func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}

	var async *app.AsyncNotifier
	st, err := openStack(ctx, cfg, logger, func(next domain.Notifier) domain.Notifier {
		async = app.NewAsyncNotifier(next, notifyBuffer, logger)
		return async
	})
	if err != nil {
		_ = providers.Shutdown(context.Background())
		return err
	}
	defer st.Close()

	// Jobs outlive the request that enqueued them, so the worker and the
	// buffer run on a context that is only cancelled after shutdown.
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	if err := st.queue.Start(workCtx); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}
	async.Start(workCtx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(st.orders, st.engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("fabflow listening", "addr", srv.Addr, "docs", "http://localhost:"+cfg.Port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := async.Close(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("notifier drain: %w", err))
	}
	if err := st.queue.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("river stop: %w", err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	logger.Info("stopped")
	return errors.Join(errs...)
}
