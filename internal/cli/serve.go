package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/fluxo/internal/config"
	httpAdapter "github.com/aretw0/fluxo/pkg/adapters/http"
	"github.com/aretw0/fluxo/pkg/delay"
)

// Serve runs the HTTP API and the delay poller until ctx is cancelled,
// then drains in-flight requests within server.shutdown_timeout.
func Serve(ctx context.Context, cfg *config.Config, stack *Stack, logger *slog.Logger) error {
	handler, err := httpAdapter.NewHandler(stack.Engine,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithMetrics(stack.Registry),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler,
	}

	poller := delay.NewPoller(stack.Delays, stack.Engine.ResumeFlow,
		delay.WithInterval(cfg.Engine.PollInterval),
		delay.WithLogger(logger),
	)
	pollCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	go poller.Run(pollCtx)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("fluxo server listening", "addr", srv.Addr, "flows", cfg.Flows.Dir)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		stopPoller()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", cfg.Server.ShutdownTimeout, err)
		}
		logger.Info("fluxo server stopped gracefully")
		return nil
	}
}
