package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	deliveryhttp "ticketing/internal/delivery/http"
	"ticketing/internal/delivery/http/controllers"
	"ticketing/internal/delivery/http/middleware"
)

// Server flags (override config/env)
var serverPort string

func newServeCmd() *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables (and .env outside production)
- Optionally reconcile registration counts with the events table (RECONCILE_ON_START)
- Serve the API, /metrics, /swagger/ and the demo page
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  ticketing serve

  # Start on a specific port with a bbolt store
  ticketing serve --port 9090 --store bolt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd)
		},
	}
	serve.Flags().StringVar(&serverPort, "port", "", "server port (default: $PORT or 3000)")
	return serve
}

func runServer(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if serverPort != "" {
		a.cfg.Port = serverPort
	}
	logger := a.logger

	if a.cfg.ReconcileOnStart {
		changed, err := a.service.Reconcile(ctx)
		if err != nil {
			return fmt.Errorf("reconcile on start: %w", err)
		}
		logger.Info("reconciled registration counts", "changed", changed)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	router := deliveryhttp.NewRouter(
		controllers.NewEventController(logger, a.service),
		controllers.NewAttendeeController(logger, a.service),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)

	server := &http.Server{
		Addr:              net.JoinHostPort("", a.cfg.Port),
		Handler:           deliveryhttp.NewHandler(router, logger, middleware.NewMetrics(reg), a.cfg.AllowedOrigins),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr, "backend", a.cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	// Let confirmation emails for already accepted registrations finish.
	if pending, ok := a.service.(interface{ Wait() }); ok {
		pending.Wait()
	}
	return nil
}
