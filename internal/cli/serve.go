package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/qx32"
	"github.com/aretw0/qx32/internal/config"
	httpAdapter "github.com/aretw0/qx32/pkg/adapters/http"
	"github.com/aretw0/qx32/pkg/adapters/mcp"
	"github.com/aretw0/qx32/pkg/domain"
	"github.com/aretw0/qx32/pkg/observability"
	"github.com/aretw0/qx32/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// NewServeHandler wires sessions, event streams and metrics into the HTTP handler.
// The returned close function shuts every session down.
func NewServeHandler(cfg config.Config, logger *slog.Logger) (http.Handler, func() error, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)
	streams := httpAdapter.NewStreamManager()

	cluster, err := newCluster(cfg, logger,
		[]domain.Hooks{observability.LogHooks(logger), metrics.Hooks(), streams.Hooks()},
		qx32.WithSessionOptions(session.WithOnRemove(streams.Close)),
	)
	if err != nil {
		return nil, nil, err
	}

	handler := httpAdapter.NewHandler(cluster.Manager(),
		httpAdapter.WithStreams(streams),
		httpAdapter.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
		httpAdapter.WithMaxInputSize(cfg.MaxInputSize),
	)
	return handler, cluster.Close, nil
}

// RunServe starts the HTTP server and blocks until ctx is done.
func RunServe(ctx context.Context, cfg config.Config, debug bool) error {
	logger := CreateLogger(cfg.Level(), debug)
	slog.SetDefault(logger)

	handler, closeCluster, err := NewServeHandler(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCluster()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("QX32 cluster listening", "address", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("Shutdown signal received, shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		return nil
	}
}

// RunMCP starts the MCP server on stdio or SSE.
func RunMCP(ctx context.Context, cfg config.Config, transport string, port int, debug bool) error {
	// Stdout carries JSON-RPC; the logger writes to stderr only.
	logger := CreateLogger(cfg.Level(), debug)
	slog.SetDefault(logger)

	cluster, err := newCluster(cfg, logger, []domain.Hooks{observability.LogHooks(logger)})
	if err != nil {
		return err
	}
	defer cluster.Close()

	srv := mcp.NewServer(cluster, mcp.WithMaxInputSize(cfg.MaxInputSize))
	switch transport {
	case "stdio":
		return srv.ServeStdio()
	case "sse":
		return srv.ServeSSE(ctx, port)
	default:
		return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
	}
}
