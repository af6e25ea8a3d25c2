// Package server provides the application container and HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/JakeFAU/og-parser/internal/api"
	"github.com/JakeFAU/og-parser/internal/config"
	collyfetcher "github.com/JakeFAU/og-parser/internal/fetcher/colly"
	"github.com/JakeFAU/og-parser/internal/hash/sha256"
	"github.com/JakeFAU/og-parser/internal/id/uuid"
	"github.com/JakeFAU/og-parser/internal/logging"
	"github.com/JakeFAU/og-parser/internal/metadata"
	"github.com/JakeFAU/og-parser/internal/metrics"
)

// App contains the application's dependencies.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	apiServer *api.Server
}

// Build creates the logger from configuration and wires the application.
func Build(cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return NewApp(cfg, logger)
}

// NewApp wires fetcher, extractor, and HTTP API around an existing logger.
func NewApp(cfg config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	type sanitizedConfig struct {
		ServerPort     int `json:"server_port"`
		FetchTimeout   int `json:"fetch_timeout_seconds"`
		CacheMaxAge    int `json:"cache_max_age_seconds"`
		AllowedOrigins int `json:"allowed_origins"`
	}
	logger.Info("creating application", zap.Any("config", sanitizedConfig{
		ServerPort:     cfg.Server.Port,
		FetchTimeout:   cfg.Fetch.TimeoutSeconds,
		CacheMaxAge:    cfg.Cache.MaxAgeSeconds,
		AllowedOrigins: len(cfg.CORS.AllowedOrigins),
	}))

	metrics.Init()

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:    cfg.Fetch.UserAgent,
		Timeout:      cfg.FetchTimeout(),
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	}, logger.Named("fetcher"))
	logger.Info("using colly fetcher", zap.String("user_agent", cfg.Fetch.UserAgent))

	extractor := metadata.NewExtractor(fetcher, metadata.Config{
		Timeout:   cfg.FetchTimeout(),
		UserAgent: cfg.Fetch.UserAgent,
	}, logger.Named("extractor"))

	apiServer, err := api.NewServer(extractor, uuid.New(), sha256.New(), cfg, logger.Named("api"))
	if err != nil {
		return nil, fmt.Errorf("api server init failed: %w", err)
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		apiServer: apiServer,
	}, nil
}

// Handler exposes the wired HTTP handler.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run listens on the configured port and blocks until SIGINT/SIGTERM or ctx
// cancellation.
func (a *App) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve handles requests on ln until the context ends, then drains
// in-flight requests within the configured shutdown timeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout(),
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			serveErr <- err
			stop()
		}
		close(serveErr)
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
	defer cancel()

	var shutdownErr error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
		shutdownErr = fmt.Errorf("shutdown: %w", err)
	}
	a.Close()

	if err, ok := <-serveErr; ok && err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return shutdownErr
}

// Close flushes buffered log entries.
func (a *App) Close() {
	a.logger.Info("shutdown complete")
	if err := a.logger.Sync(); err != nil {
		a.logger.Debug("logger sync failed", zap.Error(err))
	}
}
