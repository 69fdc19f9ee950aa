package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dewv/nlc-visits/config"
	httpx "github.com/dewv/nlc-visits/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// BuildHTTPHandler builds the router with the embedded views.
func BuildHTTPHandler(cfg *HTTPServerConfig) (http.Handler, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer, err := httpx.NewTemplateRenderer(httpx.TemplateRendererConfig{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}

	return httpx.NewRouter(httpx.RouterServices{
		Sessions:     cfg.Services.Sessions,
		Login:        cfg.Services.Login,
		Authz:        cfg.Services.Authz,
		Visits:       cfg.Services.Visits,
		Profiles:     cfg.Services.Profiles,
		Renderer:     renderer,
		CookieDomain: cfg.Config.HTTP.CookieDomain,
		CSRF:         cfg.Config.HTTP.CSRF,
		Logger:       logger,
	}), nil
}

// StartHTTPServer creates and starts the HTTP server. ListenAndServe errors
// other than a clean shutdown are sent on the returned channel.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, <-chan error, error) {
	handler, err := BuildHTTPHandler(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpCfg := cfg.Config.HTTP
	addr := httpCfg.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: httpCfg.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr, "auth_mode", cfg.Config.Auth.Mode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	return server, errCh, nil
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}

// RunHTTPWithShutdown serves until SIGINT/SIGTERM or a server error, then
// shuts down gracefully.
func RunHTTPWithShutdown(ctx context.Context, cfg *HTTPServerConfig) error {
	server, errCh, err := StartHTTPServer(cfg)
	if err != nil {
		return err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown := ShutdownConfig{
		Context: context.WithoutCancel(ctx),
		Server:  server,
		Timeout: cfg.Config.HTTP.ShutdownTimeout,
		Logger:  logger,
	}

	select {
	case <-sigCtx.Done():
		logger.Info("shutting down services...")
		return ShutdownHTTPServer(shutdown)
	case serveErr, ok := <-errCh:
		if !ok {
			return nil
		}
		logger.Error("service error", "error", serveErr)
		if stopErr := ShutdownHTTPServer(shutdown); stopErr != nil {
			logger.Error("graceful stop failed", "error", stopErr)
		}
		return serveErr
	}
}
