// Package webhook serves Dialogflow fulfillment requests and the process's
// health and metrics endpoints.
package webhook

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/soyeahso/zoebot/internal/config"
	"github.com/soyeahso/zoebot/internal/domain"
	"github.com/soyeahso/zoebot/internal/hooks"
	"github.com/soyeahso/zoebot/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// TurnRouter handles one conversational turn.
type TurnRouter interface {
	RouteParams(ctx context.Context, turn domain.Turn, raw map[string]any) (domain.Reply, error)
}

// Server is the zoebot fulfillment HTTP server.
type Server struct {
	cfg      config.WebhookConfig
	metrics  config.MetricsConfig
	identity string
	auth     ResolvedAuth
	router   TurnRouter
	log      *logging.Logger
	limiter  *rateLimiter

	// Hook manager (optional)
	hooks *hooks.Manager

	// Metrics source for the exposition endpoint (optional)
	gatherer prometheus.Gatherer

	httpServer *http.Server
}

// ServerOption configures the webhook server.
type ServerOption func(*Server)

// WithHooks sets the hook manager for lifecycle events.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// WithGatherer exposes g on the metrics path when metrics are enabled.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.gatherer = g
	}
}

// New creates a webhook server.
func New(cfg config.Config, router TurnRouter, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:      cfg.Webhook,
		metrics:  cfg.Metrics,
		identity: cfg.Session.Identity,
		auth:     ResolveAuth(cfg.Webhook.Auth),
		router:   router,
		log:      log.Sub("webhook"),
		limiter:  newRateLimiter(cfg.Webhook.RateLimit.PerMinute, cfg.Webhook.RateLimit.Burst),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return withMiddleware(mux, s.log, s.limiter)
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.WebhookConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan", "auto":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return net.JoinHostPort(host, fmt.Sprint(cfg.Port))
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start listens on the configured address and serves until ctx is
// cancelled or the server fails.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if s.cfg.TLS.Enabled {
		cert, err := tls.LoadX509KeyPair(s.cfg.TLS.CertPath, s.cfg.TLS.KeyPath)
		if err != nil {
			ln.Close()
			return fmt.Errorf("loading TLS certificate: %w", err)
		}
		ln = tls.NewListener(ln, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		})
		s.log.Info().Msg("TLS enabled")
	} else if s.cfg.Bind != "loopback" {
		s.log.Warn().Msg("TLS is not enabled, webhook credentials travel in cleartext")
	}

	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
// ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Bind).
		Str("path", s.cfg.Path).
		Str("auth", s.auth.Mode).
		Bool("metrics", s.metricsEnabled()).
		Msg("webhook server starting")

	s.hooks.Emit(ctx, hooks.EventServerStart, map[string]any{
		"addr": ln.Addr().String(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down webhook server")
	stopCtx := context.WithoutCancel(ctx)
	s.hooks.Emit(stopCtx, hooks.EventServerStop, nil)

	shutdownCtx, cancel := context.WithTimeout(stopCtx, shutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	<-errCh
	return err
}

func (s *Server) metricsEnabled() bool {
	return s.metrics.Enabled && s.gatherer != nil
}
