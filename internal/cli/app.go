package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/soyeahso/zoebot/internal/auth"
	"github.com/soyeahso/zoebot/internal/commands"
	"github.com/soyeahso/zoebot/internal/config"
	"github.com/soyeahso/zoebot/internal/domain"
	"github.com/soyeahso/zoebot/internal/hooks"
	"github.com/soyeahso/zoebot/internal/logging"
	"github.com/soyeahso/zoebot/internal/metrics"
	"github.com/soyeahso/zoebot/internal/renault"
	"github.com/soyeahso/zoebot/internal/routing"
	"github.com/soyeahso/zoebot/internal/store"
)

// newConnector builds the vehicle provider client. Tests replace it.
var newConnector = func(cfg config.RenaultConfig, log *logging.Logger) domain.Connector {
	return renault.New(cfg, log)
}

// app is the wired object graph shared by serve and intent.
type app struct {
	cfg      config.Config
	store    auth.SessionStore
	hooks    *hooks.Manager
	registry *prometheus.Registry
	router   *routing.Router
	closers  []io.Closer
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return config.Config{}, err
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return config.Config{}, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	return cfg, nil
}

// openStore opens the configured session store. The closer is never nil.
func openStore(cfg config.Config, log *logging.Logger) (auth.SessionStore, io.Closer, error) {
	if cfg.Session.Store != "sqlite" {
		log.Info().Msg("using in-memory session store")
		return auth.NewMemorySessionStore(), nopCloser{}, nil
	}

	dbPath := paths.Database()
	db, err := store.Open(dbPath, log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	log.Info().Str("path", dbPath).Msg("using SQLite session store")
	return store.NewSQLiteSessionStore(db), db, nil
}

func buildApp(cfg config.Config, log *logging.Logger) (*app, error) {
	sessions, closer, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		store:    sessions,
		hooks:    hooks.NewManager(log),
		registry: prometheus.NewRegistry(),
		closers:  []io.Closer{closer},
	}

	if n := a.hooks.RegisterCommands(cfg.Hooks); n > 0 {
		log.Info().Int("hooks", n).Msg("shell hooks registered")
	}

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.NewCollector(a.registry)

	connector := newConnector(cfg.Renault, log)
	bootstrap := auth.NewBootstrap(sessions, connector, log,
		auth.WithHooks(a.hooks),
		auth.WithMetrics(rec),
		auth.WithAwait(cfg.Session.AwaitTurns, cfg.Session.AwaitTimeout()),
	)
	dispatcher := commands.NewDispatcher(auth.NewResolver(connector, log), bootstrap, log)
	a.router = routing.NewRouter(sessions, dispatcher, log,
		routing.WithHooks(a.hooks),
		routing.WithMetrics(rec),
	)
	return a, nil
}

// Close drains async hooks and releases the store.
func (a *app) Close() error {
	a.hooks.Wait()
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
