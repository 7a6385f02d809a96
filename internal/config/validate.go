package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	// Webhook
	if cfg.Webhook.Port < 0 || cfg.Webhook.Port > 65535 {
		add("webhook.port", "port must be 0-65535, got %d", cfg.Webhook.Port)
	}

	validBinds := []string{"auto", "lan", "loopback", "custom"}
	if cfg.Webhook.Bind != "" && !slices.Contains(validBinds, cfg.Webhook.Bind) {
		add("webhook.bind", "must be one of %v, got %q", validBinds, cfg.Webhook.Bind)
	}

	if cfg.Webhook.Path != "" && !strings.HasPrefix(cfg.Webhook.Path, "/") {
		add("webhook.path", "must start with /, got %q", cfg.Webhook.Path)
	}

	switch cfg.Webhook.Auth.Mode {
	case "", "none":
	case "token":
		if cfg.Webhook.Auth.Token == "" {
			add("webhook.auth.token", "required when auth mode is token")
		}
	case "basic":
		if cfg.Webhook.Auth.Username == "" || cfg.Webhook.Auth.Password == "" {
			add("webhook.auth", "username and password are required when auth mode is basic")
		}
	default:
		add("webhook.auth.mode", "must be one of [none token basic], got %q", cfg.Webhook.Auth.Mode)
	}

	if cfg.Webhook.TLS.Enabled && (cfg.Webhook.TLS.CertPath == "" || cfg.Webhook.TLS.KeyPath == "") {
		add("webhook.tls", "certPath and keyPath are required when TLS is enabled")
	}

	if cfg.Webhook.RateLimit.PerMinute < 0 {
		add("webhook.rateLimit.perMinute", "must not be negative, got %d", cfg.Webhook.RateLimit.PerMinute)
	}
	if cfg.Webhook.RateLimit.PerMinute > 0 && cfg.Webhook.RateLimit.Burst <= 0 {
		add("webhook.rateLimit.burst", "must be positive when rate limiting is enabled")
	}

	// Renault
	for path, raw := range map[string]string{
		"renault.gigyaUrl":    cfg.Renault.GigyaURL,
		"renault.kamereonUrl": cfg.Renault.KamereonURL,
	} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			add(path, "must be an absolute URL, got %q", raw)
		}
	}
	if cfg.Renault.GigyaAPIKey == "" {
		add("renault.gigyaApiKey", "is required")
	}
	if cfg.Renault.KamereonAPIKey == "" {
		add("renault.kamereonApiKey", "is required")
	}
	if len(cfg.Renault.Country) != 2 {
		add("renault.country", "must be a two-letter country code, got %q", cfg.Renault.Country)
	}
	if cfg.Renault.TimeoutSeconds < 0 {
		add("renault.timeoutSeconds", "must not be negative, got %d", cfg.Renault.TimeoutSeconds)
	}

	// Session
	validStores := []string{"sqlite", "memory"}
	if cfg.Session.Store != "" && !slices.Contains(validStores, cfg.Session.Store) {
		add("session.store", "must be one of %v, got %q", validStores, cfg.Session.Store)
	}
	validIdentities := []string{"user", "conversation"}
	if cfg.Session.Identity != "" && !slices.Contains(validIdentities, cfg.Session.Identity) {
		add("session.identity", "must be one of %v, got %q", validIdentities, cfg.Session.Identity)
	}
	if cfg.Session.AwaitTurns < 0 {
		add("session.awaitTurns", "must not be negative, got %d", cfg.Session.AwaitTurns)
	}
	if cfg.Session.AwaitMinutes < 0 {
		add("session.awaitMinutes", "must not be negative, got %d", cfg.Session.AwaitMinutes)
	}

	// Logging
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}
	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	// Metrics
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		add("metrics.path", "must start with /, got %q", cfg.Metrics.Path)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Path == cfg.Webhook.Path {
		add("metrics.path", "must differ from webhook.path")
	}

	// Hooks
	for _, b := range cfg.Hooks.Bindings() {
		for i, e := range b.Entries {
			if strings.TrimSpace(e.Command) == "" {
				add(fmt.Sprintf("hooks.%s[%d].command", b.Key, i), "is required")
			}
			if e.Timeout < 0 {
				add(fmt.Sprintf("hooks.%s[%d].timeout", b.Key, i), "must not be negative, got %d", e.Timeout)
			}
		}
	}

	slices.SortStableFunc(issues, func(a, b ValidationIssue) int { return strings.Compare(a.Path, b.Path) })
	return issues
}

// HookBinding ties a config key to the lifecycle event it listens on.
type HookBinding struct {
	Key     string // YAML key under hooks
	Event   string // event name emitted at runtime
	Entries []HookEntry
}

// Bindings lists every hook slot in a fixed order.
func (h HooksConfig) Bindings() []HookBinding {
	return []HookBinding{
		{Key: "turnReceived", Event: "turn_received", Entries: h.TurnReceived},
		{Key: "replySending", Event: "reply_sending", Entries: h.ReplySending},
		{Key: "turnFailed", Event: "turn_failed", Entries: h.TurnFailed},
		{Key: "bootstrapStarted", Event: "bootstrap_started", Entries: h.BootstrapStarted},
		{Key: "bootstrapCommitted", Event: "bootstrap_committed", Entries: h.BootstrapCommitted},
		{Key: "serverStart", Event: "server_start", Entries: h.ServerStart},
		{Key: "serverStop", Event: "server_stop", Entries: h.ServerStop},
	}
}
