package config

// Config is the root configuration for zoebot.
type Config struct {
	Webhook WebhookConfig `yaml:"webhook,omitempty"`
	Renault RenaultConfig `yaml:"renault,omitempty"`
	Session SessionConfig `yaml:"session,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Hooks   HooksConfig   `yaml:"hooks,omitempty"`
}

// WebhookConfig controls the fulfillment HTTP server.
type WebhookConfig struct {
	Port           int             `yaml:"port,omitempty"`
	Bind           string          `yaml:"bind,omitempty"` // "auto" | "lan" | "loopback" | "custom"
	CustomBindHost string          `yaml:"customBindHost,omitempty"`
	Path           string          `yaml:"path,omitempty"` // fulfillment path, default "/"
	Auth           WebhookAuth     `yaml:"auth,omitempty"`
	TLS            WebhookTLS      `yaml:"tls,omitempty"`
	RateLimit      RateLimitConfig `yaml:"rateLimit,omitempty"`
}

// WebhookAuth configures how the assistant platform authenticates to us.
type WebhookAuth struct {
	Mode     string `yaml:"mode,omitempty"` // "none" | "token" | "basic"
	Token    string `yaml:"token,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// WebhookTLS configures TLS for the webhook listener.
type WebhookTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// RateLimitConfig is a per-client-IP token bucket.
type RateLimitConfig struct {
	PerMinute int `yaml:"perMinute,omitempty"` // 0 disables
	Burst     int `yaml:"burst,omitempty"`
}

// RenaultConfig points at the identity provider and the telematics API.
type RenaultConfig struct {
	GigyaURL       string `yaml:"gigyaUrl,omitempty"`
	GigyaAPIKey    string `yaml:"gigyaApiKey,omitempty"`
	KamereonURL    string `yaml:"kamereonUrl,omitempty"`
	KamereonAPIKey string `yaml:"kamereonApiKey,omitempty"`
	Country        string `yaml:"country,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// SessionConfig defines session storage and the bootstrap flow.
type SessionConfig struct {
	Store        string `yaml:"store,omitempty"`    // "sqlite" | "memory"
	Identity     string `yaml:"identity,omitempty"` // "user" | "conversation"
	AwaitTurns   int    `yaml:"awaitTurns,omitempty"`
	AwaitMinutes int    `yaml:"awaitMinutes,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// HooksConfig binds shell commands to lifecycle events.
type HooksConfig struct {
	TurnReceived       []HookEntry `yaml:"turnReceived,omitempty"`
	ReplySending       []HookEntry `yaml:"replySending,omitempty"`
	TurnFailed         []HookEntry `yaml:"turnFailed,omitempty"`
	BootstrapStarted   []HookEntry `yaml:"bootstrapStarted,omitempty"`
	BootstrapCommitted []HookEntry `yaml:"bootstrapCommitted,omitempty"`
	ServerStart        []HookEntry `yaml:"serverStart,omitempty"`
	ServerStop         []HookEntry `yaml:"serverStop,omitempty"`
}

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}
