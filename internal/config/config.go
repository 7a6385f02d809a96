package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultPort        = 3000
	DefaultGigyaURL    = "https://accounts.eu1.gigya.com"
	DefaultKamereonURL = "https://api-wired-prod-1-euw1.wrd-aws.com"
	DefaultCountry     = "SE"
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Webhook: WebhookConfig{
			Port: DefaultPort,
			Bind: "loopback",
			Path: "/",
			Auth: WebhookAuth{Mode: "none"},
			RateLimit: RateLimitConfig{
				PerMinute: 60,
				Burst:     20,
			},
		},
		Renault: RenaultConfig{
			GigyaURL:       DefaultGigyaURL,
			KamereonURL:    DefaultKamereonURL,
			Country:        DefaultCountry,
			TimeoutSeconds: 30,
		},
		Session: SessionConfig{
			Store:        "sqlite",
			Identity:     "user",
			AwaitTurns:   5,
			AwaitMinutes: 10,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// AwaitTimeout is the wall-clock bound on the awaiting-token phase.
func (c SessionConfig) AwaitTimeout() time.Duration {
	return time.Duration(c.AwaitMinutes) * time.Minute
}

// Timeout is the HTTP client timeout for provider calls.
func (c RenaultConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
