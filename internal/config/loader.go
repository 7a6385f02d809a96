package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields resolves ${ENV_VAR} references in credential fields.
func expandSensitiveFields(cfg *Config) {
	cfg.Webhook.Auth.Token = expandEnvVars(cfg.Webhook.Auth.Token)
	cfg.Webhook.Auth.Password = expandEnvVars(cfg.Webhook.Auth.Password)
	cfg.Renault.GigyaAPIKey = expandEnvVars(cfg.Renault.GigyaAPIKey)
	cfg.Renault.KamereonAPIKey = expandEnvVars(cfg.Renault.KamereonAPIKey)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	expandSensitiveFields(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// CheckRaw reports whether raw still decodes as a Config. Unknown keys
// are rejected so a misspelt section is caught before it is written.
func CheckRaw(raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return &ConfigError{Message: "value does not fit the config schema: " + err.Error()}
	}
	return nil
}

// applyDefaults fills zero-value fields left empty by the file.
func applyDefaults(cfg *Config) {
	def := Defaults()

	if cfg.Webhook.Port == 0 {
		cfg.Webhook.Port = def.Webhook.Port
	}
	if cfg.Webhook.Bind == "" {
		cfg.Webhook.Bind = def.Webhook.Bind
	}
	if cfg.Webhook.Path == "" {
		cfg.Webhook.Path = def.Webhook.Path
	}
	if cfg.Webhook.Auth.Mode == "" {
		cfg.Webhook.Auth.Mode = def.Webhook.Auth.Mode
	}
	if cfg.Renault.GigyaURL == "" {
		cfg.Renault.GigyaURL = def.Renault.GigyaURL
	}
	if cfg.Renault.KamereonURL == "" {
		cfg.Renault.KamereonURL = def.Renault.KamereonURL
	}
	if cfg.Renault.Country == "" {
		cfg.Renault.Country = def.Renault.Country
	}
	if cfg.Renault.TimeoutSeconds == 0 {
		cfg.Renault.TimeoutSeconds = def.Renault.TimeoutSeconds
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = def.Session.Store
	}
	if cfg.Session.Identity == "" {
		cfg.Session.Identity = def.Session.Identity
	}
	if cfg.Session.AwaitTurns == 0 {
		cfg.Session.AwaitTurns = def.Session.AwaitTurns
	}
	if cfg.Session.AwaitMinutes == 0 {
		cfg.Session.AwaitMinutes = def.Session.AwaitMinutes
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = def.Logging.ConsoleStyle
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = def.Metrics.Path
	}
}

// applyEnvOverrides reads ZOEBOT_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ZOEBOT_WEBHOOK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Webhook.Port = port
		}
	}
	// PORT is what most container platforms inject.
	if v := os.Getenv("PORT"); v != "" && os.Getenv("ZOEBOT_WEBHOOK_PORT") == "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Webhook.Port = port
		}
	}
	if v := os.Getenv("ZOEBOT_WEBHOOK_BIND"); v != "" {
		cfg.Webhook.Bind = v
	}
	if v := os.Getenv("ZOEBOT_WEBHOOK_TOKEN"); v != "" {
		cfg.Webhook.Auth.Token = v
	}
	if v := os.Getenv("ZOEBOT_GIGYA_API_KEY"); v != "" {
		cfg.Renault.GigyaAPIKey = v
	}
	if v := os.Getenv("ZOEBOT_KAMEREON_API_KEY"); v != "" {
		cfg.Renault.KamereonAPIKey = v
	}
	if v := os.Getenv("ZOEBOT_SESSION_STORE"); v != "" {
		cfg.Session.Store = v
	}
	if v := os.Getenv("ZOEBOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
