package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearPortEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "")
	t.Setenv("ZOEBOT_WEBHOOK_PORT", "")
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 3000, cfg.Webhook.Port)
	assert.Equal(t, "loopback", cfg.Webhook.Bind)
	assert.Equal(t, "/", cfg.Webhook.Path)
	assert.Equal(t, "none", cfg.Webhook.Auth.Mode)
	assert.Equal(t, "SE", cfg.Renault.Country)
	assert.Equal(t, "sqlite", cfg.Session.Store)
	assert.Equal(t, "user", cfg.Session.Identity)
	assert.Equal(t, 5, cfg.Session.AwaitTurns)
	assert.Equal(t, 10*time.Minute, cfg.Session.AwaitTimeout())
	assert.Equal(t, 30*time.Second, cfg.Renault.Timeout())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	clearPortEnv(t)

	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Webhook.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	clearPortEnv(t)
	t.Setenv("TEST_KAMEREON_KEY", "kam-secret")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
webhook:
  port: 8080
  bind: lan
  path: /fulfillment
  auth:
    mode: token
    token: hook-secret
renault:
  gigyaApiKey: gigya-key
  kamereonApiKey: ${TEST_KAMEREON_KEY}
  country: SE
session:
  store: memory
  awaitTurns: 3
logging:
  level: debug
  consoleStyle: json
hooks:
  bootstrapCommitted:
    - command: notify-send zoebot
      timeout: 2000
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Webhook.Port)
	assert.Equal(t, "lan", cfg.Webhook.Bind)
	assert.Equal(t, "/fulfillment", cfg.Webhook.Path)
	assert.Equal(t, "token", cfg.Webhook.Auth.Mode)
	assert.Equal(t, "hook-secret", cfg.Webhook.Auth.Token)
	assert.Equal(t, "gigya-key", cfg.Renault.GigyaAPIKey)
	assert.Equal(t, "kam-secret", cfg.Renault.KamereonAPIKey)
	assert.Equal(t, DefaultGigyaURL, cfg.Renault.GigyaURL)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 3, cfg.Session.AwaitTurns)
	assert.Equal(t, 10, cfg.Session.AwaitMinutes)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.ConsoleStyle)
	require.Len(t, cfg.Hooks.BootstrapCommitted, 1)
	assert.Equal(t, 2000, cfg.Hooks.BootstrapCommitted[0].Timeout)

	assert.Empty(t, Validate(&cfg))
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadEnvOverrides(t *testing.T) {
	clearPortEnv(t)
	t.Setenv("ZOEBOT_WEBHOOK_PORT", "12345")
	t.Setenv("ZOEBOT_LOG_LEVEL", "TRACE")
	t.Setenv("ZOEBOT_GIGYA_API_KEY", "from-env")
	t.Setenv("ZOEBOT_SESSION_STORE", "memory")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 12345, cfg.Webhook.Port)
	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Equal(t, "from-env", cfg.Renault.GigyaAPIKey)
	assert.Equal(t, "memory", cfg.Session.Store)
}

func TestLoadPlatformPort(t *testing.T) {
	clearPortEnv(t)
	t.Setenv("PORT", "8081")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Webhook.Port)

	t.Setenv("ZOEBOT_WEBHOOK_PORT", "9000")
	cfg, err = Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Webhook.Port, "explicit override wins over PORT")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ZOEBOT_TEST_SET", "value")

	assert.Equal(t, "value", expandEnvVars("${ZOEBOT_TEST_SET}"))
	assert.Equal(t, "pre-value-post", expandEnvVars("pre-${ZOEBOT_TEST_SET}-post"))
	assert.Equal(t, "${ZOEBOT_TEST_UNSET_VAR}", expandEnvVars("${ZOEBOT_TEST_UNSET_VAR}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		input   string
		want    []string
		wantErr bool
	}{
		{"webhook.port", []string{"webhook", "port"}, false},
		{"renault.gigyaApiKey", []string{"renault", "gigyaApiKey"}, false},
		{"", nil, true},
		{"a..b", nil, true},
		{"session.awaitTurns", []string{"session", "awaitTurns"}, false},
		{"webhook.", nil, true},
		{"webhook.tls cert", nil, true},
		{"hooks.0", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCheckRaw(t *testing.T) {
	assert.NoError(t, CheckRaw(map[string]any{}))
	assert.NoError(t, CheckRaw(map[string]any{"webhook": map[string]any{"port": 8080}}))

	err := CheckRaw(map[string]any{"webhok": map[string]any{"port": 8080}})
	assert.ErrorContains(t, err, "config schema")

	err = CheckRaw(map[string]any{"webhook": map[string]any{"port": "high"}})
	assert.ErrorContains(t, err, "config schema")
}

func TestGetSetUnsetValueAtPath(t *testing.T) {
	root := map[string]any{
		"webhook": map[string]any{
			"port": 3000,
			"bind": "loopback",
		},
	}

	val, ok := GetValueAtPath(root, []string{"webhook", "port"})
	assert.True(t, ok)
	assert.Equal(t, 3000, val)

	_, ok = GetValueAtPath(root, []string{"webhook", "missing"})
	assert.False(t, ok)

	SetValueAtPath(root, []string{"renault", "country"}, "NO")
	val, ok = GetValueAtPath(root, []string{"renault", "country"})
	assert.True(t, ok)
	assert.Equal(t, "NO", val)

	assert.True(t, UnsetValueAtPath(root, []string{"webhook", "port"}))
	_, ok = GetValueAtPath(root, []string{"webhook", "port"})
	assert.False(t, ok)

	val, ok = GetValueAtPath(root, []string{"webhook", "bind"})
	assert.True(t, ok)
	assert.Equal(t, "loopback", val)

	assert.False(t, UnsetValueAtPath(root, []string{"webhook", "nonexistent"}))
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SaveRaw(path, map[string]any{
		"session": map[string]any{"store": "memory"},
	}))

	loaded, err := LoadRaw(path)
	require.NoError(t, err)

	val, ok := GetValueAtPath(loaded, []string{"session", "store"})
	assert.True(t, ok)
	assert.Equal(t, "memory", val)
}

func TestLoadRawMissingFile(t *testing.T) {
	raw, err := LoadRaw(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestResolvePathsCustomHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("ZOEBOT_HOME", tmp)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, tmp, paths.Base)
	assert.Equal(t, filepath.Join(tmp, "config.yaml"), paths.Config)
	assert.Equal(t, filepath.Join(tmp, "data", "zoebot.db"), paths.Database())

	require.NoError(t, paths.EnsureDirs())
	info, err := os.Stat(paths.Logs)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
