package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Renault.GigyaAPIKey = "gigya"
	cfg.Renault.KamereonAPIKey = "kamereon"
	return cfg
}

func issuePaths(issues []ValidationIssue) []string {
	paths := make([]string, 0, len(issues))
	for _, i := range issues {
		paths = append(paths, i.Path)
	}
	return paths
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_DefaultsNeedAPIKeys(t *testing.T) {
	cfg := Defaults()
	issues := Validate(&cfg)
	assert.Equal(t, []string{"renault.gigyaApiKey", "renault.kamereonApiKey"}, issuePaths(issues))
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()

	cfg.Webhook.Port = -1
	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "webhook.port", issues[0].Path)

	cfg.Webhook.Port = 70000
	assert.NotEmpty(t, Validate(&cfg))
}

func TestValidate_Binds(t *testing.T) {
	for _, bind := range []string{"auto", "lan", "loopback", "custom", ""} {
		cfg := validConfig()
		cfg.Webhook.Bind = bind
		assert.Empty(t, Validate(&cfg), "bind %q should be valid", bind)
	}

	cfg := validConfig()
	cfg.Webhook.Bind = "tailnet"
	assert.Equal(t, []string{"webhook.bind"}, issuePaths(Validate(&cfg)))
}

func TestValidate_WebhookAuth(t *testing.T) {
	tests := []struct {
		name string
		auth WebhookAuth
		want []string
	}{
		{"none", WebhookAuth{Mode: "none"}, nil},
		{"token ok", WebhookAuth{Mode: "token", Token: "t"}, nil},
		{"token missing", WebhookAuth{Mode: "token"}, []string{"webhook.auth.token"}},
		{"basic ok", WebhookAuth{Mode: "basic", Username: "u", Password: "p"}, nil},
		{"basic missing password", WebhookAuth{Mode: "basic", Username: "u"}, []string{"webhook.auth"}},
		{"unknown", WebhookAuth{Mode: "oauth"}, []string{"webhook.auth.mode"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Webhook.Auth = tt.auth
			issues := Validate(&cfg)
			if tt.want == nil {
				assert.Empty(t, issues)
				return
			}
			assert.Equal(t, tt.want, issuePaths(issues))
		})
	}
}

func TestValidate_TLSRequiresFiles(t *testing.T) {
	cfg := validConfig()
	cfg.Webhook.TLS.Enabled = true
	assert.Equal(t, []string{"webhook.tls"}, issuePaths(Validate(&cfg)))
}

func TestValidate_RenaultURLs(t *testing.T) {
	cfg := validConfig()
	cfg.Renault.KamereonURL = "not a url"
	assert.Equal(t, []string{"renault.kamereonUrl"}, issuePaths(Validate(&cfg)))
}

func TestValidate_Country(t *testing.T) {
	cfg := validConfig()
	cfg.Renault.Country = "SWE"
	assert.Equal(t, []string{"renault.country"}, issuePaths(Validate(&cfg)))
}

func TestValidate_Session(t *testing.T) {
	cfg := validConfig()
	cfg.Session.Store = "redis"
	cfg.Session.Identity = "device"
	cfg.Session.AwaitTurns = -1
	assert.Equal(t,
		[]string{"session.awaitTurns", "session.identity", "session.store"},
		issuePaths(Validate(&cfg)))
}

func TestValidate_MetricsPathCollision(t *testing.T) {
	cfg := validConfig()
	cfg.Metrics.Path = "/"
	assert.Equal(t, []string{"metrics.path"}, issuePaths(Validate(&cfg)))
}

func TestValidate_Hooks(t *testing.T) {
	cfg := validConfig()
	cfg.Hooks.TurnFailed = []HookEntry{{Command: " "}, {Command: "true", Timeout: -5}}
	assert.Equal(t,
		[]string{"hooks.turnFailed[0].command", "hooks.turnFailed[1].timeout"},
		issuePaths(Validate(&cfg)))
}

func TestValidationIssueString(t *testing.T) {
	issue := ValidationIssue{Path: "webhook.port", Message: "bad"}
	assert.Equal(t, "webhook.port: bad", issue.String())
}

func TestHookBindings(t *testing.T) {
	h := HooksConfig{ServerStart: []HookEntry{{Command: "echo up"}}}
	bindings := h.Bindings()
	require.Len(t, bindings, 7)

	var found bool
	for _, b := range bindings {
		if b.Event == "server_start" {
			found = true
			assert.Equal(t, "serverStart", b.Key)
			assert.Len(t, b.Entries, 1)
		}
	}
	assert.True(t, found)
}
