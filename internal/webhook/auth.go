package webhook

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/soyeahso/zoebot/internal/config"
)

// AuthResult is the outcome of an authentication attempt.
type AuthResult struct {
	OK     bool   `json:"ok"`
	Method string `json:"method,omitempty"` // "none" | "token" | "basic"
	Reason string `json:"reason,omitempty"`
}

// ResolvedAuth holds the resolved webhook auth configuration.
type ResolvedAuth struct {
	Mode     string
	Token    string
	Username string
	Password string
}

// ResolveAuth resolves credentials from config and environment.
// Precedence: config value → env variable → empty.
func ResolveAuth(cfg config.WebhookAuth) ResolvedAuth {
	auth := ResolvedAuth{
		Mode:     cfg.Mode,
		Token:    cfg.Token,
		Username: cfg.Username,
		Password: cfg.Password,
	}

	if auth.Token == "" {
		auth.Token = os.Getenv("ZOEBOT_WEBHOOK_TOKEN")
	}
	if auth.Password == "" {
		auth.Password = os.Getenv("ZOEBOT_WEBHOOK_PASSWORD")
	}

	if auth.Mode == "" {
		switch {
		case auth.Token != "":
			auth.Mode = "token"
		case auth.Password != "":
			auth.Mode = "basic"
		default:
			auth.Mode = "none"
		}
	}

	return auth
}

// Authorize checks the request's credentials against the resolved auth.
// Dialogflow sends whatever headers the agent's fulfillment settings
// configure, so a bearer token or basic auth both work.
func Authorize(serverAuth ResolvedAuth, r *http.Request) AuthResult {
	switch serverAuth.Mode {
	case "none":
		return AuthResult{OK: true, Method: "none"}

	case "token":
		if serverAuth.Token == "" {
			return AuthResult{OK: false, Reason: "server token not configured"}
		}
		token, ok := bearerToken(r)
		if !ok {
			return AuthResult{OK: false, Reason: "token required"}
		}
		if !safeEqual(token, serverAuth.Token) {
			return AuthResult{OK: false, Reason: "token_mismatch"}
		}
		return AuthResult{OK: true, Method: "token"}

	case "basic":
		if serverAuth.Password == "" {
			return AuthResult{OK: false, Reason: "server password not configured"}
		}
		user, pass, ok := r.BasicAuth()
		if !ok {
			return AuthResult{OK: false, Reason: "credentials required"}
		}
		// Compare both before branching.
		userOK := safeEqual(user, serverAuth.Username)
		passOK := safeEqual(pass, serverAuth.Password)
		if !userOK || !passOK {
			return AuthResult{OK: false, Reason: "credentials_mismatch"}
		}
		return AuthResult{OK: true, Method: "basic"}

	default:
		return AuthResult{OK: false, Reason: "unknown auth mode: " + serverAuth.Mode}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// safeEqual performs a constant-time string comparison.
// It avoids early-return on length mismatch to not leak the secret length.
func safeEqual(a, b string) bool {
	lenMatch := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	cmp := subtle.ConstantTimeCompare([]byte(a), []byte(b))
	return subtle.ConstantTimeSelect(lenMatch, cmp, 0) == 1
}
