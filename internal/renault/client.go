// Package renault talks to the Renault identity provider (Gigya) and the
// Kamereon telematics API on behalf of one login token.
package renault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/soyeahso/zoebot/internal/config"
	"github.com/soyeahso/zoebot/internal/domain"
	"github.com/soyeahso/zoebot/internal/logging"
	"github.com/soyeahso/zoebot/internal/version"
)

// maxErrorBody caps how much of a failed response body is kept on APIError.
const maxErrorBody = 512

// APIError is returned for any non-2xx response from Gigya or Kamereon.
type APIError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("renault: %s %s returned %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// Client is a domain.Connector backed by the public Renault endpoints.
type Client struct {
	cfg  config.RenaultConfig
	http *http.Client
	log  *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its timeout is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

var _ domain.Connector = (*Client)(nil)

// New creates a Client. All requests share one http.Client whose timeout
// comes from cfg.
func New(cfg config.RenaultConfig, log *logging.Logger, opts ...Option) *Client {
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout()},
		log:  log.Sub("renault"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate exchanges a login token for a Gigya JWT and returns a
// connection that presents it on every Kamereon call.
func (c *Client) Authenticate(ctx context.Context, loginToken string) (domain.Connection, error) {
	if strings.TrimSpace(loginToken) == "" {
		return nil, fmt.Errorf("renault: empty login token")
	}

	src := newJWTSource(ctx, c, loginToken)
	if _, err := src.Token(); err != nil {
		return nil, err
	}

	c.log.Debug().Msg("gigya jwt obtained")
	return &connection{
		client:        c,
		loginToken:    loginToken,
		jwt:           src,
		accountTokens: make(map[string]string),
	}, nil
}

// request is one outbound HTTP call.
type request struct {
	method  string
	url     string
	header  http.Header
	body    io.Reader
	ctype   string
	decoded any
}

func (c *Client) do(ctx context.Context, r request) error {
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, r.body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.ctype != "" {
		req.Header.Set("Content-Type", r.ctype)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, redact(r.url), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	c.log.Trace().
		Str("method", r.method).
		Str("url", redact(r.url)).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("vendor call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b := string(body)
		if len(b) > maxErrorBody {
			b = b[:maxErrorBody]
		}
		return &APIError{Method: r.method, URL: redact(r.url), Status: resp.StatusCode, Body: b}
	}

	if r.decoded == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, r.decoded); err != nil {
		return fmt.Errorf("decoding %s response: %w", redact(r.url), err)
	}
	return nil
}

// redact strips the query string, which may carry keys or tokens.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	return u.String()
}
