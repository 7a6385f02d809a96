package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/zoebot/internal/domain"
	"github.com/soyeahso/zoebot/internal/hooks"
	"github.com/soyeahso/zoebot/internal/logging"
	"github.com/soyeahso/zoebot/internal/metrics"
)

// AwaitingTokenContext is the platform context that lets the assistant
// match a bare token utterance to the provide-token intent.
const AwaitingTokenContext = "awaiting-token"

// Bootstrap defaults.
const (
	DefaultAwaitTurns   = 5
	DefaultAwaitTimeout = 10 * time.Minute
)

const (
	promptText    = "Vad är din loginToken?"
	committedText = "Tack nu har jag sparat detta! Din vin är %s."
)

// Bootstrap runs the onboarding flow that turns a dictated login token
// into stored credentials.
type Bootstrap struct {
	store     SessionStore
	connector domain.Connector
	hooks     *hooks.Manager
	metrics   metrics.Recorder
	log       *logging.Logger

	turns   int
	timeout time.Duration
	now     func() time.Time
}

// BootstrapOption configures a Bootstrap.
type BootstrapOption func(*Bootstrap)

// WithHooks emits bootstrap events on m.
func WithHooks(m *hooks.Manager) BootstrapOption {
	return func(b *Bootstrap) { b.hooks = m }
}

// WithMetrics records bootstrap outcomes on r.
func WithMetrics(r metrics.Recorder) BootstrapOption {
	return func(b *Bootstrap) { b.metrics = r }
}

// WithAwait sets how many turns and how long a token prompt stays open.
// Non-positive values keep the defaults.
func WithAwait(turns int, timeout time.Duration) BootstrapOption {
	return func(b *Bootstrap) {
		if turns > 0 {
			b.turns = turns
		}
		if timeout > 0 {
			b.timeout = timeout
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) BootstrapOption {
	return func(b *Bootstrap) { b.now = now }
}

// NewBootstrap creates the bootstrap flow.
func NewBootstrap(store SessionStore, connector domain.Connector, log *logging.Logger, opts ...BootstrapOption) *Bootstrap {
	b := &Bootstrap{
		store:     store,
		connector: connector,
		metrics:   metrics.Nop{},
		log:       log.Sub("bootstrap"),
		turns:     DefaultAwaitTurns,
		timeout:   DefaultAwaitTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Begin opens a token prompt for the session and returns the question.
func (b *Bootstrap) Begin(ctx context.Context, sess *domain.Session) (domain.Reply, error) {
	sess.Bootstrap.Await(b.turns, b.timeout, b.now())
	if err := b.store.SaveBootstrap(ctx, sess.Identity, sess.Bootstrap); err != nil {
		return domain.Reply{}, fmt.Errorf("opening token prompt: %w", err)
	}

	b.log.Info().Str("identity", sess.Identity).Msg("asking for login token")
	b.metrics.RecordBootstrap(metrics.BootstrapPrompted)
	b.hooks.EmitAsync(ctx, hooks.EventBootstrapStarted, map[string]any{
		"identity": sess.Identity,
	})

	var reply domain.Reply
	reply.Add(promptText)
	reply.SetContext(AwaitingTokenContext, b.turns)
	return reply, nil
}

// Provide authenticates the token, selects the first account and its first
// vehicle, and commits all three in one write. On any failure the session
// is left as it was.
//
// A token is only taken while a prompt is open or when the session is
// already committed, in which case it replaces the stored one. With no
// prompt open, or after it expired, the prompt is asked again and nothing
// is sent to the provider.
func (b *Bootstrap) Provide(ctx context.Context, sess *domain.Session, token string) (domain.Reply, error) {
	if !sess.Bootstrap.AcceptsToken() {
		b.log.Info().Str("identity", sess.Identity).Msg("token outside an open prompt")
		return b.Begin(ctx, sess)
	}

	token = strings.TrimSpace(token)

	creds, err := b.derive(ctx, token)
	if err != nil {
		b.metrics.RecordBootstrap(metrics.BootstrapFailed)
		b.log.Warn().Err(err).Str("identity", sess.Identity).Msg("bootstrap failed")
		return domain.Reply{}, fmt.Errorf("bootstrap: %w", err)
	}

	at := b.now()
	if err := b.store.Commit(ctx, sess.Identity, creds, at); err != nil {
		b.metrics.RecordBootstrap(metrics.BootstrapFailed)
		return domain.Reply{}, fmt.Errorf("bootstrap: %w", err)
	}
	sess.Apply(creds, at)

	b.log.Info().
		Str("identity", sess.Identity).
		Str("account", creds.AccountID).
		Str("vin", creds.VIN).
		Msg("credentials stored")
	b.metrics.RecordBootstrap(metrics.BootstrapCommitted)
	b.hooks.EmitAsync(ctx, hooks.EventBootstrapCommitted, map[string]any{
		"identity":  sess.Identity,
		"accountId": creds.AccountID,
		"vin":       creds.VIN,
	})

	var reply domain.Reply
	reply.Add(fmt.Sprintf(committedText, creds.VIN))
	reply.SetContext(AwaitingTokenContext, 0)
	return reply, nil
}

func (b *Bootstrap) derive(ctx context.Context, token string) (domain.Credentials, error) {
	if token == "" {
		return domain.Credentials{}, domain.ErrInvalidCredentials
	}

	conn, err := b.connector.Authenticate(ctx, token)
	if err != nil {
		return domain.Credentials{}, err
	}

	accountID, vin, err := discover(ctx, conn)
	if err != nil {
		return domain.Credentials{}, err
	}
	return domain.Credentials{LoginToken: token, AccountID: accountID, VIN: vin}, nil
}
