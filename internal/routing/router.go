// Package routing maps an inbound turn to exactly one intent handler and
// carries the per-turn session bookkeeping around it.
package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/zoebot/internal/auth"
	"github.com/soyeahso/zoebot/internal/commands"
	"github.com/soyeahso/zoebot/internal/domain"
	"github.com/soyeahso/zoebot/internal/hooks"
	"github.com/soyeahso/zoebot/internal/logging"
	"github.com/soyeahso/zoebot/internal/metrics"
)

// Router routes turns to intent handlers.
type Router struct {
	store   auth.SessionStore
	routes  map[domain.Intent]commands.Handler
	hooks   *hooks.Manager
	metrics metrics.Recorder
	log     *logging.Logger
	now     func() time.Time

	locks sync.Map // identity → *sync.Mutex
}

// Option configures a Router.
type Option func(*Router)

// WithHooks emits turn events on m.
func WithHooks(m *hooks.Manager) Option {
	return func(r *Router) { r.hooks = m }
}

// WithMetrics records turn outcomes on rec.
func WithMetrics(rec metrics.Recorder) Option {
	return func(r *Router) { r.metrics = rec }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// NewRouter creates a router with the fixed intent table.
func NewRouter(store auth.SessionStore, d *commands.Dispatcher, log *logging.Logger, opts ...Option) *Router {
	r := &Router{
		store: store,
		routes: map[domain.Intent]commands.Handler{
			domain.IntentProvideToken:   d.ProvideToken,
			domain.IntentBatteryStatus:  d.BatteryStatus,
			domain.IntentBatteryRange:   d.BatteryRange,
			domain.IntentChargeTimeLeft: d.ChargeTimeLeft,
			domain.IntentTemperature:    d.Temperature,
			domain.IntentChargeStatus:   d.ChargeStatus,
			domain.IntentMileage:        d.Mileage,
			domain.IntentStartHVAC:      d.StartHVAC,
		},
		metrics: metrics.Nop{},
		log:     log.Sub("routing"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handles reports whether intent has a handler.
func (r *Router) Handles(intent domain.Intent) bool {
	_, ok := r.routes[intent]
	return ok
}

// RouteParams validates raw parameters for the turn's intent and routes it.
func (r *Router) RouteParams(ctx context.Context, turn domain.Turn, raw map[string]any) (domain.Reply, error) {
	params, err := ParseParams(turn.Intent, raw)
	if err != nil {
		outcome := metrics.OutcomeInvalidParams
		if errors.Is(err, ErrUnknownIntent) {
			outcome = metrics.OutcomeUnknownIntent
		}
		r.metrics.RecordTurn(string(turn.Intent), outcome, 0)
		r.log.Warn().Err(err).Str("intent", string(turn.Intent)).Msg("turn rejected")
		return domain.Reply{}, err
	}
	turn.Params = params
	return r.Route(ctx, turn)
}

// Route handles one turn: it loads or creates the identity's session,
// ages any outstanding token prompt, and invokes the intent's handler.
// Turns for the same identity are handled one at a time.
func (r *Router) Route(ctx context.Context, turn domain.Turn) (domain.Reply, error) {
	start := r.now()
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = start
	}
	if turn.Params == nil {
		turn.Params = domain.NoParams{}
	}

	log := r.log.With("turn", turn.ID)

	handler, ok := r.routes[turn.Intent]
	if !ok {
		r.metrics.RecordTurn(string(turn.Intent), metrics.OutcomeUnknownIntent, 0)
		log.Warn().Str("intent", string(turn.Intent)).Msg("unknown intent")
		return domain.Reply{}, fmt.Errorf("%w: %q", ErrUnknownIntent, turn.Intent)
	}

	unlock := r.lock(turn.Identity)
	defer unlock()

	log.Info().
		Str("intent", string(turn.Intent)).
		Str("identity", turn.Identity).
		Msg("routing turn")

	r.hooks.EmitAsync(ctx, hooks.EventTurnReceived, map[string]any{
		"turnId":   turn.ID,
		"identity": turn.Identity,
		"intent":   string(turn.Intent),
		"query":    turn.Query,
	})

	reply, err := r.handle(ctx, turn, handler)
	elapsed := r.now().Sub(start)

	if err != nil {
		r.metrics.RecordTurn(string(turn.Intent), metrics.OutcomeError, elapsed)
		log.Error().Err(err).
			Str("intent", string(turn.Intent)).
			Dur("duration", elapsed).
			Msg("turn failed")
		r.hooks.EmitAsync(ctx, hooks.EventTurnFailed, map[string]any{
			"turnId":   turn.ID,
			"identity": turn.Identity,
			"intent":   string(turn.Intent),
			"error":    err.Error(),
		})
		return domain.Reply{}, err
	}

	outcome := metrics.OutcomeOK
	if prompted(reply) {
		outcome = metrics.OutcomeBootstrap
	}
	r.metrics.RecordTurn(string(turn.Intent), outcome, elapsed)

	log.Info().
		Str("intent", string(turn.Intent)).
		Str("outcome", outcome).
		Int("texts", len(reply.Texts)).
		Dur("duration", elapsed).
		Msg("reply ready")

	r.hooks.EmitAsync(ctx, hooks.EventReplySending, map[string]any{
		"turnId":   turn.ID,
		"identity": turn.Identity,
		"intent":   string(turn.Intent),
		"text":     reply.Text(),
	})
	return reply, nil
}

func (r *Router) handle(ctx context.Context, turn domain.Turn, handler commands.Handler) (domain.Reply, error) {
	sess, err := r.store.GetOrCreate(ctx, turn.Identity)
	if err != nil {
		return domain.Reply{}, fmt.Errorf("loading session: %w", err)
	}

	if sess.Bootstrap.Advance(r.now()) {
		if err := r.store.SaveBootstrap(ctx, sess.Identity, sess.Bootstrap); err != nil {
			return domain.Reply{}, fmt.Errorf("saving session: %w", err)
		}
	}

	return handler(ctx, turn, sess)
}

// lock serializes turns for one identity and returns the unlock func.
func (r *Router) lock(identity string) func() {
	v, _ := r.locks.LoadOrStore(identity, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// prompted reports whether the reply opens a token prompt.
func prompted(reply domain.Reply) bool {
	for _, c := range reply.Contexts {
		if c.Name == auth.AwaitingTokenContext && c.Lifespan > 0 {
			return true
		}
	}
	return false
}
