// Package commands implements one handler per assistant intent. Each
// handler resolves the session's vehicle, performs a single telematics
// operation and phrases the result in Swedish.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/soyeahso/zoebot/internal/auth"
	"github.com/soyeahso/zoebot/internal/domain"
	"github.com/soyeahso/zoebot/internal/logging"
)

// Handler serves one intent.
type Handler func(ctx context.Context, turn domain.Turn, sess *domain.Session) (domain.Reply, error)

// VehicleResolver resolves a session to a live vehicle.
type VehicleResolver interface {
	Resolve(ctx context.Context, sess *domain.Session) (*auth.Handle, error)
}

// Onboarding runs the login-token bootstrap.
type Onboarding interface {
	Begin(ctx context.Context, sess *domain.Session) (domain.Reply, error)
	Provide(ctx context.Context, sess *domain.Session, token string) (domain.Reply, error)
}

// Dispatcher holds the intent handlers.
type Dispatcher struct {
	resolver  VehicleResolver
	bootstrap Onboarding
	log       *logging.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(resolver VehicleResolver, bootstrap Onboarding, log *logging.Logger) *Dispatcher {
	return &Dispatcher{resolver: resolver, bootstrap: bootstrap, log: log.Sub("commands")}
}

// withVehicle resolves the session's vehicle and runs fn on it. A session
// without a token gets only the bootstrap prompt and no telematics call is
// made.
func (d *Dispatcher) withVehicle(ctx context.Context, sess *domain.Session, fn func(v domain.Vehicle, r *domain.Reply) error) (domain.Reply, error) {
	h, err := d.resolver.Resolve(ctx, sess)
	if errors.Is(err, auth.ErrBootstrapRequired) {
		return d.bootstrap.Begin(ctx, sess)
	}
	if err != nil {
		return domain.Reply{}, err
	}

	var reply domain.Reply
	if err := fn(h.Vehicle, &reply); err != nil {
		return domain.Reply{}, err
	}
	return reply, nil
}

// ProvideToken stores the dictated login token.
func (d *Dispatcher) ProvideToken(ctx context.Context, turn domain.Turn, sess *domain.Session) (domain.Reply, error) {
	p, ok := turn.Params.(domain.ProvideTokenParams)
	if !ok {
		return domain.Reply{}, fmt.Errorf("%w: %s takes a token, got %T", domain.ErrInvalidParams, turn.Intent, turn.Params)
	}
	return d.bootstrap.Provide(ctx, sess, p.Token)
}

// BatteryStatus reports the state of charge. Vendor failures produce an
// empty reply rather than an error.
func (d *Dispatcher) BatteryStatus(ctx context.Context, turn domain.Turn, sess *domain.Session) (domain.Reply, error) {
	reply, err := d.withVehicle(ctx, sess, func(v domain.Vehicle, r *domain.Reply) error {
		bs, err := v.BatteryStatus(ctx)
		if err != nil {
			return err
		}
		if bs.BatteryLevel == 100 {
			r.Add("Mitt batteri är fulladdat så det är bara ut och köra.")
		} else {
			r.Add("Jag har cirka " + number(bs.BatteryLevel) + "% batteri kvar.")
		}
		return nil
	})
	if err != nil {
		d.log.Warn().Err(err).Str("turn", turn.ID).Msg("battery status unavailable")
		return domain.Reply{}, nil
	}
	return reply, nil
}

// BatteryRange reports the estimated range with climate control off.
func (d *Dispatcher) BatteryRange(ctx context.Context, _ domain.Turn, sess *domain.Session) (domain.Reply, error) {
	return d.withVehicle(ctx, sess, func(v domain.Vehicle, r *domain.Reply) error {
		bs, err := v.BatteryStatus(ctx)
		if err != nil {
			return err
		}
		r.Add("Du borde komma ungefär " + number(bs.RangeHvacOff) + " kilometer.")
		return nil
	})
}

// ChargeTimeLeft reports the time to a full battery on slow charging.
func (d *Dispatcher) ChargeTimeLeft(ctx context.Context, _ domain.Turn, sess *domain.Session) (domain.Reply, error) {
	return d.withVehicle(ctx, sess, func(v domain.Vehicle, r *domain.Reply) error {
		bs, err := v.BatteryStatus(ctx)
		if err != nil {
			return err
		}
		r.Add(chargeTimeText(bs.TimeRequiredToFullSlow))
		return nil
	})
}

// Temperature reports the outside temperature.
func (d *Dispatcher) Temperature(ctx context.Context, _ domain.Turn, sess *domain.Session) (domain.Reply, error) {
	return d.withVehicle(ctx, sess, func(v domain.Vehicle, r *domain.Reply) error {
		hs, err := v.HVACStatus(ctx)
		if err != nil {
			return err
		}
		r.Add("Det är " + number(hs.ExternalTemperature) + " grader ute just nu.")
		return nil
	})
}

// ChargeStatus reports whether the car is charging and at what power.
func (d *Dispatcher) ChargeStatus(ctx context.Context, _ domain.Turn, sess *domain.Session) (domain.Reply, error) {
	return d.withVehicle(ctx, sess, func(v domain.Vehicle, r *domain.Reply) error {
		bs, err := v.BatteryStatus(ctx)
		if err != nil {
			return err
		}
		if bs.Charging() {
			r.Add("Batteriet laddas just nu till en effekt av " + kilowatts(bs.InstantaneousPower) + " kilowatt.")
		} else {
			r.Add("Batteriet laddas inte just nu.")
		}
		return nil
	})
}

// Mileage reports the odometer in Swedish mil.
func (d *Dispatcher) Mileage(ctx context.Context, _ domain.Turn, sess *domain.Session) (domain.Reply, error) {
	return d.withVehicle(ctx, sess, func(v domain.Vehicle, r *domain.Reply) error {
		cp, err := v.Cockpit(ctx)
		if err != nil {
			return err
		}
		r.Add("Jag har totalt rullat " + mil(cp.TotalMileage) + " mil.")
		return nil
	})
}

// StartHVAC starts cabin preconditioning. Once the vehicle is resolved the
// confirmation is added before the car is contacted; a later failure is
// returned as is.
func (d *Dispatcher) StartHVAC(ctx context.Context, turn domain.Turn, sess *domain.Session) (domain.Reply, error) {
	mode := classifyClimate(turn.Query)
	target := mode.defaultTemperature()
	if p, ok := turn.Params.(domain.StartHVACParams); ok && p.Temperature != nil {
		target = *p.Temperature
	}

	return d.withVehicle(ctx, sess, func(v domain.Vehicle, r *domain.Reply) error {
		r.Add(mode.confirmation(target))
		return v.StartPreconditioning(ctx, target)
	})
}
