package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/soyeahso/zoebot/internal/domain"
	"github.com/soyeahso/zoebot/internal/logging"
)

var (
	// ErrBootstrapRequired means the session holds no login token yet.
	ErrBootstrapRequired = errors.New("login token missing")

	// ErrNoAccount means the person behind a token has no accounts.
	ErrNoAccount = errors.New("no account found for login token")

	// ErrNoVehicle means the selected account has no linked vehicles.
	ErrNoVehicle = errors.New("no vehicle linked to account")
)

// Handle is a resolved, authenticated vehicle for one turn.
type Handle struct {
	Vehicle   domain.Vehicle
	AccountID string
	VIN       string

	// Derived is true when account and vehicle were discovered from the
	// token instead of read from the session.
	Derived bool
}

// Resolver turns a session into a live vehicle handle.
type Resolver struct {
	connector domain.Connector
	log       *logging.Logger
}

// NewResolver creates a Resolver.
func NewResolver(connector domain.Connector, log *logging.Logger) *Resolver {
	return &Resolver{connector: connector, log: log.Sub("resolver")}
}

// Resolve authenticates the session's login token and selects its vehicle.
// It returns ErrBootstrapRequired when the session has no token. A session
// with a token but no stored vehicle is resolved by discovery; the result
// is not written back.
func (r *Resolver) Resolve(ctx context.Context, sess *domain.Session) (*Handle, error) {
	if !sess.HasToken() {
		return nil, ErrBootstrapRequired
	}

	conn, err := r.connector.Authenticate(ctx, sess.LoginToken)
	if err != nil {
		return nil, fmt.Errorf("resolving vehicle: %w", err)
	}

	if !sess.HasVehicle() {
		accountID, vin, err := discover(ctx, conn)
		if err != nil {
			return nil, fmt.Errorf("resolving vehicle: %w", err)
		}
		r.log.Debug().Str("identity", sess.Identity).Str("vin", vin).Msg("vehicle derived from token")
		return &Handle{Vehicle: conn.Vehicle(accountID, vin), AccountID: accountID, VIN: vin, Derived: true}, nil
	}

	if err := conn.RefreshAccount(ctx, sess.AccountID); err != nil {
		return nil, fmt.Errorf("resolving vehicle: %w", err)
	}
	return &Handle{
		Vehicle:   conn.Vehicle(sess.AccountID, sess.VIN),
		AccountID: sess.AccountID,
		VIN:       sess.VIN,
	}, nil
}

// discover selects the first account of the person and the first vehicle
// linked to it. The account token is refreshed on the way.
func discover(ctx context.Context, conn domain.Connection) (accountID, vin string, err error) {
	person, err := conn.Person(ctx)
	if err != nil {
		return "", "", err
	}
	if len(person.Accounts) == 0 || person.Accounts[0].AccountID == "" {
		return "", "", ErrNoAccount
	}
	accountID = person.Accounts[0].AccountID

	if err := conn.RefreshAccount(ctx, accountID); err != nil {
		return "", "", err
	}

	links, err := conn.Vehicles(ctx, accountID)
	if err != nil {
		return "", "", err
	}
	if len(links) == 0 || links[0].VIN == "" {
		return "", "", ErrNoVehicle
	}
	return accountID, links[0].VIN, nil
}
