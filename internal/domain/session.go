package domain

import (
	"errors"
	"time"
)

// ErrInvalidCredentials is returned when a credential triple breaks the
// account/vehicle pairing rule.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is the per-identity record carried across conversational turns.
// It holds the Renault login token and the selected account and vehicle.
type Session struct {
	Identity    string         `json:"identity"`
	LoginToken  string         `json:"-"`
	AccountID   string         `json:"accountId,omitempty"`
	VIN         string         `json:"vin,omitempty"`
	Bootstrap   BootstrapState `json:"bootstrap"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	CommittedAt *time.Time     `json:"committedAt,omitempty"`
}

// HasToken reports whether a login token has been stored.
func (s *Session) HasToken() bool {
	return s != nil && s.LoginToken != ""
}

// HasVehicle reports whether both account and vehicle are selected.
func (s *Session) HasVehicle() bool {
	return s != nil && s.AccountID != "" && s.VIN != ""
}

// Credentials returns the stored credential triple.
func (s *Session) Credentials() Credentials {
	return Credentials{LoginToken: s.LoginToken, AccountID: s.AccountID, VIN: s.VIN}
}

// Apply copies a committed credential triple onto the session.
func (s *Session) Apply(creds Credentials, at time.Time) {
	s.LoginToken = creds.LoginToken
	s.AccountID = creds.AccountID
	s.VIN = creds.VIN
	s.Bootstrap.Commit()
	committed := at
	s.CommittedAt = &committed
	s.UpdatedAt = at
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	if s.CommittedAt != nil {
		t := *s.CommittedAt
		c.CommittedAt = &t
	}
	return &c
}

// Credentials is the triple written in one step by the bootstrap commit.
type Credentials struct {
	LoginToken string
	AccountID  string
	VIN        string
}

// Valid checks that a token is present and that account and vehicle are
// either both set or both empty.
func (c Credentials) Valid() error {
	if c.LoginToken == "" {
		return errors.Join(ErrInvalidCredentials, errors.New("login token is empty"))
	}
	if (c.AccountID == "") != (c.VIN == "") {
		return errors.Join(ErrInvalidCredentials, errors.New("account id and vin must be set together"))
	}
	return nil
}

// ErrSessionNotFound is returned by lookups for an identity with no record.
var ErrSessionNotFound = errors.New("session not found")
