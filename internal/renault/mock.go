package renault

import (
	"context"
	"errors"
	"sync"

	"github.com/soyeahso/zoebot/internal/domain"
)

// ErrMockUnauthorized is returned by MockConnector for an unknown token.
var ErrMockUnauthorized = errors.New("mock: unauthorized login token")

// MockConnector is an in-memory domain.Connector for tests. Zero-value
// error fields mean success. Every vendor call is recorded.
type MockConnector struct {
	// ValidToken, when set, is the only token Authenticate accepts.
	ValidToken string

	Person   domain.Person
	Vehicles map[string][]domain.VehicleLink // accountID → links
	Battery  domain.BatteryStatus
	HVAC     domain.HVACStatus
	Cockpit  domain.Cockpit

	AuthErr         error
	PersonErr       error
	RefreshErr      error
	VehiclesErr     error
	BatteryErr      error
	HVACErr         error
	CockpitErr      error
	PreconditionErr error

	mu             sync.Mutex
	calls          []string
	preconditioned []float64
}

var _ domain.Connector = (*MockConnector)(nil)

// NewMockConnector returns a connector with one account "acc-1" owning the
// vehicle vin, reachable with token.
func NewMockConnector(token, vin string) *MockConnector {
	return &MockConnector{
		ValidToken: token,
		Person:     domain.Person{ID: "person-1", Accounts: []domain.Account{{AccountID: "acc-1"}}},
		Vehicles:   map[string][]domain.VehicleLink{"acc-1": {{VIN: vin}}},
	}
}

func (m *MockConnector) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls returns the recorded vendor calls in order.
func (m *MockConnector) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Preconditioned returns the target temperatures sent to StartPreconditioning.
func (m *MockConnector) Preconditioned() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.preconditioned...)
}

func (m *MockConnector) Authenticate(_ context.Context, loginToken string) (domain.Connection, error) {
	m.record("authenticate")
	if m.AuthErr != nil {
		return nil, m.AuthErr
	}
	if m.ValidToken != "" && loginToken != m.ValidToken {
		return nil, ErrMockUnauthorized
	}
	return &mockConnection{m: m}, nil
}

type mockConnection struct {
	m *MockConnector
}

func (c *mockConnection) Person(context.Context) (domain.Person, error) {
	c.m.record("person")
	return c.m.Person, c.m.PersonErr
}

func (c *mockConnection) RefreshAccount(_ context.Context, accountID string) error {
	c.m.record("refresh:" + accountID)
	return c.m.RefreshErr
}

func (c *mockConnection) Vehicles(_ context.Context, accountID string) ([]domain.VehicleLink, error) {
	c.m.record("vehicles:" + accountID)
	if c.m.VehiclesErr != nil {
		return nil, c.m.VehiclesErr
	}
	return c.m.Vehicles[accountID], nil
}

func (c *mockConnection) Vehicle(accountID, vin string) domain.Vehicle {
	return &mockVehicle{m: c.m, vin: vin}
}

type mockVehicle struct {
	m   *MockConnector
	vin string
}

func (v *mockVehicle) VIN() string { return v.vin }

func (v *mockVehicle) BatteryStatus(context.Context) (domain.BatteryStatus, error) {
	v.m.record("battery-status:" + v.vin)
	return v.m.Battery, v.m.BatteryErr
}

func (v *mockVehicle) HVACStatus(context.Context) (domain.HVACStatus, error) {
	v.m.record("hvac-status:" + v.vin)
	return v.m.HVAC, v.m.HVACErr
}

func (v *mockVehicle) Cockpit(context.Context) (domain.Cockpit, error) {
	v.m.record("cockpit:" + v.vin)
	return v.m.Cockpit, v.m.CockpitErr
}

func (v *mockVehicle) StartPreconditioning(_ context.Context, targetTemperature float64) error {
	v.m.record("hvac-start:" + v.vin)
	if v.m.PreconditionErr != nil {
		return v.m.PreconditionErr
	}
	v.m.mu.Lock()
	v.m.preconditioned = append(v.m.preconditioned, targetTemperature)
	v.m.mu.Unlock()
	return nil
}
