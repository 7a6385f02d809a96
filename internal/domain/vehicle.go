package domain

import "context"

// Person is the Renault identity behind a login token.
type Person struct {
	ID       string    `json:"personId"`
	Accounts []Account `json:"accounts"`
}

// Account is a Kamereon account owned by a person.
type Account struct {
	AccountID     string `json:"accountId"`
	AccountType   string `json:"accountType,omitempty"`
	AccountStatus string `json:"accountStatus,omitempty"`
}

// VehicleLink ties a vehicle to an account.
type VehicleLink struct {
	VIN    string `json:"vin"`
	Brand  string `json:"brand,omitempty"`
	Status string `json:"status,omitempty"`
}

// BatteryStatus is a live battery snapshot.
type BatteryStatus struct {
	BatteryLevel           float64 `json:"batteryLevel"`
	ChargeStatus           int     `json:"chargeStatus"`
	InstantaneousPower     float64 `json:"instantaneousPower"`
	RangeHvacOff           float64 `json:"rangeHvacOff"`
	TimeRequiredToFullSlow *int    `json:"timeRequiredToFullSlow,omitempty"`
	PlugStatus             int     `json:"plugStatus"`
	LastUpdateTime         string  `json:"lastUpdateTime,omitempty"`
}

// Charging reports whether the vehicle is currently taking charge.
func (b BatteryStatus) Charging() bool {
	return b.ChargeStatus == 1
}

// HVACStatus is a live climate snapshot.
type HVACStatus struct {
	ExternalTemperature float64 `json:"externalTemperature"`
	HVACStatus          string  `json:"hvacStatus,omitempty"`
}

// Cockpit holds odometer data. TotalMileage is in kilometres.
type Cockpit struct {
	TotalMileage float64 `json:"totalMileage"`
}

// Connector opens authenticated sessions against the vendor identity provider.
type Connector interface {
	// Authenticate exchanges a raw login token for a connection.
	Authenticate(ctx context.Context, loginToken string) (Connection, error)
}

// Connection is an authenticated vendor session.
type Connection interface {
	// Person fetches the identity and its accounts.
	Person(ctx context.Context) (Person, error)

	// RefreshAccount obtains the per-account token needed for vehicle calls.
	RefreshAccount(ctx context.Context, accountID string) error

	// Vehicles lists the vehicles linked to an account.
	Vehicles(ctx context.Context, accountID string) ([]VehicleLink, error)

	// Vehicle returns a handle for one vehicle. No network call is made.
	Vehicle(accountID, vin string) Vehicle
}

// Vehicle exposes the telematics operations of one car.
type Vehicle interface {
	VIN() string
	BatteryStatus(ctx context.Context) (BatteryStatus, error)
	HVACStatus(ctx context.Context) (HVACStatus, error)
	Cockpit(ctx context.Context) (Cockpit, error)
	StartPreconditioning(ctx context.Context, targetTemperature float64) error
}
