package domain

import (
	"errors"
	"time"
)

// Intent is the name the assistant platform assigned to a user utterance.
type Intent string

const (
	IntentProvideToken   Intent = "provide-token"
	IntentBatteryStatus  Intent = "battery-status"
	IntentBatteryRange   Intent = "battery-range"
	IntentChargeTimeLeft Intent = "charge-time-left"
	IntentTemperature    Intent = "temperature"
	IntentChargeStatus   Intent = "charge-status"
	IntentMileage        Intent = "mileage"
	IntentStartHVAC      Intent = "start-hvac"
)

// Intents lists every intent the router serves, in registration order.
func Intents() []Intent {
	return []Intent{
		IntentProvideToken,
		IntentBatteryStatus,
		IntentBatteryRange,
		IntentChargeTimeLeft,
		IntentTemperature,
		IntentChargeStatus,
		IntentMileage,
		IntentStartHVAC,
	}
}

// Turn is one inbound conversational exchange.
type Turn struct {
	ID          string    `json:"id"`
	Identity    string    `json:"identity"`
	SessionPath string    `json:"sessionPath,omitempty"`
	Intent      Intent    `json:"intent"`
	Query       string    `json:"query,omitempty"`
	Params      Params    `json:"-"`
	Timestamp   time.Time `json:"timestamp"`
}

// ErrInvalidParams is returned when a turn's parameters do not match what
// its intent requires.
var ErrInvalidParams = errors.New("invalid parameters")

// Params carries the validated parameters of a turn. Exactly one variant
// applies per intent.
type Params interface {
	params()
}

// NoParams is used by intents that take no parameters.
type NoParams struct{}

// ProvideTokenParams carries the raw login token the user dictated.
type ProvideTokenParams struct {
	Token string
}

// StartHVACParams carries an optional target temperature in degrees Celsius.
type StartHVACParams struct {
	Temperature *float64
}

func (NoParams) params()           {}
func (ProvideTokenParams) params() {}
func (StartHVACParams) params()    {}
