package routing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/soyeahso/zoebot/internal/domain"
)

var (
	// ErrUnknownIntent is returned for an intent name with no handler.
	ErrUnknownIntent = errors.New("unknown intent")

	// ErrInvalidParams is domain.ErrInvalidParams, so handler-side
	// mismatches map to the same status.
	ErrInvalidParams = domain.ErrInvalidParams
)

// tokenKeys are the parameter names a provide-token turn may carry the
// dictated token under, in order of preference.
var tokenKeys = []string{"any", "token", "loginToken"}

// ParseParams validates the raw parameter map of an intent and returns
// its typed variant.
func ParseParams(intent domain.Intent, raw map[string]any) (domain.Params, error) {
	switch intent {
	case domain.IntentProvideToken:
		for _, k := range tokenKeys {
			if s, ok := raw[k].(string); ok && strings.TrimSpace(s) != "" {
				return domain.ProvideTokenParams{Token: strings.TrimSpace(s)}, nil
			}
		}
		return nil, fmt.Errorf("%w: %s requires a non-empty token", ErrInvalidParams, intent)

	case domain.IntentStartHVAC:
		temp, err := parseTemperature(raw["temperature"])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParams, intent, err)
		}
		return domain.StartHVACParams{Temperature: temp}, nil

	case domain.IntentBatteryStatus, domain.IntentBatteryRange, domain.IntentChargeTimeLeft,
		domain.IntentTemperature, domain.IntentChargeStatus, domain.IntentMileage:
		return domain.NoParams{}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, intent)
	}
}

// parseTemperature accepts the shapes assistant platforms send for a
// temperature slot: absent or empty, a bare number or numeric string, or
// an object with an "amount" field.
func parseTemperature(v any) (*float64, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		s := strings.TrimSpace(strings.Replace(t, ",", ".", 1))
		if s == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("temperature %q is not a number", t)
		}
		return finite(f)
	case float64:
		return finite(t)
	case int:
		return finite(float64(t))
	case map[string]any:
		if len(t) == 0 {
			return nil, nil
		}
		amount, ok := t["amount"]
		if !ok {
			return nil, nil
		}
		return parseTemperature(amount)
	default:
		return nil, fmt.Errorf("temperature has unsupported type %T", v)
	}
}

func finite(f float64) (*float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("temperature must be finite")
	}
	return &f, nil
}
