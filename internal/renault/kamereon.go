package renault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/soyeahso/zoebot/internal/domain"
)

const jsonAPIContentType = "application/vnd.api+json"

// connection is an authenticated domain.Connection.
type connection struct {
	client     *Client
	loginToken string
	jwt        oauth2.TokenSource

	mu            sync.Mutex
	accountTokens map[string]string
}

var _ domain.Connection = (*connection)(nil)

func (cn *connection) endpoint(path string) string {
	u := strings.TrimRight(cn.client.cfg.KamereonURL, "/") + path
	q := url.Values{"country": {cn.client.cfg.Country}}
	return u + "?" + q.Encode()
}

// kamereon performs a Kamereon call. accountID selects the account token
// sent in x-kamereon-authorization, when one has been obtained.
func (cn *connection) kamereon(ctx context.Context, method, path, accountID string, payload, out any) error {
	tok, err := cn.jwt.Token()
	if err != nil {
		return err
	}

	h := http.Header{}
	h.Set("apikey", cn.client.cfg.KamereonAPIKey)
	h.Set("x-gigya-id_token", tok.AccessToken)
	if accountID != "" {
		cn.mu.Lock()
		at := cn.accountTokens[accountID]
		cn.mu.Unlock()
		if at != "" {
			h.Set("x-kamereon-authorization", "Bearer "+at)
		}
	}

	r := request{method: method, url: cn.endpoint(path), header: h, decoded: out}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		r.body = bytes.NewReader(body)
		r.ctype = jsonAPIContentType
	}
	return cn.client.do(ctx, r)
}

// Person resolves the Gigya person id and fetches its Kamereon accounts.
func (cn *connection) Person(ctx context.Context) (domain.Person, error) {
	personID, err := cn.client.fetchPersonID(ctx, cn.loginToken)
	if err != nil {
		return domain.Person{}, err
	}

	var p domain.Person
	if err := cn.kamereon(ctx, http.MethodGet, "/commerce/v1/persons/"+url.PathEscape(personID), "", nil, &p); err != nil {
		return domain.Person{}, fmt.Errorf("fetching person: %w", err)
	}
	if p.ID == "" {
		p.ID = personID
	}
	return p, nil
}

type accountTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// RefreshAccount fetches the Kamereon token for accountID and keeps it for
// later calls on this connection.
func (cn *connection) RefreshAccount(ctx context.Context, accountID string) error {
	var resp accountTokenResponse
	path := "/commerce/v1/accounts/" + url.PathEscape(accountID) + "/kamereon/token"
	if err := cn.kamereon(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return fmt.Errorf("refreshing account token: %w", err)
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("refreshing account token: empty accessToken")
	}

	cn.mu.Lock()
	cn.accountTokens[accountID] = resp.AccessToken
	cn.mu.Unlock()
	return nil
}

type vehiclesResponse struct {
	AccountID    string               `json:"accountId"`
	VehicleLinks []domain.VehicleLink `json:"vehicleLinks"`
}

// Vehicles lists the vehicles linked to accountID.
func (cn *connection) Vehicles(ctx context.Context, accountID string) ([]domain.VehicleLink, error) {
	var resp vehiclesResponse
	path := "/commerce/v1/accounts/" + url.PathEscape(accountID) + "/vehicles"
	if err := cn.kamereon(ctx, http.MethodGet, path, accountID, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}
	return resp.VehicleLinks, nil
}

// Vehicle returns a handle for vin under accountID.
func (cn *connection) Vehicle(accountID, vin string) domain.Vehicle {
	return &vehicle{conn: cn, accountID: accountID, vin: vin}
}

// vehicle is a domain.Vehicle on the car-adapter endpoints.
type vehicle struct {
	conn      *connection
	accountID string
	vin       string
}

var _ domain.Vehicle = (*vehicle)(nil)

// dataEnvelope is the JSON:API wrapper Kamereon puts around car data.
type dataEnvelope[T any] struct {
	Data struct {
		Type       string `json:"type,omitempty"`
		ID         string `json:"id,omitempty"`
		Attributes T      `json:"attributes"`
	} `json:"data"`
}

func (v *vehicle) VIN() string { return v.vin }

func (v *vehicle) carPath(suffix string) string {
	return "/commerce/v1/accounts/kmr/remote-services/car-adapter/v1/cars/" + url.PathEscape(v.vin) + "/" + suffix
}

func fetchAttributes[T any](ctx context.Context, v *vehicle, suffix string) (T, error) {
	var env dataEnvelope[T]
	if err := v.conn.kamereon(ctx, http.MethodGet, v.carPath(suffix), v.accountID, nil, &env); err != nil {
		var zero T
		return zero, fmt.Errorf("fetching %s: %w", suffix, err)
	}
	return env.Data.Attributes, nil
}

func (v *vehicle) BatteryStatus(ctx context.Context) (domain.BatteryStatus, error) {
	return fetchAttributes[domain.BatteryStatus](ctx, v, "battery-status")
}

func (v *vehicle) HVACStatus(ctx context.Context) (domain.HVACStatus, error) {
	return fetchAttributes[domain.HVACStatus](ctx, v, "hvac-status")
}

func (v *vehicle) Cockpit(ctx context.Context) (domain.Cockpit, error) {
	return fetchAttributes[domain.Cockpit](ctx, v, "cockpit")
}

type hvacStartAttributes struct {
	Action            string  `json:"action"`
	TargetTemperature float64 `json:"targetTemperature"`
}

// StartPreconditioning asks the car to heat or cool its cabin.
func (v *vehicle) StartPreconditioning(ctx context.Context, targetTemperature float64) error {
	var body dataEnvelope[hvacStartAttributes]
	body.Data.Type = "HvacStart"
	body.Data.Attributes = hvacStartAttributes{Action: "start", TargetTemperature: targetTemperature}

	if err := v.conn.kamereon(ctx, http.MethodPost, v.carPath("actions/hvac-start"), v.accountID, body, nil); err != nil {
		return fmt.Errorf("starting preconditioning: %w", err)
	}
	return nil
}
