// Package routevision implements the RouteVision adapter: username/password
// session login returning a bare token, JSON payloads, and a vendor-enforced
// 31-day trip window.
package routevision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/driveloop/fleetlink/fleet"
	"github.com/driveloop/fleetlink/internal/convert"
	"github.com/driveloop/fleetlink/internal/transport"
	"github.com/driveloop/fleetlink/observe"
	"github.com/driveloop/fleetlink/tokencache"
)

const defaultBaseURL = "https://api.routevision.nl/v1"

type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      transport.RetryPolicy
	cache      tokencache.Cache
	sink       observe.Sink
	transport  *transport.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

func WithRetryPolicy(p transport.RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

func WithTokenCache(cache tokencache.Cache) Option {
	return func(c *Client) {
		if cache != nil {
			c.cache = cache
		}
	}
}

func WithSink(sink observe.Sink) Option {
	return func(c *Client) {
		if sink != nil {
			c.sink = sink
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		cache:   tokencache.NewMemory(),
		sink:    observe.NoopSink{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.transport = transport.New(fleet.ProviderRouteVision,
		transport.WithHTTPClient(c.httpClient),
		transport.WithRetryPolicy(c.retry),
		transport.WithSink(c.sink),
	)
	return c
}

func (c *Client) ProviderType() fleet.ProviderType { return fleet.ProviderRouteVision }

func (c *Client) Authenticate(ctx context.Context, creds fleet.Credentials) (string, error) {
	if err := fleet.CheckCredentials(creds, fleet.AuthCredentials); err != nil {
		return "", err
	}
	login, err := fleet.SessionLoginFrom(creds)
	if err != nil {
		return "", err
	}

	key := tokencache.Key(fleet.ProviderRouteVision, creds)
	if token, err := c.cache.Get(ctx, key); err == nil {
		c.emitAuth(ctx, true, nil)
		return token, nil
	}

	body, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/auth/login",
		Body: loginRequest{
			Username: login.Email,
			Password: login.Password,
		},
	})
	if err != nil {
		err = authError(err)
		c.emitAuth(ctx, false, err)
		return "", err
	}

	token := parseSessionToken(body)
	if token == "" {
		err := fmt.Errorf("%w: routevision returned an empty session token", fleet.ErrAuthenticationFailed)
		c.emitAuth(ctx, false, err)
		return "", err
	}

	_ = c.cache.Put(ctx, key, token)
	c.emitAuth(ctx, false, nil)
	return token, nil
}

func (c *Client) TestConnection(ctx context.Context, creds fleet.Credentials) fleet.ConnectionTestResult {
	return fleet.RunConnectionTest(ctx, c, creds)
}

func (c *Client) Vehicles(ctx context.Context, token string) ([]fleet.Vehicle, error) {
	var wire []rvVehicle
	err := c.transport.DoJSON(ctx, transport.Request{
		URL:    c.baseURL + "/vehicles",
		Bearer: token,
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.Vehicle, 0, len(wire))
	for _, v := range wire {
		if strings.TrimSpace(v.LicensePlate) == "" {
			continue
		}
		out = append(out, fleet.Vehicle{
			ID:           strconv.FormatInt(v.ID, 10),
			Registration: v.LicensePlate,
			Name:         v.Name,
			Brand:        v.Brand,
			Model:        v.Model,
			Active:       v.Active,
			Provider:     fleet.ProviderRouteVision,
		})
	}
	return out, nil
}

func (c *Client) Trips(ctx context.Context, token, vehicleID string, from, to time.Time) ([]fleet.Trip, error) {
	// RouteVision rejects windows over 31 days server-side; failing locally
	// keeps the error typed instead of a vendor 400.
	if err := fleet.ValidateTripWindow(from, to); err != nil {
		return nil, err
	}

	var wire []rvTrip
	err := c.transport.DoJSON(ctx, transport.Request{
		URL:    c.baseURL + "/vehicles/" + url.PathEscape(vehicleID) + "/trips",
		Bearer: token,
		Query: url.Values{
			"from": {from.UTC().Format(time.RFC3339)},
			"to":   {to.UTC().Format(time.RFC3339)},
		},
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.Trip, 0, len(wire))
	for _, t := range wire {
		trip := fleet.Trip{
			ID:               strconv.FormatInt(t.ID, 10),
			VehicleID:        vehicleID,
			Registration:     t.LicensePlate,
			DriverName:       t.Driver,
			DepartureTime:    t.StartTime,
			ArrivalTime:      t.EndTime,
			DepartureAddress: t.StartAddress.toAddress(),
			ArrivalAddress:   t.EndAddress.toAddress(),
			DistanceKm:       t.DistanceKm,
			DurationMinutes:  t.DurationMinutes,
			Private:          t.Private,
			Commute:          t.Commute,
			Manual:           t.Manual,
			Provider:         fleet.ProviderRouteVision,
		}
		trip.Normalize()
		out = append(out, trip)
	}
	return out, nil
}

func (c *Client) VehicleLocations(ctx context.Context, token string) ([]fleet.VehicleLocation, error) {
	var wire []rvPosition
	err := c.transport.DoJSON(ctx, transport.Request{
		URL:    c.baseURL + "/vehicles/positions",
		Bearer: token,
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.VehicleLocation, 0, len(wire))
	for _, p := range wire {
		out = append(out, fleet.VehicleLocation{
			VehicleID:    strconv.FormatInt(p.VehicleID, 10),
			Registration: p.LicensePlate,
			Lat:          p.Latitude,
			Lng:          p.Longitude,
			SpeedKmh:     p.Speed,
			Heading:      p.Heading,
			Timestamp:    p.Timestamp,
			Address:      p.Address,
			IgnitionOn:   convert.IgnitionOn(p.Ignition),
			Provider:     fleet.ProviderRouteVision,
		})
	}
	return out, nil
}

func (c *Client) emitAuth(ctx context.Context, cacheHit bool, err error) {
	event := observe.Event{
		Provider:   string(fleet.ProviderRouteVision),
		Kind:       observe.KindAuth,
		Status:     observe.StatusCompleted,
		Attributes: map[string]any{"cacheHit": cacheHit},
	}
	if err != nil {
		event.Status = observe.StatusFailed
		event.Error = err.Error()
	}
	_ = c.sink.Emit(ctx, event)
}

// authError maps rejected logins onto the auth sentinel while letting other
// transport failures pass through untouched.
func authError(err error) error {
	var reqErr *fleet.RequestError
	if errors.As(err, &reqErr) && reqErr.IsAuthStatus() {
		return fmt.Errorf("%w: %v", fleet.ErrAuthenticationFailed, err)
	}
	return err
}

// parseSessionToken accepts both a bare token body and a JSON-quoted string.
func parseSessionToken(body []byte) string {
	raw := strings.TrimSpace(string(body))
	if strings.HasPrefix(raw, `"`) {
		var quoted string
		if err := json.Unmarshal([]byte(raw), &quoted); err == nil {
			return strings.TrimSpace(quoted)
		}
	}
	return raw
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type rvVehicle struct {
	ID           int64  `json:"id"`
	LicensePlate string `json:"licensePlate"`
	Name         string `json:"name"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Active       bool   `json:"active"`
}

type rvAddress struct {
	Street      string  `json:"street"`
	HouseNumber string  `json:"houseNumber"`
	PostalCode  string  `json:"postalCode"`
	City        string  `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

func (a rvAddress) toAddress() fleet.Address {
	return fleet.Address{
		Street:      a.Street,
		HouseNumber: a.HouseNumber,
		PostalCode:  a.PostalCode,
		City:        a.City,
		Formatted:   convert.FormatAddress(a.Street, a.HouseNumber, a.PostalCode, a.City),
		Lat:         a.Latitude,
		Lng:         a.Longitude,
	}
}

type rvTrip struct {
	ID              int64     `json:"id"`
	LicensePlate    string    `json:"licensePlate"`
	Driver          string    `json:"driver"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	StartAddress    rvAddress `json:"startAddress"`
	EndAddress      rvAddress `json:"endAddress"`
	DistanceKm      float64   `json:"distanceKm"`
	DurationMinutes int       `json:"durationMinutes"`
	Private         bool      `json:"private"`
	Commute         bool      `json:"commute"`
	Manual          bool      `json:"manual"`
}

type rvPosition struct {
	VehicleID    int64     `json:"vehicleId"`
	LicensePlate string    `json:"licensePlate"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Speed        float64   `json:"speed"`
	Heading      float64   `json:"heading"`
	Timestamp    time.Time `json:"timestamp"`
	Address      string    `json:"address"`
	Ignition     bool      `json:"ignition"`
}
