// Package fleetgo implements the FleetGO adapter. FleetGO issues no session
// tokens: a static API key travels on every call in the X-Api-Key header, and
// authentication is a probe that proves the key can list vehicles.
package fleetgo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/driveloop/fleetlink/fleet"
	"github.com/driveloop/fleetlink/internal/convert"
	"github.com/driveloop/fleetlink/internal/transport"
	"github.com/driveloop/fleetlink/observe"
	"github.com/driveloop/fleetlink/tokencache"
)

const defaultBaseURL = "https://api.fleetgo.com/v1"

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
	c.transport = transport.New(fleet.ProviderFleetGO,
		transport.WithHTTPClient(c.httpClient),
		transport.WithRetryPolicy(c.retry),
		transport.WithSink(c.sink),
	)
	return c
}

func (c *Client) ProviderType() fleet.ProviderType { return fleet.ProviderFleetGO }

// Authenticate returns the API key itself as the token. The key is cached
// only after a successful probe so repeated connection tests stay cheap.
func (c *Client) Authenticate(ctx context.Context, creds fleet.Credentials) (string, error) {
	if err := fleet.CheckCredentials(creds, fleet.AuthAPIKey); err != nil {
		return "", err
	}
	apiKey, err := fleet.APIKeyFrom(creds)
	if err != nil {
		return "", err
	}
	key := apiKey.Key

	cacheKey := tokencache.Key(fleet.ProviderFleetGO, creds)
	if token, err := c.cache.Get(ctx, cacheKey); err == nil {
		return token, nil
	}

	if _, err := c.Vehicles(ctx, key); err != nil {
		var reqErr *fleet.RequestError
		if errors.As(err, &reqErr) && reqErr.IsAuthStatus() {
			return "", fmt.Errorf("%w: %v", fleet.ErrAuthenticationFailed, err)
		}
		return "", err
	}

	_ = c.cache.Put(ctx, cacheKey, key)
	return key, nil
}

func (c *Client) TestConnection(ctx context.Context, creds fleet.Credentials) fleet.ConnectionTestResult {
	return fleet.RunConnectionTest(ctx, c, creds)
}

func (c *Client) Vehicles(ctx context.Context, token string) ([]fleet.Vehicle, error) {
	var wire fgPage[fgVehicle]
	err := c.transport.DoJSON(ctx, transport.Request{
		URL:     c.baseURL + "/vehicles",
		Headers: apiKeyHeader(token),
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.Vehicle, 0, len(wire.Items))
	for _, v := range wire.Items {
		if strings.TrimSpace(v.RegistrationNumber) == "" {
			continue
		}
		out = append(out, fleet.Vehicle{
			ID:           v.ID,
			Registration: v.RegistrationNumber,
			Name:         v.Description,
			Brand:        v.Brand,
			Model:        v.Model,
			Active:       v.IsActive,
			Provider:     fleet.ProviderFleetGO,
		})
	}
	return out, nil
}

func (c *Client) Trips(ctx context.Context, token, vehicleID string, from, to time.Time) ([]fleet.Trip, error) {
	if err := fleet.ValidateTripWindow(from, to); err != nil {
		return nil, err
	}

	var wire fgPage[fgTrip]
	err := c.transport.DoJSON(ctx, transport.Request{
		URL:     c.baseURL + "/trips",
		Headers: apiKeyHeader(token),
		Query: url.Values{
			"vehicleId": {vehicleID},
			"start":     {from.UTC().Format(time.RFC3339)},
			"end":       {to.UTC().Format(time.RFC3339)},
		},
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.Trip, 0, len(wire.Items))
	for _, t := range wire.Items {
		trip := fleet.Trip{
			ID:               t.TripID,
			VehicleID:        vehicleID,
			Registration:     t.RegistrationNumber,
			DriverName:       t.Driver,
			DepartureTime:    t.Departure.Time,
			ArrivalTime:      t.Arrival.Time,
			DepartureAddress: t.Departure.toAddress(),
			ArrivalAddress:   t.Arrival.toAddress(),
			DistanceKm:       t.Distance,
			DurationMinutes:  convert.ParseDurationMinutes(t.Duration),
			Private:          t.TripType == "private",
			Commute:          t.TripType == "commute",
			Manual:           t.IsManual,
			Provider:         fleet.ProviderFleetGO,
		}
		trip.Normalize()
		out = append(out, trip)
	}
	return out, nil
}

func (c *Client) VehicleLocations(ctx context.Context, token string) ([]fleet.VehicleLocation, error) {
	var wire fgPage[fgLocation]
	err := c.transport.DoJSON(ctx, transport.Request{
		URL:     c.baseURL + "/vehicles/locations",
		Headers: apiKeyHeader(token),
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.VehicleLocation, 0, len(wire.Items))
	for _, p := range wire.Items {
		out = append(out, fleet.VehicleLocation{
			VehicleID:    p.VehicleID,
			Registration: p.RegistrationNumber,
			Lat:          p.Latitude,
			Lng:          p.Longitude,
			SpeedKmh:     p.Speed,
			Heading:      p.Heading,
			Timestamp:    p.Timestamp,
			Address:      p.Address,
			IgnitionOn:   convert.IgnitionOn(p.Ignition),
			Provider:     fleet.ProviderFleetGO,
		})
	}
	return out, nil
}

func apiKeyHeader(token string) map[string]string {
	return map[string]string{"X-Api-Key": token}
}

// fgPage is FleetGO's list envelope. Paging fields exist on the wire but the
// fleet sizes this layer serves fit in the vendor's default page.
type fgPage[T any] struct {
	Items []T `json:"items"`
}

type fgVehicle struct {
	ID                 string `json:"id"`
	RegistrationNumber string `json:"registrationNumber"`
	Description        string `json:"description"`
	Brand              string `json:"brand"`
	Model              string `json:"model"`
	IsActive           bool   `json:"isActive"`
}

type fgStop struct {
	Time        time.Time `json:"time"`
	Street      string    `json:"street"`
	HouseNumber string    `json:"houseNumber"`
	ZipCode     string    `json:"zipCode"`
	City        string    `json:"city"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
}

func (s fgStop) toAddress() fleet.Address {
	return fleet.Address{
		Street:      s.Street,
		HouseNumber: s.HouseNumber,
		PostalCode:  s.ZipCode,
		City:        s.City,
		Formatted:   convert.FormatAddress(s.Street, s.HouseNumber, s.ZipCode, s.City),
		Lat:         s.Latitude,
		Lng:         s.Longitude,
	}
}

type fgTrip struct {
	TripID             string  `json:"tripId"`
	RegistrationNumber string  `json:"registrationNumber"`
	Driver             string  `json:"driver"`
	Departure          fgStop  `json:"departure"`
	Arrival            fgStop  `json:"arrival"`
	Distance           float64 `json:"distance"`
	Duration           string  `json:"duration"`
	TripType           string  `json:"tripType"`
	IsManual           bool    `json:"isManual"`
}

type fgLocation struct {
	VehicleID          string    `json:"vehicleId"`
	RegistrationNumber string    `json:"registrationNumber"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	Speed              float64   `json:"speed"`
	Heading            float64   `json:"heading"`
	Timestamp          time.Time `json:"timestamp"`
	Address            string    `json:"address"`
	Ignition           string    `json:"ignition"`
}
