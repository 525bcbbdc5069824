// Package samsara implements the Samsara adapter. Samsara authenticates with
// a long-lived bearer API key, reports distances in meters and speeds in
// miles per hour, and does not assign trip identifiers of its own.
package samsara

import (
	"context"
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

const defaultBaseURL = "https://api.samsara.com"

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
	c.transport = transport.New(fleet.ProviderSamsara,
		transport.WithHTTPClient(c.httpClient),
		transport.WithRetryPolicy(c.retry),
		transport.WithSink(c.sink),
	)
	return c
}

func (c *Client) ProviderType() fleet.ProviderType { return fleet.ProviderSamsara }

// Authenticate probes the key against the vehicle list and returns the key
// itself as the bearer token.
func (c *Client) Authenticate(ctx context.Context, creds fleet.Credentials) (string, error) {
	if err := fleet.CheckCredentials(creds, fleet.AuthAPIKey); err != nil {
		return "", err
	}
	apiKey, err := fleet.APIKeyFrom(creds)
	if err != nil {
		return "", err
	}
	key := apiKey.Key

	cacheKey := tokencache.Key(fleet.ProviderSamsara, creds)
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
	var wire ssEnvelope[ssVehicle]
	err := c.transport.DoJSON(ctx, transport.Request{
		URL:    c.baseURL + "/fleet/vehicles",
		Bearer: token,
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.Vehicle, 0, len(wire.Data))
	for _, v := range wire.Data {
		if strings.TrimSpace(v.LicensePlate) == "" {
			continue
		}
		out = append(out, fleet.Vehicle{
			ID:           v.ID,
			Registration: v.LicensePlate,
			Name:         v.Name,
			Brand:        v.Make,
			Model:        v.Model,
			// Samsara's list endpoint only returns assets currently in the
			// fleet, so everything it reports is active.
			Active:   true,
			Provider: fleet.ProviderSamsara,
		})
	}
	return out, nil
}

func (c *Client) Trips(ctx context.Context, token, vehicleID string, from, to time.Time) ([]fleet.Trip, error) {
	if err := fleet.ValidateTripWindow(from, to); err != nil {
		return nil, err
	}

	var wire ssEnvelope[ssTrip]
	err := c.transport.DoJSON(ctx, transport.Request{
		URL:    c.baseURL + "/fleet/trips",
		Bearer: token,
		Query: url.Values{
			"vehicleId": {vehicleID},
			"startMs":   {strconv.FormatInt(from.UTC().UnixMilli(), 10)},
			"endMs":     {strconv.FormatInt(to.UTC().UnixMilli(), 10)},
		},
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.Trip, 0, len(wire.Data))
	for _, t := range wire.Data {
		trip := fleet.Trip{
			// Samsara trips carry no id; the vehicle plus start instant is
			// unique per vendor semantics.
			ID:            fmt.Sprintf("%s-%d", vehicleID, t.StartMs),
			VehicleID:     vehicleID,
			DriverName:    t.DriverName,
			DepartureTime: msToTime(t.StartMs),
			ArrivalTime:   msToTime(t.EndMs),
			DepartureAddress: fleet.Address{
				Formatted: formattedOrUnknown(t.StartLocation),
				Lat:       t.StartCoordinates.Latitude,
				Lng:       t.StartCoordinates.Longitude,
			},
			ArrivalAddress: fleet.Address{
				Formatted: formattedOrUnknown(t.EndLocation),
				Lat:       t.EndCoordinates.Latitude,
				Lng:       t.EndCoordinates.Longitude,
			},
			DistanceKm: convert.MetersToKm(t.DistanceMeters),
			Provider:   fleet.ProviderSamsara,
		}
		trip.Normalize()
		out = append(out, trip)
	}
	return out, nil
}

func (c *Client) VehicleLocations(ctx context.Context, token string) ([]fleet.VehicleLocation, error) {
	var wire ssEnvelope[ssVehicleLocation]
	err := c.transport.DoJSON(ctx, transport.Request{
		URL:    c.baseURL + "/fleet/vehicles/locations",
		Bearer: token,
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.VehicleLocation, 0, len(wire.Data))
	for _, v := range wire.Data {
		out = append(out, fleet.VehicleLocation{
			VehicleID:    v.ID,
			Registration: v.LicensePlate,
			Lat:          v.Location.Latitude,
			Lng:          v.Location.Longitude,
			SpeedKmh:     convert.MphToKmh(v.Location.SpeedMilesPerHour),
			Heading:      v.Location.HeadingDegrees,
			Timestamp:    v.Location.Time,
			Address:      v.Location.ReverseGeo.FormattedLocation,
			IgnitionOn:   convert.IgnitionOn(v.EngineState),
			Provider:     fleet.ProviderSamsara,
		})
	}
	return out, nil
}

func msToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func formattedOrUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return convert.UnknownAddress
	}
	return s
}

type ssEnvelope[T any] struct {
	Data []T `json:"data"`
}

type ssVehicle struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	LicensePlate string `json:"licensePlate"`
	Make         string `json:"make"`
	Model        string `json:"model"`
}

type ssCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ssTrip struct {
	StartMs          int64         `json:"startMs"`
	EndMs            int64         `json:"endMs"`
	DriverName       string        `json:"driverName"`
	DistanceMeters   float64       `json:"distanceMeters"`
	StartLocation    string        `json:"startLocation"`
	EndLocation      string        `json:"endLocation"`
	StartCoordinates ssCoordinates `json:"startCoordinates"`
	EndCoordinates   ssCoordinates `json:"endCoordinates"`
}

type ssVehicleLocation struct {
	ID           string `json:"id"`
	LicensePlate string `json:"licensePlate"`
	EngineState  string `json:"engineState"`
	Location     struct {
		Latitude          float64   `json:"latitude"`
		Longitude         float64   `json:"longitude"`
		SpeedMilesPerHour float64   `json:"speedMilesPerHour"`
		HeadingDegrees    float64   `json:"headingDegrees"`
		Time              time.Time `json:"time"`
		ReverseGeo        struct {
			FormattedLocation string `json:"formattedLocation"`
		} `json:"reverseGeo"`
	} `json:"location"`
}
