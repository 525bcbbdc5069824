// Package verizon implements the Verizon Connect adapter: OAuth2
// client-credentials token exchange over HTTP basic auth, and imperial units
// (miles, mph) converted to metric at the boundary.
package verizon

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

const defaultBaseURL = "https://fim.api.us.fleetmatics.com"

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
	c.transport = transport.New(fleet.ProviderVerizon,
		transport.WithHTTPClient(c.httpClient),
		transport.WithRetryPolicy(c.retry),
		transport.WithSink(c.sink),
	)
	return c
}

func (c *Client) ProviderType() fleet.ProviderType { return fleet.ProviderVerizon }

func (c *Client) Authenticate(ctx context.Context, creds fleet.Credentials) (string, error) {
	if err := fleet.CheckCredentials(creds, fleet.AuthOAuth2); err != nil {
		return "", err
	}
	pair, err := fleet.ClientCredentialsFrom(creds)
	if err != nil {
		return "", err
	}

	key := tokencache.Key(fleet.ProviderVerizon, creds)
	if token, err := c.cache.Get(ctx, key); err == nil {
		return token, nil
	}

	var resp vzTokenResponse
	err = c.transport.DoJSON(ctx, transport.Request{
		Method:    http.MethodPost,
		URL:       c.baseURL + "/token",
		BasicUser: pair.ClientID,
		BasicPass: pair.ClientSecret,
		Form:      url.Values{"grant_type": {"client_credentials"}},
	}, &resp)
	if err != nil {
		var reqErr *fleet.RequestError
		if errors.As(err, &reqErr) && reqErr.IsAuthStatus() {
			return "", fmt.Errorf("%w: %v", fleet.ErrAuthenticationFailed, err)
		}
		return "", err
	}
	if strings.TrimSpace(resp.AccessToken) == "" {
		return "", fmt.Errorf("%w: verizon token response has no access_token", fleet.ErrAuthenticationFailed)
	}

	_ = c.cache.Put(ctx, key, resp.AccessToken)
	return resp.AccessToken, nil
}

func (c *Client) TestConnection(ctx context.Context, creds fleet.Credentials) fleet.ConnectionTestResult {
	return fleet.RunConnectionTest(ctx, c, creds)
}

func (c *Client) Vehicles(ctx context.Context, token string) ([]fleet.Vehicle, error) {
	var wire []vzVehicle
	err := c.transport.DoJSON(ctx, transport.Request{
		URL:    c.baseURL + "/rad/v1/vehicles",
		Bearer: token,
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.Vehicle, 0, len(wire))
	for _, v := range wire {
		if strings.TrimSpace(v.RegistrationNumber) == "" {
			continue
		}
		out = append(out, fleet.Vehicle{
			ID:           v.VehicleNumber,
			Registration: v.RegistrationNumber,
			Name:         v.Name,
			Brand:        v.Make,
			Model:        v.Model,
			Active:       v.IsActive,
			Provider:     fleet.ProviderVerizon,
		})
	}
	return out, nil
}

func (c *Client) Trips(ctx context.Context, token, vehicleID string, from, to time.Time) ([]fleet.Trip, error) {
	if err := fleet.ValidateTripWindow(from, to); err != nil {
		return nil, err
	}

	var wire []vzSegment
	err := c.transport.DoJSON(ctx, transport.Request{
		URL:    c.baseURL + "/rad/v1/vehicles/" + url.PathEscape(vehicleID) + "/segments",
		Bearer: token,
		Query: url.Values{
			"startdatetime": {from.UTC().Format(time.RFC3339)},
			"enddatetime":   {to.UTC().Format(time.RFC3339)},
		},
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.Trip, 0, len(wire))
	for _, s := range wire {
		trip := fleet.Trip{
			ID:               s.SegmentID,
			VehicleID:        vehicleID,
			DriverName:       s.DriverName,
			DepartureTime:    s.StartDateTimeUTC,
			ArrivalTime:      s.EndDateTimeUTC,
			DepartureAddress: s.StartAddress.toAddress(),
			ArrivalAddress:   s.EndAddress.toAddress(),
			DistanceKm:       convert.MilesToKm(s.DistanceMiles),
			Private:          s.IsPrivate,
			Provider:         fleet.ProviderVerizon,
		}
		trip.Normalize()
		out = append(out, trip)
	}
	return out, nil
}

func (c *Client) VehicleLocations(ctx context.Context, token string) ([]fleet.VehicleLocation, error) {
	var wire []vzLocation
	err := c.transport.DoJSON(ctx, transport.Request{
		URL:    c.baseURL + "/rad/v1/vehicles/locations",
		Bearer: token,
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.VehicleLocation, 0, len(wire))
	for _, p := range wire {
		out = append(out, fleet.VehicleLocation{
			VehicleID:    p.VehicleNumber,
			Registration: p.RegistrationNumber,
			Lat:          p.Latitude,
			Lng:          p.Longitude,
			SpeedKmh:     convert.MphToKmh(p.SpeedMph),
			Heading:      p.Heading,
			Timestamp:    p.UpdateUTC,
			Address:      p.Address.toAddress().Formatted,
			IgnitionOn:   convert.IgnitionOn(p.IgnitionStatus),
			Provider:     fleet.ProviderVerizon,
		})
	}
	return out, nil
}

type vzTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type vzVehicle struct {
	VehicleNumber      string `json:"vehicleNumber"`
	Name               string `json:"name"`
	RegistrationNumber string `json:"registrationNumber"`
	Make               string `json:"make"`
	Model              string `json:"model"`
	IsActive           bool   `json:"isActive"`
}

// vzAddress has no separate house number; addressLine1 carries the full street
// line.
type vzAddress struct {
	AddressLine1 string `json:"addressLine1"`
	PostalCode   string `json:"postalCode"`
	Locality     string `json:"locality"`
}

func (a vzAddress) toAddress() fleet.Address {
	return fleet.Address{
		Street:     a.AddressLine1,
		PostalCode: a.PostalCode,
		City:       a.Locality,
		Formatted:  convert.FormatAddress(a.AddressLine1, "", a.PostalCode, a.Locality),
	}
}

type vzSegment struct {
	SegmentID        string    `json:"segmentId"`
	DriverName       string    `json:"driverName"`
	StartDateTimeUTC time.Time `json:"startDateTimeUtc"`
	EndDateTimeUTC   time.Time `json:"endDateTimeUtc"`
	StartAddress     vzAddress `json:"startAddress"`
	EndAddress       vzAddress `json:"endAddress"`
	DistanceMiles    float64   `json:"distanceMiles"`
	IsPrivate        bool      `json:"isPrivate"`
}

type vzLocation struct {
	VehicleNumber      string    `json:"vehicleNumber"`
	RegistrationNumber string    `json:"registrationNumber"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	SpeedMph           float64   `json:"speedMph"`
	Heading            float64   `json:"heading"`
	UpdateUTC          time.Time `json:"updateUtc"`
	Address            vzAddress `json:"address"`
	IgnitionStatus     string    `json:"ignitionStatus"`
}
