// Package webfleet implements the Webfleet adapter. Webfleet is the odd one
// out: every call is a GET against a single endpoint with the action in the
// query string, and responses are semicolon-delimited CSV rather than JSON.
package webfleet

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

const (
	defaultBaseURL = "https://csv.webfleet.com/extern"

	// Webfleet report timestamps and range parameters use this layout in UTC.
	timeLayout = "02.01.2006 15:04:05"
)

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
	c.transport = transport.New(fleet.ProviderWebfleet,
		transport.WithHTTPClient(c.httpClient),
		transport.WithRetryPolicy(c.retry),
		transport.WithSink(c.sink),
	)
	return c
}

func (c *Client) ProviderType() fleet.ProviderType { return fleet.ProviderWebfleet }

func (c *Client) Authenticate(ctx context.Context, creds fleet.Credentials) (string, error) {
	if err := fleet.CheckCredentials(creds, fleet.AuthCredentials); err != nil {
		return "", err
	}
	login, err := fleet.SessionLoginFrom(creds)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(login.AccountID) == "" {
		return "", fmt.Errorf("%w: webfleet requires an account id", fleet.ErrMissingCredentials)
	}

	key := tokencache.Key(fleet.ProviderWebfleet, creds)
	if token, err := c.cache.Get(ctx, key); err == nil {
		return token, nil
	}

	body, err := c.transport.Do(ctx, transport.Request{
		URL: c.baseURL,
		Query: url.Values{
			"action":       {"createSession"},
			"lang":         {"en"},
			"outputformat": {"csv"},
			"account":      {login.AccountID},
			"username":     {login.Email},
			"password":     {login.Password},
		},
	})
	if err != nil {
		var reqErr *fleet.RequestError
		if errors.As(err, &reqErr) && reqErr.IsAuthStatus() {
			return "", fmt.Errorf("%w: %v", fleet.ErrAuthenticationFailed, err)
		}
		return "", err
	}

	rows, err := parseTable(body, "sessionid")
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || rows[0].get("sessionid") == "" {
		return "", fmt.Errorf("%w: webfleet returned no session id", fleet.ErrAuthenticationFailed)
	}

	session := rows[0].get("sessionid")
	_ = c.cache.Put(ctx, key, session)
	return session, nil
}

func (c *Client) TestConnection(ctx context.Context, creds fleet.Credentials) fleet.ConnectionTestResult {
	return fleet.RunConnectionTest(ctx, c, creds)
}

// Vehicles and VehicleLocations both read showObjectReportExtern: Webfleet
// reports the fleet and its latest positions in the same table.
func (c *Client) Vehicles(ctx context.Context, token string) ([]fleet.Vehicle, error) {
	rows, err := c.report(ctx, token, "showObjectReportExtern", nil,
		"objectno", "objectname", "licenseplate")
	if err != nil {
		return nil, err
	}

	out := make([]fleet.Vehicle, 0, len(rows))
	for _, r := range rows {
		if r.get("licenseplate") == "" {
			continue
		}
		out = append(out, fleet.Vehicle{
			ID:           r.get("objectno"),
			Registration: r.get("licenseplate"),
			Name:         r.get("objectname"),
			// The object report only lists the current fleet; it carries
			// no activity or make/model columns.
			Active:   true,
			Provider: fleet.ProviderWebfleet,
		})
	}
	return out, nil
}

func (c *Client) Trips(ctx context.Context, token, vehicleID string, from, to time.Time) ([]fleet.Trip, error) {
	if err := fleet.ValidateTripWindow(from, to); err != nil {
		return nil, err
	}

	rows, err := c.report(ctx, token, "showTripReportExtern", url.Values{
		"objectno":         {vehicleID},
		"rangefrom_string": {from.UTC().Format(timeLayout)},
		"rangeto_string":   {to.UTC().Format(timeLayout)},
	}, "tripid", "starttime", "endtime", "distance")
	if err != nil {
		return nil, err
	}

	out := make([]fleet.Trip, 0, len(rows))
	for _, r := range rows {
		trip := fleet.Trip{
			ID:               r.get("tripid"),
			VehicleID:        vehicleID,
			Registration:     r.get("licenseplate"),
			DriverName:       r.get("drivername"),
			DepartureTime:    parseReportTime(r.get("starttime")),
			ArrivalTime:      parseReportTime(r.get("endtime")),
			DepartureAddress: textAddress(r.get("startaddress")),
			ArrivalAddress:   textAddress(r.get("endaddress")),
			DistanceKm:       parseFloat(r.get("distance")),
			DurationMinutes:  convert.ParseDurationMinutes(r.get("duration")),
			Private:          r.get("priv") == "1",
			Provider:         fleet.ProviderWebfleet,
		}
		trip.Normalize()
		out = append(out, trip)
	}
	return out, nil
}

func (c *Client) VehicleLocations(ctx context.Context, token string) ([]fleet.VehicleLocation, error) {
	rows, err := c.report(ctx, token, "showObjectReportExtern", nil,
		"objectno", "latitude", "longitude")
	if err != nil {
		return nil, err
	}

	out := make([]fleet.VehicleLocation, 0, len(rows))
	for _, r := range rows {
		out = append(out, fleet.VehicleLocation{
			VehicleID:    r.get("objectno"),
			Registration: r.get("licenseplate"),
			Lat:          parseFloat(r.get("latitude")),
			Lng:          parseFloat(r.get("longitude")),
			SpeedKmh:     parseFloat(r.get("speed")),
			Heading:      parseFloat(r.get("course")),
			Timestamp:    parseReportTime(r.get("msgtime")),
			Address:      r.get("postext"),
			IgnitionOn:   convert.IgnitionOn(r.get("ignition")),
			Provider:     fleet.ProviderWebfleet,
		})
	}
	return out, nil
}

func (c *Client) report(ctx context.Context, session, action string, extra url.Values, required ...string) ([]row, error) {
	query := url.Values{
		"action":       {action},
		"lang":         {"en"},
		"outputformat": {"csv"},
		"session":      {session},
	}
	for k, vs := range extra {
		query[k] = vs
	}

	body, err := c.transport.Do(ctx, transport.Request{
		URL:   c.baseURL,
		Query: query,
	})
	if err != nil {
		return nil, err
	}
	return parseTable(body, required...)
}

func textAddress(formatted string) fleet.Address {
	if strings.TrimSpace(formatted) == "" {
		formatted = convert.UnknownAddress
	}
	return fleet.Address{Formatted: formatted}
}

func parseReportTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseFloat(s string) float64 {
	// Webfleet localizes decimals with a comma.
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return f
}
