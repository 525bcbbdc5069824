// Package trackjack implements the TrackJack adapter. TrackJack is a Dutch
// vendor: the login exchange returns a JSON token and every payload carries
// Dutch field names (kenteken, ritten, vertrektijd) that are mapped to the
// shared domain types here.
package trackjack

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

const defaultBaseURL = "https://api.trackjack.nl"

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
	c.transport = transport.New(fleet.ProviderTrackJack,
		transport.WithHTTPClient(c.httpClient),
		transport.WithRetryPolicy(c.retry),
		transport.WithSink(c.sink),
	)
	return c
}

func (c *Client) ProviderType() fleet.ProviderType { return fleet.ProviderTrackJack }

func (c *Client) Authenticate(ctx context.Context, creds fleet.Credentials) (string, error) {
	if err := fleet.CheckCredentials(creds, fleet.AuthCredentials); err != nil {
		return "", err
	}
	login, err := fleet.SessionLoginFrom(creds)
	if err != nil {
		return "", err
	}

	key := tokencache.Key(fleet.ProviderTrackJack, creds)
	if token, err := c.cache.Get(ctx, key); err == nil {
		return token, nil
	}

	var resp tjLoginResponse
	err = c.transport.DoJSON(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/api/v2/login",
		Body: tjLoginRequest{
			Email:    login.Email,
			Password: login.Password,
		},
	}, &resp)
	if err != nil {
		var reqErr *fleet.RequestError
		if errors.As(err, &reqErr) && reqErr.IsAuthStatus() {
			return "", fmt.Errorf("%w: %v", fleet.ErrAuthenticationFailed, err)
		}
		return "", err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return "", fmt.Errorf("%w: trackjack returned no token", fleet.ErrAuthenticationFailed)
	}

	_ = c.cache.Put(ctx, key, resp.Token)
	return resp.Token, nil
}

func (c *Client) TestConnection(ctx context.Context, creds fleet.Credentials) fleet.ConnectionTestResult {
	return fleet.RunConnectionTest(ctx, c, creds)
}

func (c *Client) Vehicles(ctx context.Context, token string) ([]fleet.Vehicle, error) {
	var wire []tjVehicle
	err := c.transport.DoJSON(ctx, transport.Request{
		URL:    c.baseURL + "/api/v2/voertuigen",
		Bearer: token,
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.Vehicle, 0, len(wire))
	for _, v := range wire {
		if strings.TrimSpace(v.Kenteken) == "" {
			continue
		}
		out = append(out, fleet.Vehicle{
			ID:           v.ID,
			Registration: v.Kenteken,
			Name:         v.Naam,
			Brand:        v.Merk,
			Model:        v.Model,
			Active:       v.Actief,
			Provider:     fleet.ProviderTrackJack,
		})
	}
	return out, nil
}

func (c *Client) Trips(ctx context.Context, token, vehicleID string, from, to time.Time) ([]fleet.Trip, error) {
	if err := fleet.ValidateTripWindow(from, to); err != nil {
		return nil, err
	}

	var wire []tjTrip
	err := c.transport.DoJSON(ctx, transport.Request{
		URL:    c.baseURL + "/api/v2/ritten",
		Bearer: token,
		Query: url.Values{
			"voertuigId": {vehicleID},
			"van":        {from.UTC().Format(time.RFC3339)},
			"tot":        {to.UTC().Format(time.RFC3339)},
		},
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.Trip, 0, len(wire))
	for _, t := range wire {
		trip := fleet.Trip{
			ID:               t.ID,
			VehicleID:        vehicleID,
			Registration:     t.Kenteken,
			DriverName:       t.Bestuurder,
			DepartureTime:    t.Vertrektijd,
			ArrivalTime:      t.Aankomsttijd,
			DepartureAddress: t.Vertrekadres.toAddress(),
			ArrivalAddress:   t.Aankomstadres.toAddress(),
			DistanceKm:       t.AfstandKm,
			DurationMinutes:  convert.ParseDurationMinutes(t.Duur),
			Private:          t.Prive,
			Commute:          t.Woonwerk,
			Manual:           t.Handmatig,
			Provider:         fleet.ProviderTrackJack,
		}
		trip.Normalize()
		out = append(out, trip)
	}
	return out, nil
}

func (c *Client) VehicleLocations(ctx context.Context, token string) ([]fleet.VehicleLocation, error) {
	var wire []tjPosition
	err := c.transport.DoJSON(ctx, transport.Request{
		URL:    c.baseURL + "/api/v2/posities",
		Bearer: token,
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.VehicleLocation, 0, len(wire))
	for _, p := range wire {
		out = append(out, fleet.VehicleLocation{
			VehicleID:    p.VoertuigID,
			Registration: p.Kenteken,
			Lat:          p.Breedtegraad,
			Lng:          p.Lengtegraad,
			SpeedKmh:     p.Snelheid,
			Heading:      p.Richting,
			Timestamp:    p.Tijdstip,
			Address:      p.Adres,
			IgnitionOn:   convert.IgnitionOn(p.Contact),
			Provider:     fleet.ProviderTrackJack,
		})
	}
	return out, nil
}

type tjLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"wachtwoord"`
}

type tjLoginResponse struct {
	Token string `json:"token"`
}

type tjVehicle struct {
	ID       string `json:"id"`
	Kenteken string `json:"kenteken"`
	Naam     string `json:"naam"`
	Merk     string `json:"merk"`
	Model    string `json:"model"`
	Actief   bool   `json:"actief"`
}

type tjAddress struct {
	Straat       string  `json:"straat"`
	Huisnummer   string  `json:"huisnummer"`
	Postcode     string  `json:"postcode"`
	Plaats       string  `json:"plaats"`
	Breedtegraad float64 `json:"breedtegraad"`
	Lengtegraad  float64 `json:"lengtegraad"`
}

func (a tjAddress) toAddress() fleet.Address {
	return fleet.Address{
		Street:      a.Straat,
		HouseNumber: a.Huisnummer,
		PostalCode:  a.Postcode,
		City:        a.Plaats,
		Formatted:   convert.FormatAddress(a.Straat, a.Huisnummer, a.Postcode, a.Plaats),
		Lat:         a.Breedtegraad,
		Lng:         a.Lengtegraad,
	}
}

type tjTrip struct {
	ID            string    `json:"id"`
	Kenteken      string    `json:"kenteken"`
	Bestuurder    string    `json:"bestuurder"`
	Vertrektijd   time.Time `json:"vertrektijd"`
	Aankomsttijd  time.Time `json:"aankomsttijd"`
	Vertrekadres  tjAddress `json:"vertrekadres"`
	Aankomstadres tjAddress `json:"aankomstadres"`
	AfstandKm     float64   `json:"afstandKm"`
	Duur          string    `json:"duur"`
	Prive         bool      `json:"prive"`
	Woonwerk      bool      `json:"woonwerk"`
	Handmatig     bool      `json:"handmatig"`
}

type tjPosition struct {
	VoertuigID   string    `json:"voertuigId"`
	Kenteken     string    `json:"kenteken"`
	Breedtegraad float64   `json:"breedtegraad"`
	Lengtegraad  float64   `json:"lengtegraad"`
	Snelheid     float64   `json:"snelheid"`
	Richting     float64   `json:"richting"`
	Tijdstip     time.Time `json:"tijdstip"`
	Adres        string    `json:"adres"`
	Contact      int       `json:"contact"`
}
