package verizon

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/driveloop/fleetlink/fleet"
)

func TestAuthenticateClientCredentialsGrant(t *testing.T) {
	grants := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		grants++
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			t.Fatalf("bad grant form: %v", r.PostForm)
		}
		w.Write([]byte(`{"access_token":"vz-token-1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	creds := fleet.ClientCredentials{ClientID: "client-id", ClientSecret: "client-secret"}

	token, err := client.Authenticate(context.Background(), creds)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if token != "vz-token-1" {
		t.Fatalf("token = %q", token)
	}

	if _, err := client.Authenticate(context.Background(), creds); err != nil {
		t.Fatalf("second Authenticate: %v", err)
	}
	if grants != 1 {
		t.Fatalf("expected one grant exchange, got %d", grants)
	}
}

func TestAuthenticateMissingAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	_, err := client.Authenticate(context.Background(), fleet.ClientCredentials{ClientID: "id", ClientSecret: "secret"})
	if !errors.Is(err, fleet.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestAuthenticateRejectsWrongCredentialShape(t *testing.T) {
	client := New()
	_, err := client.Authenticate(context.Background(), fleet.APIKey{Key: "sk_live_x"})
	if !errors.Is(err, fleet.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestTripsConvertsMiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rad/v1/vehicles/V12/segments" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[{
			"segmentId":"seg-1","driverName":"B. Smith",
			"startDateTimeUtc":"2026-03-02T08:00:00Z","endDateTimeUtc":"2026-03-02T09:00:00Z",
			"startAddress":{"addressLine1":"100 Main St","postalCode":"02110","locality":"Boston"},
			"endAddress":{"addressLine1":"","postalCode":"","locality":""},
			"distanceMiles":10,"isPrivate":true
		}]`))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	trips, err := client.Trips(context.Background(), "vz-token-1", "V12", from, from.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("Trips: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(trips))
	}

	trip := trips[0]
	if math.Abs(trip.DistanceKm-16.0934) > 0.001 {
		t.Fatalf("distance = %v", trip.DistanceKm)
	}
	if trip.DurationMinutes != 60 {
		t.Fatalf("duration = %d", trip.DurationMinutes)
	}
	if !trip.Private {
		t.Fatal("expected private trip")
	}
	if trip.DepartureAddress.Formatted != "100 Main St, 02110 Boston" {
		t.Fatalf("departure address = %q", trip.DepartureAddress.Formatted)
	}
	if trip.ArrivalAddress.Formatted != "Unknown" {
		t.Fatalf("arrival address = %q", trip.ArrivalAddress.Formatted)
	}
}

func TestTripsRejectsOversizedWindow(t *testing.T) {
	client := New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := client.Trips(context.Background(), "vz-token-1", "V12", from, from.AddDate(0, 0, 35))
	if !errors.Is(err, fleet.ErrDateRangeTooLarge) {
		t.Fatalf("expected ErrDateRangeTooLarge, got %v", err)
	}
}

func TestVehicleLocationsConvertsMph(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{
			"vehicleNumber":"V12","registrationNumber":"4XY 123",
			"latitude":42.35,"longitude":-71.05,"speedMph":60,"heading":90,
			"updateUtc":"2026-03-02T08:00:00Z",
			"address":{"addressLine1":"100 Main St","locality":"Boston"},
			"ignitionStatus":"ON"
		}]`))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	locations, err := client.VehicleLocations(context.Background(), "vz-token-1")
	if err != nil {
		t.Fatalf("VehicleLocations: %v", err)
	}
	if len(locations) != 1 {
		t.Fatalf("expected 1 location, got %d", len(locations))
	}

	loc := locations[0]
	if math.Abs(loc.SpeedKmh-96.5604) > 0.001 {
		t.Fatalf("speed = %v", loc.SpeedKmh)
	}
	if !loc.IgnitionOn {
		t.Fatal("expected ignition on")
	}
	if loc.Address != "100 Main St, Boston" {
		t.Fatalf("address = %q", loc.Address)
	}
}
