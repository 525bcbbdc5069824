package routevision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/driveloop/fleetlink/fleet"
)

func TestAuthenticateCachesSessionToken(t *testing.T) {
	logins := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		logins++
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode login: %v", err)
		}
		if req.Username != "ops@acme.nl" || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("sess-abc123\n"))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	creds := fleet.SessionLogin{Email: "ops@acme.nl", Password: "secret"}

	token, err := client.Authenticate(context.Background(), creds)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if token != "sess-abc123" {
		t.Fatalf("token = %q", token)
	}

	if _, err := client.Authenticate(context.Background(), creds); err != nil {
		t.Fatalf("second Authenticate: %v", err)
	}
	if logins != 1 {
		t.Fatalf("expected one login exchange, got %d", logins)
	}
}

func TestAuthenticateRejectsWrongCredentialShape(t *testing.T) {
	client := New()
	_, err := client.Authenticate(context.Background(), fleet.APIKey{Key: "sk_live_x"})
	if !errors.Is(err, fleet.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestAuthenticateRejectedLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	_, err := client.Authenticate(context.Background(), fleet.SessionLogin{Email: "ops@acme.nl", Password: "wrong"})
	if !errors.Is(err, fleet.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestParseSessionTokenAcceptsQuotedBody(t *testing.T) {
	if got := parseSessionToken([]byte(`"sess-quoted"`)); got != "sess-quoted" {
		t.Fatalf("quoted token = %q", got)
	}
	if got := parseSessionToken([]byte("  sess-bare \n")); got != "sess-bare" {
		t.Fatalf("bare token = %q", got)
	}
}

func TestTripsRejectsOversizedWindow(t *testing.T) {
	client := New(WithBaseURL("http://127.0.0.1:0"))
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := client.Trips(context.Background(), "tok", "12", from, from.AddDate(0, 0, 40))
	if !errors.Is(err, fleet.ErrDateRangeTooLarge) {
		t.Fatalf("expected ErrDateRangeTooLarge, got %v", err)
	}
}

func TestTripsNormalizesRunningTrip(t *testing.T) {
	departure := time.Date(2026, 3, 2, 8, 15, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Fatalf("missing bearer token")
		}
		json.NewEncoder(w).Encode([]rvTrip{{
			ID:           991,
			LicensePlate: "AB-12-CD",
			Driver:       "J. de Vries",
			StartTime:    departure,
			StartAddress: rvAddress{Street: "Hoofdstraat", HouseNumber: "1", PostalCode: "3500 AA", City: "Utrecht"},
			DistanceKm:   -2,
		}})
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	trips, err := client.Trips(context.Background(), "tok", "12", departure, departure.AddDate(0, 0, 20))
	if err != nil {
		t.Fatalf("Trips: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(trips))
	}

	trip := trips[0]
	if !trip.Running {
		t.Fatal("expected running trip")
	}
	if !trip.ArrivalTime.Equal(departure) {
		t.Fatalf("arrival = %v", trip.ArrivalTime)
	}
	if trip.DistanceKm != 0 {
		t.Fatalf("distance not clamped: %v", trip.DistanceKm)
	}
	if trip.DepartureAddress.Formatted != "Hoofdstraat 1, 3500 AA Utrecht" {
		t.Fatalf("formatted address = %q", trip.DepartureAddress.Formatted)
	}
}

func TestVehiclesSkipsEntriesWithoutRegistration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]rvVehicle{
			{ID: 12, LicensePlate: "AB-12-CD", Name: "Bus 3", Active: true},
			{ID: 13, LicensePlate: "  "},
		})
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	vehicles, err := client.Vehicles(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Vehicles: %v", err)
	}
	if len(vehicles) != 1 {
		t.Fatalf("expected 1 vehicle, got %d", len(vehicles))
	}
	if vehicles[0].ID != "12" || vehicles[0].Provider != fleet.ProviderRouteVision {
		t.Fatalf("unexpected vehicle %+v", vehicles[0])
	}
}

func TestTestConnectionAcceptsPointerCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("sess-abc123"))
	})
	mux.HandleFunc("/vehicles", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]rvVehicle{{ID: 12, LicensePlate: "AB-12-CD", Active: true}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	result := client.TestConnection(context.Background(), &fleet.SessionLogin{Email: "ops@acme.nl", Password: "secret"})
	if !result.Success {
		t.Fatalf("pointer credentials should work, got %+v", result)
	}
	if result.VehicleCount == nil || *result.VehicleCount != 1 {
		t.Fatalf("unexpected vehicle count %+v", result.VehicleCount)
	}
}

func TestTestConnectionReportsFailureAsValue(t *testing.T) {
	client := New()
	result := client.TestConnection(context.Background(), nil)
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error == "" {
		t.Fatal("expected error message")
	}
}
