package fleet

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTripNormalize_SwapsInvertedTimestamps(t *testing.T) {
	dep := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	arr := dep.Add(-30 * time.Minute)

	trip := Trip{DepartureTime: dep, ArrivalTime: arr}
	trip.Normalize()

	if trip.ArrivalTime.Before(trip.DepartureTime) {
		t.Fatalf("arrival %s still before departure %s", trip.ArrivalTime, trip.DepartureTime)
	}
	if trip.DurationMinutes != 30 {
		t.Fatalf("expected 30 minute duration, got %d", trip.DurationMinutes)
	}
}

func TestTripNormalize_RunningTrip(t *testing.T) {
	dep := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	trip := Trip{DepartureTime: dep}
	trip.Normalize()

	if !trip.Running {
		t.Fatalf("trip without arrival should be marked running")
	}
	if !trip.ArrivalTime.Equal(dep) {
		t.Fatalf("running trip arrival should equal departure, got %s", trip.ArrivalTime)
	}
	if trip.DurationMinutes != 0 {
		t.Fatalf("unexpected duration %d", trip.DurationMinutes)
	}
}

func TestTripNormalize_ClampsNegatives(t *testing.T) {
	trip := Trip{DistanceKm: -4.2, DurationMinutes: -7}
	trip.Normalize()

	if trip.DistanceKm != 0 {
		t.Fatalf("distance not clamped: %f", trip.DistanceKm)
	}
	if trip.DurationMinutes != 0 {
		t.Fatalf("duration not clamped: %d", trip.DurationMinutes)
	}
}

func TestCheckCredentials(t *testing.T) {
	cases := []struct {
		name  string
		creds Credentials
		want  AuthType
		ok    bool
	}{
		{"session ok", SessionLogin{Email: "a@b.nl", Password: "pw"}, AuthCredentials, true},
		{"session missing password", SessionLogin{Email: "a@b.nl"}, AuthCredentials, false},
		{"wrong shape", APIKey{Key: "k"}, AuthCredentials, false},
		{"api key ok", APIKey{Key: "k"}, AuthAPIKey, true},
		{"api key blank", APIKey{Key: "   "}, AuthAPIKey, false},
		{"oauth ok", ClientCredentials{ClientID: "id", ClientSecret: "sec"}, AuthOAuth2, true},
		{"oauth missing secret", ClientCredentials{ClientID: "id"}, AuthOAuth2, false},
		{"nil", nil, AuthCredentials, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckCredentials(tc.creds, tc.want)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatalf("expected error")
				}
				if !errors.Is(err, ErrMissingCredentials) {
					t.Fatalf("expected ErrMissingCredentials, got %v", err)
				}
			}
		})
	}
}

func TestCredentialIdentifier_NeverExposesFullSecret(t *testing.T) {
	key := APIKey{Key: "supersecretapikey-123456"}
	if got := key.Identifier(); got != "supersec" {
		t.Fatalf("unexpected identifier %q", got)
	}

	login := SessionLogin{Email: "fleet@acme.nl", Password: "hunter2"}
	if got := login.Identifier(); got != "fleet@acme.nl" {
		t.Fatalf("unexpected identifier %q", got)
	}
}

func TestValidateTripWindow(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := ValidateTripWindow(from, from.AddDate(0, 0, 20)); err != nil {
		t.Fatalf("20-day window rejected: %v", err)
	}
	if err := ValidateTripWindow(from, from.AddDate(0, 0, 40)); !errors.Is(err, ErrDateRangeTooLarge) {
		t.Fatalf("expected ErrDateRangeTooLarge, got %v", err)
	}
	if err := ValidateTripWindow(from, from.AddDate(0, 0, -1)); !errors.Is(err, ErrDateRangeTooLarge) {
		t.Fatalf("expected error for inverted range, got %v", err)
	}
}

type failingAdapter struct {
	authErr     error
	vehiclesErr error
	vehicles    []Vehicle
}

func (f *failingAdapter) ProviderType() ProviderType { return "test" }

func (f *failingAdapter) Authenticate(context.Context, Credentials) (string, error) {
	if f.authErr != nil {
		return "", f.authErr
	}
	return "tok", nil
}

func (f *failingAdapter) TestConnection(ctx context.Context, creds Credentials) ConnectionTestResult {
	return RunConnectionTest(ctx, f, creds)
}

func (f *failingAdapter) Vehicles(context.Context, string) ([]Vehicle, error) {
	return f.vehicles, f.vehiclesErr
}

func (f *failingAdapter) Trips(context.Context, string, string, time.Time, time.Time) ([]Trip, error) {
	return nil, nil
}

func (f *failingAdapter) VehicleLocations(context.Context, string) ([]VehicleLocation, error) {
	return nil, nil
}

func TestCredentialExtractors_AcceptPointerShapes(t *testing.T) {
	login, err := SessionLoginFrom(&SessionLogin{Email: "a@b.nl", Password: "pw"})
	if err != nil || login.Email != "a@b.nl" {
		t.Fatalf("pointer SessionLogin rejected: %v %+v", err, login)
	}
	key, err := APIKeyFrom(&APIKey{Key: "k"})
	if err != nil || key.Key != "k" {
		t.Fatalf("pointer APIKey rejected: %v %+v", err, key)
	}
	pair, err := ClientCredentialsFrom(&ClientCredentials{ClientID: "id", ClientSecret: "sec"})
	if err != nil || pair.ClientID != "id" {
		t.Fatalf("pointer ClientCredentials rejected: %v %+v", err, pair)
	}

	if _, err := SessionLoginFrom(APIKey{Key: "k"}); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("wrong shape should fail with ErrMissingCredentials, got %v", err)
	}
	if _, err := APIKeyFrom((*APIKey)(nil)); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("nil pointer should fail with ErrMissingCredentials, got %v", err)
	}
	if _, err := ClientCredentialsFrom(nil); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("nil creds should fail with ErrMissingCredentials, got %v", err)
	}
}

type panickingAdapter struct{ failingAdapter }

func (p *panickingAdapter) Authenticate(context.Context, Credentials) (string, error) {
	panic("unexpected credential shape")
}

func (p *panickingAdapter) TestConnection(ctx context.Context, creds Credentials) ConnectionTestResult {
	return RunConnectionTest(ctx, p, creds)
}

func TestRunConnectionTest_RecoversPanics(t *testing.T) {
	a := &panickingAdapter{}
	res := a.TestConnection(context.Background(), SessionLogin{Email: "a@b.nl", Password: "pw"})
	if res.Success {
		t.Fatalf("expected failure, got %+v", res)
	}
	if res.Error == "" {
		t.Fatal("expected error message in result")
	}
}

func TestRunConnectionTest_ConvertsErrorsToResult(t *testing.T) {
	a := &failingAdapter{authErr: errors.New("login rejected")}
	res := a.TestConnection(context.Background(), SessionLogin{Email: "a@b.nl", Password: "pw"})
	if res.Success || res.Error == "" {
		t.Fatalf("expected failed result, got %+v", res)
	}

	a = &failingAdapter{vehiclesErr: errors.New("boom")}
	res = a.TestConnection(context.Background(), SessionLogin{Email: "a@b.nl", Password: "pw"})
	if res.Success || res.Error == "" {
		t.Fatalf("expected failed result, got %+v", res)
	}

	a = &failingAdapter{vehicles: []Vehicle{{ID: "1", Registration: "AB-12-CD"}}}
	res = a.TestConnection(context.Background(), SessionLogin{Email: "a@b.nl", Password: "pw"})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.VehicleCount == nil || *res.VehicleCount != 1 {
		t.Fatalf("unexpected vehicle count: %+v", res.VehicleCount)
	}
}
