package fleet

import (
	"context"
	"fmt"
	"time"
)

// MaxTripWindowDays is the widest trip query window any adapter accepts.
// RouteVision enforces it server-side; the other adapters apply it as a
// defensive default so no vendor sees an unbounded range.
const MaxTripWindowDays = 31

// Adapter is the uniform contract every vendor implementation satisfies.
// Adapters are stateless request issuers; the token cache is the only shared
// state and callers may invoke the data methods concurrently.
type Adapter interface {
	ProviderType() ProviderType

	// Authenticate validates the credentials for the provider's declared auth
	// type, consults the token cache, and performs the vendor-specific
	// exchange on a miss. It returns a token usable by the data methods.
	Authenticate(ctx context.Context, creds Credentials) (string, error)

	// TestConnection probes connectivity by authenticating and listing
	// vehicles. It never returns an error; failures are reported in the
	// result value.
	TestConnection(ctx context.Context, creds Credentials) ConnectionTestResult

	Vehicles(ctx context.Context, token string) ([]Vehicle, error)
	Trips(ctx context.Context, token, vehicleID string, from, to time.Time) ([]Trip, error)
	VehicleLocations(ctx context.Context, token string) ([]VehicleLocation, error)
}

// ValidateTripWindow rejects inverted or oversized trip query ranges before
// any network call.
func ValidateTripWindow(from, to time.Time) error {
	if to.Before(from) {
		return fmt.Errorf("%w: range end %s precedes start %s",
			ErrDateRangeTooLarge, to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	if to.Sub(from) > MaxTripWindowDays*24*time.Hour {
		return fmt.Errorf("%w: %s to %s exceeds %d days",
			ErrDateRangeTooLarge, from.Format(time.RFC3339), to.Format(time.RFC3339), MaxTripWindowDays)
	}
	return nil
}

// RunConnectionTest implements the shared TestConnection behavior: it is the
// single boundary where adapter failures are converted into a result value
// instead of propagating. That includes panics; a connectivity probe must
// report, not crash.
func RunConnectionTest(ctx context.Context, a Adapter, creds Credentials) (result ConnectionTestResult) {
	defer func() {
		if r := recover(); r != nil {
			result = ConnectionTestResult{Error: fmt.Sprintf("connection test panicked: %v", r)}
		}
	}()

	token, err := a.Authenticate(ctx, creds)
	if err != nil {
		return ConnectionTestResult{Error: err.Error()}
	}
	vehicles, err := a.Vehicles(ctx, token)
	if err != nil {
		return ConnectionTestResult{Error: err.Error()}
	}
	count := len(vehicles)
	return ConnectionTestResult{Success: true, VehicleCount: &count}
}
