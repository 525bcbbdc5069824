package cli

import (
	"testing"
	"time"

	"github.com/driveloop/fleetlink/fleet"
)

func TestParseArgs(t *testing.T) {
	opts, positional := parseArgs([]string{
		"--provider=Samsara",
		"--vehicle=281474",
		"--from=2026-03-01",
		"--verbose",
		"extra",
	})
	if opts.provider != "samsara" {
		t.Fatalf("provider = %q", opts.provider)
	}
	if opts.vehicleID != "281474" || opts.from != "2026-03-01" || !opts.verbose {
		t.Fatalf("unexpected opts %+v", opts)
	}
	if len(positional) != 1 || positional[0] != "extra" {
		t.Fatalf("positional = %v", positional)
	}
}

func TestParseRange(t *testing.T) {
	from, to, err := parseRange(cliOptions{from: "2026-03-01", to: "2026-03-14T12:00:00Z"})
	if err != nil {
		t.Fatalf("parseRange: %v", err)
	}
	if !from.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from = %v", from)
	}
	if !to.Equal(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("to = %v", to)
	}

	if _, _, err := parseRange(cliOptions{from: "yesterday"}); err == nil {
		t.Fatal("expected error for unparseable date")
	}
}

func TestResolveCredentialsFromEnv(t *testing.T) {
	t.Setenv("FLEETLINK_EMAIL", "ops@acme.nl")
	t.Setenv("FLEETLINK_PASSWORD", "secret")
	t.Setenv("FLEETLINK_ACCOUNT_ID", "acme")

	creds, err := resolveCredentials(cliOptions{}, fleet.AuthCredentials)
	if err != nil {
		t.Fatalf("resolveCredentials: %v", err)
	}
	login, ok := creds.(fleet.SessionLogin)
	if !ok {
		t.Fatalf("expected SessionLogin, got %T", creds)
	}
	if login.Email != "ops@acme.nl" || login.AccountID != "acme" {
		t.Fatalf("unexpected login %+v", login)
	}

	t.Setenv("FLEETLINK_API_KEY", "sk_live_abc")
	creds, err = resolveCredentials(cliOptions{}, fleet.AuthAPIKey)
	if err != nil {
		t.Fatalf("resolveCredentials: %v", err)
	}
	if key, ok := creds.(fleet.APIKey); !ok || key.Key != "sk_live_abc" {
		t.Fatalf("unexpected creds %#v", creds)
	}
}
