package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/driveloop/fleetlink/fleet"
	"github.com/driveloop/fleetlink/internal/config"
	"github.com/driveloop/fleetlink/internal/profile"
)

type cliOptions struct {
	provider    string
	profilePath string
	baseURL     string
	vehicleID   string
	from        string
	to          string
	verbose     bool
}

func parseArgs(args []string) (cliOptions, []string) {
	opts := cliOptions{}
	positional := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--provider="):
			opts.provider = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(arg, "--provider=")))
		case strings.HasPrefix(arg, "--profile="):
			opts.profilePath = strings.TrimSpace(strings.TrimPrefix(arg, "--profile="))
		case strings.HasPrefix(arg, "--base-url="):
			opts.baseURL = strings.TrimSpace(strings.TrimPrefix(arg, "--base-url="))
		case strings.HasPrefix(arg, "--vehicle="):
			opts.vehicleID = strings.TrimSpace(strings.TrimPrefix(arg, "--vehicle="))
		case strings.HasPrefix(arg, "--from="):
			opts.from = strings.TrimSpace(strings.TrimPrefix(arg, "--from="))
		case strings.HasPrefix(arg, "--to="):
			opts.to = strings.TrimSpace(strings.TrimPrefix(arg, "--to="))
		case arg == "--verbose":
			opts.verbose = true
		default:
			positional = append(positional, arg)
		}
	}
	if !opts.verbose {
		opts.verbose = config.ParseBoolEnv("FLEETLINK_VERBOSE", false)
	}
	return opts, positional
}

// resolveCredentials builds the credential shape the provider expects, from a
// profile file when given and FLEETLINK_* environment variables otherwise.
func resolveCredentials(opts cliOptions, auth fleet.AuthType) (fleet.Credentials, error) {
	if opts.profilePath != "" {
		p, err := profile.Load(opts.profilePath)
		if err != nil {
			return nil, err
		}
		return p.Credentials(auth), nil
	}

	switch auth {
	case fleet.AuthCredentials:
		return fleet.SessionLogin{
			Email:     os.Getenv("FLEETLINK_EMAIL"),
			Password:  os.Getenv("FLEETLINK_PASSWORD"),
			AccountID: os.Getenv("FLEETLINK_ACCOUNT_ID"),
		}, nil
	case fleet.AuthAPIKey:
		return fleet.APIKey{
			Key:    os.Getenv("FLEETLINK_API_KEY"),
			Secret: os.Getenv("FLEETLINK_API_SECRET"),
		}, nil
	case fleet.AuthOAuth2:
		return fleet.ClientCredentials{
			ClientID:     os.Getenv("FLEETLINK_CLIENT_ID"),
			ClientSecret: os.Getenv("FLEETLINK_CLIENT_SECRET"),
		}, nil
	}
	return nil, fmt.Errorf("unsupported auth type %q", auth)
}

// parseRange resolves the trip window; the default is the last seven days.
func parseRange(opts cliOptions) (from, to time.Time, err error) {
	to = time.Now().UTC()
	from = to.AddDate(0, 0, -7)

	if opts.from != "" {
		from, err = parseTimeArg(opts.from)
		if err != nil {
			return from, to, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if opts.to != "" {
		to, err = parseTimeArg(opts.to)
		if err != nil {
			return from, to, fmt.Errorf("invalid --to: %w", err)
		}
	}
	return from, to, nil
}

func parseTimeArg(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
