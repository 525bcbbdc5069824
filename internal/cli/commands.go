package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/driveloop/fleetlink/catalog"
	"github.com/driveloop/fleetlink/fleet"
	"github.com/driveloop/fleetlink/observe"
	"github.com/driveloop/fleetlink/providers/factory"
	"github.com/driveloop/fleetlink/tokencache"
	cachefactory "github.com/driveloop/fleetlink/tokencache/factory"
)

func listProviders() int {
	return printJSON(catalog.List())
}

func testConnection(ctx context.Context, args []string) int {
	adapter, creds, cache, code := setup(args)
	if code != 0 {
		return code
	}
	defer closeCache(cache)

	return printJSON(adapter.TestConnection(ctx, creds))
}

func listVehicles(ctx context.Context, args []string) int {
	adapter, creds, cache, code := setup(args)
	if code != 0 {
		return code
	}
	defer closeCache(cache)

	token, err := adapter.Authenticate(ctx, creds)
	if err != nil {
		return fail(err)
	}
	vehicles, err := adapter.Vehicles(ctx, token)
	if err != nil {
		return fail(err)
	}
	return printJSON(vehicles)
}

func listTrips(ctx context.Context, args []string) int {
	opts, _ := parseArgs(args)
	if opts.vehicleID == "" {
		return fail(fmt.Errorf("trips requires --vehicle=<id>"))
	}
	from, to, err := parseRange(opts)
	if err != nil {
		return fail(err)
	}

	adapter, creds, cache, code := setup(args)
	if code != 0 {
		return code
	}
	defer closeCache(cache)

	token, err := adapter.Authenticate(ctx, creds)
	if err != nil {
		return fail(err)
	}
	trips, err := adapter.Trips(ctx, token, opts.vehicleID, from, to)
	if err != nil {
		return fail(err)
	}
	return printJSON(trips)
}

func listLocations(ctx context.Context, args []string) int {
	adapter, creds, cache, code := setup(args)
	if code != 0 {
		return code
	}
	defer closeCache(cache)

	token, err := adapter.Authenticate(ctx, creds)
	if err != nil {
		return fail(err)
	}
	locations, err := adapter.VehicleLocations(ctx, token)
	if err != nil {
		return fail(err)
	}
	return printJSON(locations)
}

// setup resolves the provider, credentials, token cache, and adapter shared
// by every data subcommand.
func setup(args []string) (fleet.Adapter, fleet.Credentials, tokencache.Cache, int) {
	opts, _ := parseArgs(args)
	if opts.provider == "" {
		return nil, nil, nil, fail(fmt.Errorf("--provider=<type> is required (see fleetlink providers)"))
	}

	info, err := catalog.Get(fleet.ProviderType(opts.provider))
	if err != nil {
		return nil, nil, nil, fail(err)
	}

	creds, err := resolveCredentials(opts, info.Auth)
	if err != nil {
		return nil, nil, nil, fail(err)
	}

	cache, err := cachefactory.FromEnv()
	if err != nil {
		return nil, nil, nil, fail(err)
	}

	var sink observe.Sink = observe.NoopSink{}
	if opts.verbose {
		sink = observe.WithTraceID(observe.NewLogSink(os.Stderr), uuid.NewString())
	}

	adapter, err := factory.New(info.Type, factory.Config{
		BaseURL: opts.baseURL,
		Cache:   cache,
		Sink:    sink,
	})
	if err != nil {
		closeCache(cache)
		return nil, nil, nil, fail(err)
	}
	return adapter, creds, cache, 0
}

func printJSON(v any) int {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fail(err)
	}
	fmt.Println(string(out))
	return 0
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "fleetlink: %v\n", err)
	return 1
}

func closeCache(cache tokencache.Cache) {
	if cache == nil {
		return
	}
	if err := cache.Close(); err != nil {
		log.Printf("token cache close failed: %v", err)
	}
}
