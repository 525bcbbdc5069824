// Package cli implements the fleetlink command line: list the provider
// catalog, test vendor connections, and pull vehicles, trips, and live
// locations through any registered adapter.
package cli

import (
	"context"
	"strings"

	"github.com/joho/godotenv"
)

func Run(ctx context.Context, args []string) int {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	if len(args) < 1 {
		printUsage()
		return 2
	}

	switch strings.TrimSpace(args[0]) {
	case "providers":
		return listProviders()
	case "test":
		return testConnection(ctx, args[1:])
	case "vehicles":
		return listVehicles(ctx, args[1:])
	case "trips":
		return listTrips(ctx, args[1:])
	case "locations":
		return listLocations(ctx, args[1:])
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		printUsage()
		return 2
	}
}
