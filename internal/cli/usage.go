package cli

import "fmt"

func printUsage() {
	fmt.Println("FleetLink CLI")
	fmt.Println("Usage:")
	fmt.Println("  fleetlink providers")
	fmt.Println("  fleetlink test --provider=<type> [--profile=path.json]")
	fmt.Println("  fleetlink vehicles --provider=<type> [--profile=path.json]")
	fmt.Println("  fleetlink trips --provider=<type> --vehicle=<id> [--from=2026-03-01] [--to=2026-03-14]")
	fmt.Println("  fleetlink locations --provider=<type> [--profile=path.json]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --provider=TYPE     routevision | fleetgo | samsara | webfleet | trackjack | verizon")
	fmt.Println("  --profile=PATH      JSON connection profile (provider + credentials)")
	fmt.Println("  --base-url=URL      Override the vendor base URL")
	fmt.Println("  --vehicle=ID        Vehicle id for the trips subcommand")
	fmt.Println("  --from/--to=DATE    Trip window, RFC3339 or YYYY-MM-DD (default: last 7 days)")
	fmt.Println("  --verbose           Emit gateway events as JSON lines on stderr")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  FLEETLINK_EMAIL / FLEETLINK_PASSWORD / FLEETLINK_ACCOUNT_ID    session-login vendors")
	fmt.Println("  FLEETLINK_API_KEY / FLEETLINK_API_SECRET                       api-key vendors")
	fmt.Println("  FLEETLINK_CLIENT_ID / FLEETLINK_CLIENT_SECRET                  oauth2 vendors")
	fmt.Println("  FLEETLINK_TOKEN_CACHE   memory | redis | sqlite (default memory)")
	fmt.Println("  FLEETLINK_TOKEN_TTL     token cache TTL (default 14m)")
	fmt.Println("  FLEETLINK_VERBOSE       same as --verbose")
}
