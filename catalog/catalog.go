// Package catalog is the static registry of supported telemetry providers.
// It is seeded once at init and read-only afterwards; Register exists so a
// new vendor is a registration call, not a modified switch.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/driveloop/fleetlink/fleet"
)

var (
	mu        sync.RWMutex
	providers = map[fleet.ProviderType]fleet.ProviderInfo{}
)

func init() {
	seed := []fleet.ProviderInfo{
		{
			Type:             fleet.ProviderRouteVision,
			DisplayName:      "RouteVision",
			Description:      "Dutch fleet tracking with trip registration and live positions",
			Auth:             fleet.AuthCredentials,
			Features:         allFeatures(),
			Country:          "nl",
			Popular:          true,
			CredentialFields: []string{"email", "password"},
		},
		{
			Type:             fleet.ProviderFleetGO,
			DisplayName:      "FleetGO",
			Description:      "Fleet management platform with an API-key integration",
			Auth:             fleet.AuthAPIKey,
			Features:         allFeatures(),
			Country:          "nl",
			CredentialFields: []string{"apiKey"},
		},
		{
			Type:             fleet.ProviderSamsara,
			DisplayName:      "Samsara",
			Description:      "Connected operations cloud with bearer-token fleet APIs",
			Auth:             fleet.AuthAPIKey,
			Features:         allFeatures(),
			Country:          "global",
			Popular:          true,
			CredentialFields: []string{"apiKey"},
		},
		{
			Type:             fleet.ProviderWebfleet,
			DisplayName:      "Webfleet",
			Description:      "Webfleet Solutions (ex-TomTom Telematics) CSV extern interface",
			Auth:             fleet.AuthCredentials,
			Features:         allFeatures(),
			Country:          "global",
			Popular:          true,
			CredentialFields: []string{"email", "password", "accountId"},
		},
		{
			Type:             fleet.ProviderTrackJack,
			DisplayName:      "TrackJack",
			Description:      "Dutch track-and-trace service with a JSON API",
			Auth:             fleet.AuthCredentials,
			Features:         allFeatures(),
			Country:          "nl",
			CredentialFields: []string{"email", "password"},
		},
		{
			Type:             fleet.ProviderVerizon,
			DisplayName:      "Verizon Connect",
			Description:      "Verizon Connect Reveal with OAuth2 client credentials",
			Auth:             fleet.AuthOAuth2,
			Features:         allFeatures(),
			Country:          "global",
			CredentialFields: []string{"clientId", "clientSecret"},
		},
	}
	for _, info := range seed {
		if err := Register(info); err != nil {
			panic(err)
		}
	}
}

func allFeatures() []fleet.Feature {
	return []fleet.Feature{fleet.FeatureVehicles, fleet.FeatureTrips, fleet.FeatureLocations}
}

// Register adds or replaces a provider record. It is intended for init-time
// use; the catalog is treated as immutable once the process is serving.
func Register(info fleet.ProviderInfo) error {
	if info.Type == "" {
		return fmt.Errorf("provider type is required")
	}
	if info.DisplayName == "" {
		info.DisplayName = string(info.Type)
	}
	mu.Lock()
	defer mu.Unlock()
	providers[info.Type] = info
	return nil
}

// Get returns the metadata for a provider type.
func Get(t fleet.ProviderType) (fleet.ProviderInfo, error) {
	mu.RLock()
	defer mu.RUnlock()
	info, ok := providers[t]
	if !ok {
		return fleet.ProviderInfo{}, fmt.Errorf("%w: %q", fleet.ErrUnknownProvider, t)
	}
	return detach(info), nil
}

// detach copies the slice fields so callers mutating a returned record
// cannot reach back into the registry.
func detach(info fleet.ProviderInfo) fleet.ProviderInfo {
	info.Features = append([]fleet.Feature(nil), info.Features...)
	info.CredentialFields = append([]string(nil), info.CredentialFields...)
	return info
}

// List returns all providers ordered for presentation: popular vendors
// first, then alphabetically by display name.
func List() []fleet.ProviderInfo {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]fleet.ProviderInfo, 0, len(providers))
	for _, info := range providers {
		out = append(out, detach(info))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Popular != out[j].Popular {
			return out[i].Popular
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out
}
