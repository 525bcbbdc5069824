// Package fleet defines the domain types shared by every provider adapter:
// vehicles, trips, live locations, provider metadata, and the Adapter
// contract the rest of the system consumes.
package fleet

import "time"

type ProviderType string

const (
	ProviderRouteVision ProviderType = "routevision"
	ProviderFleetGO     ProviderType = "fleetgo"
	ProviderSamsara     ProviderType = "samsara"
	ProviderWebfleet    ProviderType = "webfleet"
	ProviderTrackJack   ProviderType = "trackjack"
	ProviderVerizon     ProviderType = "verizon"
)

type AuthType string

const (
	AuthCredentials AuthType = "credentials"
	AuthAPIKey      AuthType = "api_key"
	AuthOAuth2      AuthType = "oauth2"
)

type Feature string

const (
	FeatureVehicles  Feature = "vehicles"
	FeatureTrips     Feature = "trips"
	FeatureLocations Feature = "locations"
)

// ProviderInfo is per-vendor metadata. Records are created once at process
// start by the catalog and never mutated afterwards.
type ProviderInfo struct {
	Type             ProviderType `json:"type"`
	DisplayName      string       `json:"displayName"`
	Description      string       `json:"description,omitempty"`
	Auth             AuthType     `json:"auth"`
	Features         []Feature    `json:"features,omitempty"`
	Country          string       `json:"country,omitempty"`
	Popular          bool         `json:"popular,omitempty"`
	CredentialFields []string     `json:"credentialFields,omitempty"`
}

// Vehicle is a tracked asset as reported by a vendor. This layer only reads
// vehicles; creation and updates happen on the vendor side.
type Vehicle struct {
	ID           string       `json:"id"`
	Registration string       `json:"registration"`
	Name         string       `json:"name,omitempty"`
	Brand        string       `json:"brand,omitempty"`
	Model        string       `json:"model,omitempty"`
	Active       bool         `json:"active"`
	Provider     ProviderType `json:"provider"`
}

// Address is a structured trip or location address. Formatted is always set;
// the component fields are filled only when the vendor reports them.
type Address struct {
	Street      string  `json:"street,omitempty"`
	HouseNumber string  `json:"houseNumber,omitempty"`
	PostalCode  string  `json:"postalCode,omitempty"`
	City        string  `json:"city,omitempty"`
	Formatted   string  `json:"formatted"`
	Lat         float64 `json:"lat,omitempty"`
	Lng         float64 `json:"lng,omitempty"`
}

// Trip is one vehicle movement between two points. Distances are kilometers
// and durations minutes regardless of the vendor's native units.
type Trip struct {
	ID               string       `json:"id"`
	VehicleID        string       `json:"vehicleId"`
	Registration     string       `json:"registration,omitempty"`
	DriverName       string       `json:"driverName,omitempty"`
	DepartureTime    time.Time    `json:"departureTime"`
	ArrivalTime      time.Time    `json:"arrivalTime"`
	DepartureAddress Address      `json:"departureAddress"`
	ArrivalAddress   Address      `json:"arrivalAddress"`
	DistanceKm       float64      `json:"distanceKm"`
	DurationMinutes  int          `json:"durationMinutes"`
	Private          bool         `json:"private"`
	Commute          bool         `json:"commute"`
	Manual           bool         `json:"manual"`
	Running          bool         `json:"running"`
	Provider         ProviderType `json:"provider"`
}

// Normalize enforces the trip invariants at the adapter boundary: departure
// never after arrival, distance and duration never negative, and a duration
// derived from the timestamps when the vendor did not supply one. Trips still
// in progress keep Running set and an arrival equal to the departure.
func (t *Trip) Normalize() {
	if t == nil {
		return
	}
	if t.ArrivalTime.IsZero() {
		t.Running = true
		t.ArrivalTime = t.DepartureTime
	}
	if t.ArrivalTime.Before(t.DepartureTime) {
		t.DepartureTime, t.ArrivalTime = t.ArrivalTime, t.DepartureTime
	}
	if t.DistanceKm < 0 {
		t.DistanceKm = 0
	}
	if t.DurationMinutes <= 0 {
		t.DurationMinutes = int(t.ArrivalTime.Sub(t.DepartureTime) / time.Minute)
	}
	if t.DurationMinutes < 0 {
		t.DurationMinutes = 0
	}
}

// VehicleLocation is a point-in-time snapshot; it is never persisted by this
// layer.
type VehicleLocation struct {
	VehicleID    string       `json:"vehicleId"`
	Registration string       `json:"registration,omitempty"`
	Lat          float64      `json:"lat"`
	Lng          float64      `json:"lng"`
	SpeedKmh     float64      `json:"speedKmh"`
	Heading      float64      `json:"heading"`
	Timestamp    time.Time    `json:"timestamp"`
	Address      string       `json:"address,omitempty"`
	IgnitionOn   bool         `json:"ignitionOn"`
	Provider     ProviderType `json:"provider"`
}

// ConnectionTestResult is the value returned by a connectivity probe.
type ConnectionTestResult struct {
	Success      bool   `json:"success"`
	VehicleCount *int   `json:"vehicleCount,omitempty"`
	Error        string `json:"error,omitempty"`
}
