// Package convert holds the unit and format normalization helpers shared by
// the vendor adapters: address assembly, duration parsing, imperial/metric
// conversion, and ignition-state coercion.
package convert

import (
	"regexp"
	"strconv"
	"strings"
)

const milesPerKm = 1.60934

// UnknownAddress is the placeholder for addresses with no usable parts.
// Display-oriented; callers that aggregate should treat it as absent.
const UnknownAddress = "Unknown"

// FormatAddress joins street+house number and postal code+city with a comma.
// All-empty input yields UnknownAddress.
func FormatAddress(street, houseNumber, postalCode, city string) string {
	first := strings.TrimSpace(strings.TrimSpace(street) + " " + strings.TrimSpace(houseNumber))
	second := strings.TrimSpace(strings.TrimSpace(postalCode) + " " + strings.TrimSpace(city))

	switch {
	case first != "" && second != "":
		return first + ", " + second
	case first != "":
		return first
	case second != "":
		return second
	default:
		return UnknownAddress
	}
}

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)

// ParseDurationMinutes accepts the duration formats seen across vendors:
// "HH:MM:SS" clock durations, ISO-8601 "PT#H#M#S", and bare integer strings
// that are already minutes. Seconds are discarded. Unparseable input yields
// zero; it never fails.
func ParseDurationMinutes(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	if parts := strings.Split(raw, ":"); len(parts) == 3 {
		hours, err1 := strconv.Atoi(parts[0])
		minutes, err2 := strconv.Atoi(parts[1])
		if err1 == nil && err2 == nil && hours >= 0 && minutes >= 0 {
			return hours*60 + minutes
		}
		return 0
	}

	if m := isoDurationRe.FindStringSubmatch(strings.ToUpper(raw)); m != nil {
		hours, _ := strconv.Atoi(zeroIfEmpty(m[1]))
		minutes, _ := strconv.Atoi(zeroIfEmpty(m[2]))
		return hours*60 + minutes
	}

	if minutes, err := strconv.Atoi(raw); err == nil && minutes >= 0 {
		return minutes
	}
	return 0
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// MilesToKm converts statute miles to kilometers.
func MilesToKm(miles float64) float64 { return miles * milesPerKm }

// MphToKmh converts miles per hour to kilometers per hour.
func MphToKmh(mph float64) float64 { return mph * milesPerKm }

// MetersToKm converts meters to kilometers.
func MetersToKm(meters float64) float64 { return meters / 1000 }

// IgnitionOn coerces the ignition flags vendors report ("On", "ON", 1, true,
// "1") to a boolean.
func IgnitionOn(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "on", "1", "true", "yes":
			return true
		}
		return false
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	default:
		return false
	}
}
