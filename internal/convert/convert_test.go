package convert

import (
	"math"
	"testing"
)

func TestFormatAddress(t *testing.T) {
	cases := []struct {
		street, house, postal, city string
		want                        string
	}{
		{"Hoofdstraat", "1", "3500 AA", "Utrecht", "Hoofdstraat 1, 3500 AA Utrecht"},
		{"Hoofdstraat", "", "", "", "Hoofdstraat"},
		{"", "", "1012 AB", "Amsterdam", "1012 AB Amsterdam"},
		{"Dorpsweg", "12a", "", "Ede", "Dorpsweg 12a, Ede"},
		{"", "", "", "", "Unknown"},
		{"  ", " ", " ", "  ", "Unknown"},
	}
	for _, tc := range cases {
		if got := FormatAddress(tc.street, tc.house, tc.postal, tc.city); got != tc.want {
			t.Errorf("FormatAddress(%q,%q,%q,%q) = %q, want %q",
				tc.street, tc.house, tc.postal, tc.city, got, tc.want)
		}
	}
}

func TestParseDurationMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"01:30:00", 90},
		{"00:05:59", 5},
		{"10:00:30", 600},
		{"PT2H15M", 135},
		{"PT45M", 45},
		{"PT3H", 180},
		{"pt1h30m10s", 90},
		{"45", 45},
		{"0", 0},
		{"garbage", 0},
		{"", 0},
		{"-5", 0},
		{"1:2", 0},
	}
	for _, tc := range cases {
		if got := ParseDurationMinutes(tc.in); got != tc.want {
			t.Errorf("ParseDurationMinutes(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestUnitConversions(t *testing.T) {
	if got := MilesToKm(10); math.Abs(got-16.0934) > 0.001 {
		t.Fatalf("MilesToKm(10) = %f", got)
	}
	if got := MphToKmh(60); math.Abs(got-96.5604) > 0.001 {
		t.Fatalf("MphToKmh(60) = %f", got)
	}
	if got := MetersToKm(2500); got != 2.5 {
		t.Fatalf("MetersToKm(2500) = %f", got)
	}
}

func TestIgnitionOn(t *testing.T) {
	on := []any{"On", "ON", "on", "1", "true", "yes", 1, int64(2), 0.5, true}
	for _, v := range on {
		if !IgnitionOn(v) {
			t.Errorf("IgnitionOn(%#v) = false, want true", v)
		}
	}
	off := []any{"Off", "0", "false", "", 0, int64(0), 0.0, false, nil, struct{}{}}
	for _, v := range off {
		if IgnitionOn(v) {
			t.Errorf("IgnitionOn(%#v) = true, want false", v)
		}
	}
}
