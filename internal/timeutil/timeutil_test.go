package timeutil

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"epoch ms", float64(1706000000000), "2024-01-23T08:53:20Z"},
		{"epoch seconds", float64(1706000000), "2024-01-23T08:53:20Z"},
		{"int ms", int64(1706000000000), "2024-01-23T08:53:20Z"},
		{"iso passthrough", "2025-01-15T10:00:00+00:00", "2025-01-15T10:00:00+00:00"},
		{"date only passthrough", "2024-03-01", "2024-03-01"},
		{"bare number string", "12345", ""},
		{"negative", float64(-5), ""},
		{"nan", math.NaN(), ""},
		{"positive inf", math.Inf(1), ""},
		{"negative inf", math.Inf(-1), ""},
		{"absurdly large", float64(1e30), ""},
		{"bool", true, ""},
		{"object", map[string]any{"x": 1}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeThreshold(t *testing.T) {
	// Just below the threshold: seconds. Just above: milliseconds.
	below := Normalize(float64(9999999999)) // 2286-11-20 as seconds
	if !strings.HasPrefix(below, "2286-") {
		t.Errorf("below threshold should parse as seconds, got %q", below)
	}
	above := Normalize(float64(10000000001))
	if !strings.HasPrefix(above, "1970-") {
		t.Errorf("above threshold should parse as milliseconds, got %q", above)
	}
}

func TestNormalizeProducesTSeparator(t *testing.T) {
	for _, v := range []float64{1706000000, 1706000000000, 0} {
		got := Normalize(v)
		if !strings.Contains(got, "T") {
			t.Errorf("Normalize(%v) = %q, want ISO string with T separator", v, got)
		}
	}
}

func TestNormalizeIdentityOnCanonical(t *testing.T) {
	// Normalizing an already-canonical string is the identity.
	s := Normalize(float64(1706000000))
	if again := Normalize(s); again != s {
		t.Errorf("Normalize not idempotent: %q -> %q", s, again)
	}
}

func TestFromFields(t *testing.T) {
	m := map[string]any{
		"createdAt": float64(1706000000000),
		"timestamp": "not a timestamp",
	}
	// "timestamp" is probed first but malformed, so createdAt wins.
	got := FromFields(m, "timestamp", "createdAt")
	if got != "2024-01-23T08:53:20Z" {
		t.Errorf("FromFields = %q", got)
	}

	if got := FromFields(map[string]any{}, "timestamp"); got != "" {
		t.Errorf("FromFields on empty map = %q, want empty", got)
	}
}

func TestParseLayouts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"rfc3339", "2024-01-20T08:53:20Z", "2024-01-20T08:53:20Z"},
		{"rfc3339 nano", "2024-01-20T08:53:20.123456789Z", "2024-01-20T08:53:20Z"},
		{"no zone", "2024-01-20T08:53:20", "2024-01-20T08:53:20Z"},
		{"date only", "2024-03-01", "2024-03-01T00:00:00Z"},
		{"empty", "", "0001-01-01T00:00:00Z"},
		{"garbage", "not a time", "0001-01-01T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in).UTC().Truncate(time.Second).Format(time.RFC3339)
			if got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestMinMax(t *testing.T) {
	a := "2024-01-20T00:00:00Z"
	b := "2024-03-01T00:00:00Z"

	if got := Min(a, b); got != a {
		t.Errorf("Min = %q, want %q", got, a)
	}
	if got := Max(a, b); got != b {
		t.Errorf("Max = %q, want %q", got, b)
	}
	if got := Min("", b); got != b {
		t.Errorf("Min with absent = %q, want %q", got, b)
	}
	if got := Max(a, ""); got != a {
		t.Errorf("Max with absent = %q, want %q", got, a)
	}

	// Date-only values come straight off some Cursor envelopes. They must
	// compare chronologically, not lexically against the zero time.
	if got := Max("2024-01-20", "2024-03-01"); got != "2024-03-01" {
		t.Errorf("Max with date-only = %q, want 2024-03-01", got)
	}
	if got := Min("2024-01-20", "2024-03-01"); got != "2024-01-20" {
		t.Errorf("Min with date-only = %q, want 2024-01-20", got)
	}
}
