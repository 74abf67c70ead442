// Package timeutil normalizes the timestamp shapes found in agent logs:
// epoch milliseconds, epoch seconds, ISO-8601 strings, or nothing at all.
package timeutil

import (
	"math"
	"strings"
	"time"
)

// msThreshold disambiguates epoch seconds from epoch milliseconds. Values at
// or above 1e10 are milliseconds: 1e10 seconds is year 2286, while 1e10
// milliseconds is 1970, so no real log timestamp falls on the wrong side.
const msThreshold = 1e10

// maxEpochSeconds rejects values that cannot represent a real wall clock
// (past year 9999).
const maxEpochSeconds = 253402300799

// Normalize converts a raw timestamp value into an RFC 3339 UTC string.
// It accepts nil, strings, and any numeric type that JSON decoding can
// produce. It never fails: anything unrecognizable normalizes to "".
func Normalize(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		// Already-canonical strings pass through unchanged.
		if strings.ContainsAny(t, "-T") {
			return t
		}
		return ""
	case float64:
		return fromEpoch(t)
	case float32:
		return fromEpoch(float64(t))
	case int:
		return fromEpoch(float64(t))
	case int64:
		return fromEpoch(float64(t))
	case uint64:
		return fromEpoch(float64(t))
	default:
		return ""
	}
}

func fromEpoch(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return ""
	}
	secs := f
	if f >= msThreshold {
		secs = f / 1000
	}
	if secs > maxEpochSeconds {
		return ""
	}
	sec := int64(secs)
	nsec := int64((secs - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC().Format(time.RFC3339)
}

// FromFields probes an ordered list of candidate field names on a decoded
// JSON object and returns the first one that normalizes to a timestamp.
// The order is a fixed compatibility shim across producer versions.
func FromFields(m map[string]any, fields ...string) string {
	for _, f := range fields {
		if v, ok := m[f]; ok {
			if ts := Normalize(v); ts != "" {
				return ts
			}
		}
	}
	return ""
}

// Parse interprets a normalized timestamp string, returning the zero time
// when the string is empty or not ISO-8601-shaped.
func Parse(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Min returns the earlier of two normalized timestamps, treating "" as
// unknown rather than earliest.
func Min(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if Parse(b).Before(Parse(a)) {
		return b
	}
	return a
}

// Max returns the later of two normalized timestamps.
func Max(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if Parse(b).After(Parse(a)) {
		return b
	}
	return a
}
