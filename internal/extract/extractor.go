// Package extract converts agent-native conversation storage into the
// unified session records defined by internal/schema. One Extractor exists
// per supported agent; the Registry maps agent names to constructors.
package extract

import (
	"sort"

	"crucible/internal/schema"
	"crucible/internal/timeutil"
)

// Extractor is the contract every agent source implements.
//
// Discover must not fail because a single storage unit is corrupt or
// inaccessible: it logs, skips the unit, and returns everything else.
// Parse searches all storage units for the session and returns (nil, nil)
// when no unit has it; a nil error with a nil session is the normal
// not-found outcome, distinct from a found-but-empty session.
type Extractor interface {
	AgentName() string
	StorageLocations() []string
	Discover() ([]schema.SessionHandle, error)
	Parse(id string) (*schema.ParsedSession, error)
}

// sortHandles orders handles newest-first. Handles without a timestamp sort
// last; the sort is stable so ties keep their input order.
func sortHandles(handles []schema.SessionHandle) {
	sort.SliceStable(handles, func(i, j int) bool {
		ti, tj := handles[i].Timestamp, handles[j].Timestamp
		if ti == "" {
			return false
		}
		if tj == "" {
			return true
		}
		return timeutil.Parse(ti).After(timeutil.Parse(tj))
	})
}
