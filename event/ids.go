package event

import "github.com/google/uuid"

// NewEventID generates a globally unique event identifier. The store calls
// this whenever a candidate event arrives without one.
func NewEventID() string {
	return "evt_" + uuid.NewString()
}

const (
	// MaxEventIDLength and MaxSessionIDLength bound identifier shape checks
	// (§3.1: "event_id ... ≤128 chars", "session_id ... ≤128 chars").
	MaxEventIDLength   = 128
	MaxSessionIDLength = 128
)
