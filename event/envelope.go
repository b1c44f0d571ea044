package event

import (
	"encoding/json"
	"time"
)

// DefaultHeadID is the branch label every session implicitly starts on.
const DefaultHeadID = "main"

// Actor identifies who produced an event.
type Actor struct {
	Kind ActorKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
}

// Envelope is a durable, immutable event as stored and returned by the
// event store. Seq and ID are always set once an event has been appended.
type Envelope struct {
	EventID       string          `json:"event_id"`
	SessionID     string          `json:"session_id"`
	Seq           int64           `json:"seq"`
	Type          Kind            `json:"type"`
	Timestamp     time.Time       `json:"ts"`
	Actor         Actor           `json:"actor"`
	HeadID        string          `json:"head_id"`
	ParentEventID string          `json:"parent_event_id,omitempty"`
	WaypointID    string          `json:"waypoint_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// DecodedPayload decodes e.Payload into its kind-specific struct.
func (e *Envelope) DecodedPayload() (any, error) {
	return DecodePayload(e.Type, e.Payload)
}

// NewEvent is a candidate event as submitted to the store, before Seq and
// (optionally) EventID are assigned. Append fills in whatever the caller
// left blank.
type NewEvent struct {
	EventID       string          `json:"event_id,omitempty"`
	SessionID     string          `json:"session_id"`
	Seq           int64           `json:"seq,omitempty"` // explicit seq: honored only if it is the session's next contiguous seq
	Type          Kind            `json:"type"`
	Timestamp     time.Time       `json:"ts,omitempty"`
	Actor         Actor           `json:"actor,omitempty"`
	HeadID        string          `json:"head_id,omitempty"`
	ParentEventID string          `json:"parent_event_id,omitempty"`
	WaypointID    string          `json:"waypoint_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Normalized returns a copy of n with defaults applied (head_id, actor
// kind), ready for validation and persistence.
func (n NewEvent) Normalized() NewEvent {
	if n.HeadID == "" {
		n.HeadID = DefaultHeadID
	}
	if n.Actor.Kind == "" {
		n.Actor.Kind = ActorSystem
	}
	return n
}
