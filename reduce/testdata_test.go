package reduce

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pathwaylearn/pathway-core/event"
)

// mustEvent builds a stored envelope for reducer tests. seq is assigned by
// the caller in test-declaration order, matching what the store would hand
// back after Append.
func mustEvent(t *testing.T, id string, seq int64, head, parent, waypoint string, kind event.Kind, payload any) *event.Envelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if head == "" {
		head = event.DefaultHeadID
	}
	return &event.Envelope{
		EventID:       id,
		SessionID:     "s",
		Seq:           seq,
		Type:          kind,
		Timestamp:     time.Unix(int64(seq), 0).UTC(),
		Actor:         event.Actor{Kind: event.ActorSystem},
		HeadID:        head,
		ParentEventID: parent,
		WaypointID:    waypoint,
		Payload:       raw,
	}
}
