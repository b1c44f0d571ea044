package eventstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pathwaylearn/pathway-core/event"
)

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(rfc3339Nano, s)
}

// jsonlRecord is the flat on-disk shape of one JSONL line: envelope fields
// at the top level, payload nested, per §6.3.
type jsonlRecord struct {
	EventID       string            `json:"event_id"`
	SessionID     string            `json:"session_id"`
	Seq           int64             `json:"seq"`
	Type          event.Kind        `json:"type"`
	Timestamp     string            `json:"ts"`
	Actor         event.Actor       `json:"actor"`
	HeadID        string            `json:"head_id"`
	ParentEventID string            `json:"parent_event_id,omitempty"`
	WaypointID    string            `json:"waypoint_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
}

// ExportJSONL writes one event per line, UTF-8, in the order given. Callers
// are expected to pass events already ordered by seq (e.g. the result of
// GetEvents with Order: Asc) — export itself does not re-sort.
func ExportJSONL(w io.Writer, events []*event.Envelope) error {
	enc := json.NewEncoder(w)
	for _, e := range events {
		rec := jsonlRecord{
			EventID:       e.EventID,
			SessionID:     e.SessionID,
			Seq:           e.Seq,
			Type:          e.Type,
			Timestamp:     e.Timestamp.Format(rfc3339Nano),
			Actor:         e.Actor,
			HeadID:        e.HeadID,
			ParentEventID: e.ParentEventID,
			WaypointID:    e.WaypointID,
			Payload:       e.Payload,
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("eventstore: export jsonl: %w", err)
		}
	}
	return nil
}

const rfc3339Nano = "2006-01-02T15:04:05.999999999Z07:00"

// ImportJSONL reads one event per line and returns candidate events ready
// for re-append. If sessionIDOverride is non-empty, it replaces session_id
// on every record while preserving everything else, including the original
// seq (§6.3: "preserves everything else ... which must still be contiguous
// in file order and gapless per session after import"). Seq is carried
// through as an explicit seq on the NewEvent; the caller's store decides
// whether to honor or reject it.
func ImportJSONL(r io.Reader, sessionIDOverride string) ([]event.NewEvent, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var out []event.NewEvent
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec jsonlRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("eventstore: import jsonl: line %d: %w", lineNo, err)
		}
		ts, err := parseTimestamp(rec.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("eventstore: import jsonl: line %d: bad ts: %w", lineNo, err)
		}
		sessionID := rec.SessionID
		if sessionIDOverride != "" {
			sessionID = sessionIDOverride
		}
		out = append(out, event.NewEvent{
			EventID:       rec.EventID,
			SessionID:     sessionID,
			Seq:           rec.Seq,
			Type:          rec.Type,
			Timestamp:     ts,
			Actor:         rec.Actor,
			HeadID:        rec.HeadID,
			ParentEventID: rec.ParentEventID,
			WaypointID:    rec.WaypointID,
			Payload:       rec.Payload,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("eventstore: import jsonl: %w", err)
	}
	return out, nil
}
