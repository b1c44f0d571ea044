// Package validate implements the ingest-time checks and post-fold
// invariants described in the validation & invariants component: envelope
// well-formedness, parent/head consistency, payload schema per kind, and
// session-id shape.
package validate

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/pathwaylearn/pathway-core/event"
	"github.com/pathwaylearn/pathway-core/pwerrors"
	"github.com/pathwaylearn/pathway-core/session"
)

// sessionIDPattern allows alphanumerics plus underscore and hyphen, per §3.1.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Lookup is the minimal read surface validate needs from the event store to
// check parent/head consistency. eventstore.Store satisfies it structurally.
type Lookup interface {
	GetEvent(ctx context.Context, eventID string) (*event.Envelope, error)
	GetHeads(ctx context.Context, sessionID string) (map[string]string, error)
}

// SessionID reports whether id conforms to the session-id shape rule.
func SessionID(id string) error {
	if id == "" || len(id) > event.MaxSessionIDLength {
		return pwerrors.New(pwerrors.SessionIDShape, "session_id must be 1..%d chars, got %d", event.MaxSessionIDLength, len(id))
	}
	if !sessionIDPattern.MatchString(id) {
		return pwerrors.New(pwerrors.SessionIDShape, "session_id %q must be alphanumeric plus _/-", id)
	}
	return nil
}

// EventID reports whether id conforms to the event-id shape rule.
func EventID(id string) error {
	if id == "" || len(id) > event.MaxEventIDLength {
		return pwerrors.New(pwerrors.EventIDShape, "event_id must be 1..%d chars, got %d", event.MaxEventIDLength, len(id))
	}
	return nil
}

// Envelope performs the full ingest-time validation of a candidate event
// against the session's existing history, reached through lk.
func Envelope(ctx context.Context, n event.NewEvent, lk Lookup) error {
	if err := SessionID(n.SessionID); err != nil {
		return err
	}
	if n.EventID != "" {
		if err := EventID(n.EventID); err != nil {
			return err
		}
	}
	if !n.Type.Valid() {
		return pwerrors.New(pwerrors.UnknownEventKind, "type %q is not in the closed taxonomy", n.Type)
	}
	if n.HeadID == "" {
		return pwerrors.New(pwerrors.InvalidEnvelope, "head_id must not be empty after normalization")
	}

	payload, err := event.DecodePayload(n.Type, n.Payload)
	if err != nil {
		return pwerrors.Wrap(pwerrors.PayloadSchemaMismatch, err, "payload does not conform to schema for %q", n.Type)
	}

	if n.ParentEventID != "" {
		parent, err := lk.GetEvent(ctx, n.ParentEventID)
		if err != nil {
			return pwerrors.Wrap(pwerrors.UnknownParent, err, "parent_event_id %q not found", n.ParentEventID)
		}
		if parent.SessionID != n.SessionID {
			return pwerrors.New(pwerrors.UnknownParent, "parent_event_id %q belongs to a different session", n.ParentEventID)
		}
	}

	switch p := payload.(type) {
	case *event.BacktrackedPayload:
		target, err := lk.GetEvent(ctx, p.TargetEventID)
		if err != nil {
			return pwerrors.Wrap(pwerrors.UnknownParent, err, "Backtracked.target_event_id %q not found", p.TargetEventID)
		}
		if target.SessionID != n.SessionID {
			return pwerrors.New(pwerrors.UnknownParent, "Backtracked.target_event_id %q belongs to a different session", p.TargetEventID)
		}
	case *event.MergedPayload:
		heads, err := lk.GetHeads(ctx, n.SessionID)
		if err != nil {
			return pwerrors.Wrap(pwerrors.StoreFailure, err, "Merged: could not load heads for session %q", n.SessionID)
		}
		for _, src := range p.SourceHeadIDs {
			if _, ok := heads[src]; !ok {
				return pwerrors.New(pwerrors.InvalidEnvelope, "Merged.source_head_ids: %q is not a current branch tip", src)
			}
		}
	}

	return nil
}

// SeqGapless reports whether seqs, assumed sorted ascending, form the
// contiguous run 1..N with no gaps and no duplicates.
func SeqGapless(seqs []int64) bool {
	for i, s := range seqs {
		if s != int64(i+1) {
			return false
		}
	}
	return true
}

// ViolationKind names a post-fold invariant that a session.State failed.
type ViolationKind string

const (
	ViolationConfidenceOutOfRange ViolationKind = "ConfidenceOutOfRange"
	ViolationSeqGap               ViolationKind = "SeqGap"
	ViolationUnresolvedParent     ViolationKind = "UnresolvedParent"
	ViolationUnresolvedSupersede  ViolationKind = "UnresolvedSupersede"
	ViolationUnresolvedPosition   ViolationKind = "UnresolvedPosition"
)

// Violation is one failed post-fold invariant, named by key (a preference
// key, event id, or artifact id, depending on Kind) and a human detail.
type Violation struct {
	Kind   ViolationKind
	Key    string
	Detail string
}

// Invariants checks the five post-fold invariants a reducer pass over any
// event-stream prefix must uphold (§4.6): every confidence value is clamped
// to [0,1]; seqs are gapless; every parent_event_id resolves; every
// superseded_by resolves; and the active position_event_id is an existing
// event. It never mutates st and returns an empty, non-nil slice when all
// invariants hold.
func Invariants(st session.State) []Violation {
	violations := make([]Violation, 0)

	checkConfidence := func(key string, confidence float64) {
		if confidence < 0 || confidence > 1 {
			violations = append(violations, Violation{
				Kind:   ViolationConfidenceOutOfRange,
				Key:    key,
				Detail: fmt.Sprintf("confidence %v outside [0,1]", confidence),
			})
		}
	}
	for k, e := range st.Learned.Preferences {
		checkConfidence("preference:"+k, e.Confidence)
	}
	for k, e := range st.Learned.Constraints {
		checkConfidence("constraint:"+k, e.Confidence)
	}
	for k, e := range st.Learned.Concepts {
		checkConfidence("concept:"+k, e.Confidence)
	}

	if !SeqGapless(st.Seqs) {
		violations = append(violations, Violation{
			Kind:   ViolationSeqGap,
			Detail: fmt.Sprintf("seqs %v are not the contiguous run 1..%d", st.Seqs, len(st.Seqs)),
		})
	}

	known := make(map[string]bool, len(st.EventIDs))
	for _, id := range st.EventIDs {
		known[id] = true
	}
	for child, parent := range st.Parents {
		if parent != "" && !known[parent] {
			violations = append(violations, Violation{
				Kind:   ViolationUnresolvedParent,
				Key:    child,
				Detail: fmt.Sprintf("parent_event_id %q does not resolve to a known event", parent),
			})
		}
	}

	for id, a := range st.Artifacts.Artifacts {
		if a.SupersededBy == "" {
			continue
		}
		if _, ok := st.Artifacts.Artifacts[a.SupersededBy]; !ok {
			violations = append(violations, Violation{
				Kind:   ViolationUnresolvedSupersede,
				Key:    id,
				Detail: fmt.Sprintf("superseded_by %q does not resolve to a known artifact", a.SupersededBy),
			})
		}
	}

	if pos := st.Journey.PositionEventID; pos != "" && !known[pos] {
		violations = append(violations, Violation{
			Kind:   ViolationUnresolvedPosition,
			Key:    pos,
			Detail: fmt.Sprintf("position_event_id %q does not resolve to a known event", pos),
		})
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].Kind != violations[j].Kind {
			return violations[i].Kind < violations[j].Kind
		}
		return violations[i].Key < violations[j].Key
	})

	return violations
}
