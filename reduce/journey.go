package reduce

import (
	"time"

	"github.com/pathwaylearn/pathway-core/event"
)

// Waypoint is one entry in a JourneyView's visited history.
type Waypoint struct {
	WaypointID string
	EventID    string
	Timestamp  time.Time
}

// JourneyView is the derived position/branch state of a session (§3.4).
type JourneyView struct {
	ActiveHeadID     string
	PositionEventID  string
	BranchTips       map[string]string // head_id -> tip event_id
	Visited          []Waypoint
	BacktrackTargets []string // ancestor chain of PositionEventID, nearest first, excluding itself
}

type headCursor struct {
	position string
}

// FoldJourney folds events, already ordered by seq, into a JourneyView.
// Branch tips always equal the highest-seq event recorded on a head — the
// glossary's definition — so they are derived generically for every event
// kind except Merged, which retires its source heads explicitly (§4.2).
func FoldJourney(events []*event.Envelope) (JourneyView, []Warning) {
	view := JourneyView{BranchTips: make(map[string]string)}
	cursors := make(map[string]*headCursor)
	parents := make(map[string]string)
	var warnings []Warning

	cursorFor := func(head string) *headCursor {
		c, ok := cursors[head]
		if !ok {
			c = &headCursor{}
			cursors[head] = c
		}
		return c
	}

	for _, e := range events {
		if e.ParentEventID != "" {
			parents[e.EventID] = e.ParentEventID
		}
		view.ActiveHeadID = e.HeadID

		switch e.Type {
		case event.KindMerged:
			payload, err := e.DecodedPayload()
			if err != nil {
				warnings = append(warnings, Warning{Kind: WarningDanglingSupersede, EventID: e.EventID, Detail: "unparsable Merged payload"})
				continue
			}
			mp := payload.(*event.MergedPayload)
			for _, src := range mp.SourceHeadIDs {
				delete(view.BranchTips, src)
				delete(cursors, src)
			}
			view.BranchTips[mp.IntoHeadID] = e.EventID
			c := cursorFor(mp.IntoHeadID)
			c.position = e.EventID
			view.ActiveHeadID = mp.IntoHeadID

		case event.KindBacktracked:
			view.BranchTips[e.HeadID] = e.EventID
			payload, err := e.DecodedPayload()
			if err == nil {
				bp := payload.(*event.BacktrackedPayload)
				cursorFor(e.HeadID).position = bp.TargetEventID
			}

		case event.KindWaypointEntered:
			view.BranchTips[e.HeadID] = e.EventID
			cursorFor(e.HeadID).position = e.EventID
			view.Visited = append(view.Visited, Waypoint{
				WaypointID: e.WaypointID,
				EventID:    e.EventID,
				Timestamp:  e.Timestamp,
			})

		case event.KindIntentCreated, event.KindTrailVersionCreated:
			view.BranchTips[e.HeadID] = e.EventID
			if e.WaypointID != "" {
				cursorFor(e.HeadID).position = e.EventID
			} else {
				cursorFor(e.HeadID) // ensure an entry exists even with no position yet
			}

		default:
			// ChoiceMade, StepCompleted, Blocked, Replanned, artifact/learned
			// kinds that still carry a head_id: advance the tip only.
			view.BranchTips[e.HeadID] = e.EventID
			cursorFor(e.HeadID)
		}
	}

	// PositionEventID stays "" when the active head has recorded no
	// position-setting event yet: no WaypointEntered, Backtracked or Merged
	// into it, and no IntentCreated/TrailVersionCreated carrying a
	// waypoint_id (e.g. a session whose only event so far is IntentCreated
	// with no waypoint_id). This is the
	// pre-waypoint state, not a violation: validate.Invariants treats an
	// empty PositionEventID as vacuously resolved and only checks
	// resolution once a position has actually been set.
	if c, ok := cursors[view.ActiveHeadID]; ok {
		view.PositionEventID = c.position
	}
	view.BacktrackTargets = ancestorChain(view.PositionEventID, parents)

	return view, warnings
}

// ancestorChain walks parent pointers from start (exclusive) to the root.
func ancestorChain(start string, parents map[string]string) []string {
	var chain []string
	cur := start
	seen := map[string]bool{cur: true}
	for {
		parent, ok := parents[cur]
		if !ok || parent == "" {
			break
		}
		if seen[parent] {
			break // defensive: malformed cyclic parentage must not loop forever
		}
		chain = append(chain, parent)
		seen[parent] = true
		cur = parent
	}
	return chain
}
