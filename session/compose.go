// Package session composes the journey, learned, and artifact reducers over
// one event stream into a single SessionState snapshot (§4.5). Composition
// is pure over the event stream: replaying the same events yields identical
// state.
package session

import (
	"context"

	"github.com/pathwaylearn/pathway-core/event"
	"github.com/pathwaylearn/pathway-core/eventstore"
	"github.com/pathwaylearn/pathway-core/pwlog"
	"github.com/pathwaylearn/pathway-core/reduce"
)

// State is the composite snapshot produced by folding a session's full
// event stream through all three reducers.
type State struct {
	Journey    reduce.JourneyView
	Learned    reduce.LearnedView
	Artifacts  reduce.ArtifactView
	EventCount int
	LatestSeq  int64
	Warnings   []reduce.Warning

	// Seqs, EventIDs, and Parents are the minimal raw-stream facts
	// validate.Invariants needs to check post-fold consistency (seq
	// gaplessness, parent/position resolution) without re-reading the
	// store. They carry no derived meaning of their own.
	Seqs     []int64
	EventIDs []string
	Parents  map[string]string // event_id -> parent_event_id, omitted when empty
}

// Compose folds an already seq-ordered event slice into a State. It never
// mutates or re-sorts events; callers are responsible for supplying them in
// seq order (e.g. via Store.GetEvents with Order: Asc).
func Compose(events []*event.Envelope) State {
	journey, jw := reduce.FoldJourney(events)
	learned, lw := reduce.FoldLearned(events)
	artifacts, aw := reduce.FoldArtifacts(events)

	var latest int64
	if n := len(events); n > 0 {
		latest = events[n-1].Seq
	}

	warnings := make([]reduce.Warning, 0, len(jw)+len(lw)+len(aw))
	warnings = append(warnings, jw...)
	warnings = append(warnings, lw...)
	warnings = append(warnings, aw...)

	seqs := make([]int64, len(events))
	ids := make([]string, len(events))
	var parents map[string]string
	for i, e := range events {
		seqs[i] = e.Seq
		ids[i] = e.EventID
		if e.ParentEventID != "" {
			if parents == nil {
				parents = make(map[string]string, len(events))
			}
			parents[e.EventID] = e.ParentEventID
		}
	}

	return State{
		Journey:    journey,
		Learned:    learned,
		Artifacts:  artifacts,
		EventCount: len(events),
		LatestSeq:  latest,
		Warnings:   warnings,
		Seqs:       seqs,
		EventIDs:   ids,
		Parents:    parents,
	}
}

// Get reads the full ordered event stream for sessionID from store and
// composes it into a State — the read path named in the external
// interfaces (§6.2: get_session_state).
func Get(ctx context.Context, store eventstore.Store, sessionID string, log *pwlog.Logger) (State, error) {
	if log == nil {
		log = pwlog.Nop()
	}
	events, err := store.GetEvents(ctx, sessionID, eventstore.Filter{Order: eventstore.Asc})
	if err != nil {
		return State{}, err
	}
	st := Compose(events)
	for _, w := range st.Warnings {
		log.Warn("reducer warning", "session_id", sessionID, "kind", w.Kind, "event_id", w.EventID, "detail", w.Detail)
	}
	return st, nil
}
