package reduce

import "github.com/pathwaylearn/pathway-core/event"

// LearnedEntry is one key/concept's accumulated state (§3.4). Value and
// Summary share a field name across preferences/constraints/concepts in the
// spec prose but keep their own struct here for clarity.
type LearnedEntry struct {
	Value           string
	Confidence      float64
	FirstSeenSeq    int64
	LastUpdatedSeq  int64
}

// ConceptEntry additionally tracks deduplicated, insertion-ordered evidence.
type ConceptEntry struct {
	Summary          string
	Confidence       float64
	EvidenceEventIDs []string
	FirstSeenSeq     int64
	LastUpdatedSeq   int64
}

// LearnedView is the derived preferences/concepts/constraints state (§3.4).
// Learning is global across branches and backtracks: the reducer never
// rewinds on Backtracked (§4.3).
type LearnedView struct {
	Preferences map[string]LearnedEntry
	Concepts    map[string]ConceptEntry
	Constraints map[string]LearnedEntry
}

// clamp bounds x to [lo, hi].
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// FoldLearned folds events, ordered by seq, into a LearnedView.
func FoldLearned(events []*event.Envelope) (LearnedView, []Warning) {
	view := LearnedView{
		Preferences: make(map[string]LearnedEntry),
		Concepts:    make(map[string]ConceptEntry),
		Constraints: make(map[string]LearnedEntry),
	}
	var warnings []Warning

	for _, e := range events {
		switch e.Type {
		case event.KindPreferenceLearned:
			payload, err := e.DecodedPayload()
			if err != nil {
				continue
			}
			p := payload.(*event.PreferenceLearnedPayload)
			view.Preferences[p.Key] = applyLearnedDelta(view.Preferences[p.Key], p.Value, p.ConfidenceDelta, e.Seq)

		case event.KindConstraintLearned:
			payload, err := e.DecodedPayload()
			if err != nil {
				continue
			}
			p := payload.(*event.ConstraintLearnedPayload)
			view.Constraints[p.Key] = applyLearnedDelta(view.Constraints[p.Key], p.Value, p.ConfidenceDelta, e.Seq)

		case event.KindConceptLearned:
			payload, err := e.DecodedPayload()
			if err != nil {
				continue
			}
			p := payload.(*event.ConceptLearnedPayload)
			existing, ok := view.Concepts[p.ConceptID]
			if !ok {
				existing = ConceptEntry{FirstSeenSeq: e.Seq}
			}
			existing.Summary = p.Summary
			existing.Confidence = clamp(existing.Confidence+p.ConfidenceDelta, 0, 1)
			existing.LastUpdatedSeq = e.Seq
			if p.EvidenceEventID != "" && !containsString(existing.EvidenceEventIDs, p.EvidenceEventID) {
				existing.EvidenceEventIDs = append(existing.EvidenceEventIDs, p.EvidenceEventID)
			}
			view.Concepts[p.ConceptID] = existing
		}
	}

	return view, warnings
}

// applyLearnedDelta implements the shared preference/constraint rule: create
// on first sight; same value accumulates confidence; changed value replaces
// the value and resets confidence to the clamped delta, keeping first_seen
// (§4.3).
func applyLearnedDelta(existing LearnedEntry, value string, delta float64, seq int64) LearnedEntry {
	if existing.FirstSeenSeq == 0 {
		return LearnedEntry{
			Value:          value,
			Confidence:     clamp(delta, 0, 1),
			FirstSeenSeq:   seq,
			LastUpdatedSeq: seq,
		}
	}
	if existing.Value == value {
		existing.Confidence = clamp(existing.Confidence+delta, 0, 1)
	} else {
		existing.Value = value
		existing.Confidence = clamp(delta, 0, 1)
	}
	existing.LastUpdatedSeq = seq
	return existing
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
