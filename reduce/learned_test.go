package reduce

import (
	"testing"

	"github.com/pathwaylearn/pathway-core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldLearned_ConfidenceClamp(t *testing.T) {
	var events []*event.Envelope
	for i := 1; i <= 3; i++ {
		events = append(events, mustEvent(t, "e", int64(i), "", "", "", event.KindPreferenceLearned,
			event.PreferenceLearnedPayload{Key: "x", Value: "y", ConfidenceDelta: 0.6}))
	}
	view, warnings := FoldLearned(events)
	assert.Empty(t, warnings)
	require.Contains(t, view.Preferences, "x")
	assert.Equal(t, 1.0, view.Preferences["x"].Confidence)
}

func TestFoldLearned_ValueChangeResetsConfidence(t *testing.T) {
	e1 := mustEvent(t, "e1", 1, "", "", "", event.KindPreferenceLearned, event.PreferenceLearnedPayload{Key: "k", Value: "a", ConfidenceDelta: 0.4})
	e2 := mustEvent(t, "e2", 2, "", "", "", event.KindPreferenceLearned, event.PreferenceLearnedPayload{Key: "k", Value: "b", ConfidenceDelta: 0.3})

	view, _ := FoldLearned([]*event.Envelope{e1, e2})
	pref := view.Preferences["k"]
	assert.Equal(t, "b", pref.Value)
	assert.Equal(t, 0.3, pref.Confidence)
	assert.EqualValues(t, 1, pref.FirstSeenSeq)
	assert.EqualValues(t, 2, pref.LastUpdatedSeq)
}

func TestFoldLearned_NegativeDeltaSaturatesAtZero(t *testing.T) {
	e1 := mustEvent(t, "e1", 1, "", "", "", event.KindPreferenceLearned, event.PreferenceLearnedPayload{Key: "k", Value: "a", ConfidenceDelta: 0.2})
	e2 := mustEvent(t, "e2", 2, "", "", "", event.KindPreferenceLearned, event.PreferenceLearnedPayload{Key: "k", Value: "a", ConfidenceDelta: -0.9})

	view, _ := FoldLearned([]*event.Envelope{e1, e2})
	assert.Equal(t, 0.0, view.Preferences["k"].Confidence)
}

func TestFoldLearned_ConceptEvidenceDeduplicatedAndOrdered(t *testing.T) {
	e1 := mustEvent(t, "e1", 1, "", "", "", event.KindConceptLearned, event.ConceptLearnedPayload{ConceptID: "c1", Summary: "first", ConfidenceDelta: 0.2, EvidenceEventID: "ev1"})
	e2 := mustEvent(t, "e2", 2, "", "", "", event.KindConceptLearned, event.ConceptLearnedPayload{ConceptID: "c1", Summary: "second", ConfidenceDelta: 0.1, EvidenceEventID: "ev1"})
	e3 := mustEvent(t, "e3", 3, "", "", "", event.KindConceptLearned, event.ConceptLearnedPayload{ConceptID: "c1", Summary: "third", ConfidenceDelta: 0.1, EvidenceEventID: "ev2"})

	view, _ := FoldLearned([]*event.Envelope{e1, e2, e3})
	c := view.Concepts["c1"]
	assert.Equal(t, "third", c.Summary)
	assert.InDelta(t, 0.4, c.Confidence, 1e-9)
	assert.Equal(t, []string{"ev1", "ev2"}, c.EvidenceEventIDs)
}

func TestFoldLearned_ConstraintLatestValueAlwaysWins(t *testing.T) {
	e1 := mustEvent(t, "e1", 1, "", "", "", event.KindConstraintLearned, event.ConstraintLearnedPayload{Key: "budget", Value: "low", ConfidenceDelta: 0.5})
	e2 := mustEvent(t, "e2", 2, "", "", "", event.KindConstraintLearned, event.ConstraintLearnedPayload{Key: "budget", Value: "high", ConfidenceDelta: 0.2})

	view, _ := FoldLearned([]*event.Envelope{e1, e2})
	c := view.Constraints["budget"]
	assert.Equal(t, "high", c.Value)
	assert.Equal(t, 0.2, c.Confidence)
}

func TestFoldLearned_BacktrackDoesNotRewindLearning(t *testing.T) {
	e1 := mustEvent(t, "e1", 1, "", "", "", event.KindPreferenceLearned, event.PreferenceLearnedPayload{Key: "k", Value: "a", ConfidenceDelta: 0.3})
	before, _ := FoldLearned([]*event.Envelope{e1})

	e2 := mustEvent(t, "e2", 2, "", "e1", "", event.KindBacktracked, event.BacktrackedPayload{TargetEventID: "e1"})
	after, _ := FoldLearned([]*event.Envelope{e1, e2})

	assert.GreaterOrEqual(t, len(after.Preferences), len(before.Preferences))
	assert.Equal(t, before.Preferences["k"], after.Preferences["k"])
}
