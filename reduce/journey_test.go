package reduce

import (
	"testing"

	"github.com/pathwaylearn/pathway-core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldJourney_LearningPersistsAcrossBacktrack(t *testing.T) {
	e1 := mustEvent(t, "e1", 1, "", "", "", event.KindIntentCreated, event.IntentCreatedPayload{Goal: "x"})
	e2 := mustEvent(t, "e2", 2, "", "e1", "w1", event.KindWaypointEntered, event.WaypointEnteredPayload{WaypointID: "w1", Kind: "concept"})
	e3 := mustEvent(t, "e3", 3, "", "e2", "", event.KindPreferenceLearned, event.PreferenceLearnedPayload{Key: "style", Value: "terse", ConfidenceDelta: 0.5})
	e4 := mustEvent(t, "e4", 4, "", "e3", "", event.KindBacktracked, event.BacktrackedPayload{TargetEventID: "e1"})

	view, warnings := FoldJourney([]*event.Envelope{e1, e2, e3, e4})

	assert.Empty(t, warnings)
	assert.Equal(t, "e1", view.PositionEventID)
	require.Len(t, view.Visited, 1)
	assert.Equal(t, "w1", view.Visited[0].WaypointID)
	assert.Equal(t, "e4", view.BranchTips[event.DefaultHeadID])
}

func TestFoldJourney_BranchingOnDivergentParent(t *testing.T) {
	a := mustEvent(t, "A", 1, "", "", "w1", event.KindWaypointEntered, event.WaypointEnteredPayload{WaypointID: "w1", Kind: "concept"})
	b := mustEvent(t, "B", 2, "main", "A", "w2", event.KindWaypointEntered, event.WaypointEnteredPayload{WaypointID: "w2", Kind: "concept"})
	c := mustEvent(t, "C", 3, "alt", "A", "w3", event.KindWaypointEntered, event.WaypointEnteredPayload{WaypointID: "w3", Kind: "concept"})

	view, warnings := FoldJourney([]*event.Envelope{a, b, c})

	assert.Empty(t, warnings)
	assert.Equal(t, map[string]string{"main": "B", "alt": "C"}, view.BranchTips)
	assert.Equal(t, "alt", view.ActiveHeadID)
}

func TestFoldJourney_EmptySession(t *testing.T) {
	view, warnings := FoldJourney(nil)
	assert.Empty(t, warnings)
	assert.Empty(t, view.BranchTips)
	assert.Empty(t, view.Visited)
	assert.Equal(t, "", view.PositionEventID)
}

func TestFoldJourney_BacktrackTargetsIsAncestorChain(t *testing.T) {
	a := mustEvent(t, "A", 1, "", "", "w1", event.KindWaypointEntered, event.WaypointEnteredPayload{WaypointID: "w1"})
	b := mustEvent(t, "B", 2, "", "A", "w2", event.KindWaypointEntered, event.WaypointEnteredPayload{WaypointID: "w2"})
	c := mustEvent(t, "C", 3, "", "B", "w3", event.KindWaypointEntered, event.WaypointEnteredPayload{WaypointID: "w3"})

	view, _ := FoldJourney([]*event.Envelope{a, b, c})
	assert.Equal(t, "C", view.PositionEventID)
	assert.Equal(t, []string{"B", "A"}, view.BacktrackTargets)
}

func TestFoldJourney_ReplannedDoesNotMovePosition(t *testing.T) {
	a := mustEvent(t, "A", 1, "", "", "w1", event.KindWaypointEntered, event.WaypointEnteredPayload{WaypointID: "w1"})
	r := mustEvent(t, "R", 2, "", "A", "", event.KindReplanned, event.ReplannedPayload{NewTrailVersion: 2, Reason: "pivot"})

	view, _ := FoldJourney([]*event.Envelope{a, r})
	assert.Equal(t, "A", view.PositionEventID)
	assert.Equal(t, "R", view.BranchTips[event.DefaultHeadID])
}

func TestFoldJourney_Merged(t *testing.T) {
	a := mustEvent(t, "A", 1, "", "", "w1", event.KindWaypointEntered, event.WaypointEnteredPayload{WaypointID: "w1"})
	b := mustEvent(t, "B", 2, "alt", "A", "w2", event.KindWaypointEntered, event.WaypointEnteredPayload{WaypointID: "w2"})
	m := mustEvent(t, "M", 3, "main", "B", "", event.KindMerged, event.MergedPayload{SourceHeadIDs: []string{"alt"}, IntoHeadID: "main"})

	view, warnings := FoldJourney([]*event.Envelope{a, b, m})
	assert.Empty(t, warnings)
	_, altStillPresent := view.BranchTips["alt"]
	assert.False(t, altStillPresent)
	assert.Equal(t, "M", view.BranchTips["main"])
}
