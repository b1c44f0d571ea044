package reduce

import (
	"testing"

	"github.com/pathwaylearn/pathway-core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldArtifacts_SupersedenceChain(t *testing.T) {
	events := []*event.Envelope{
		mustEvent(t, "e1", 1, "", "", "", event.KindArtifactCreated, event.ArtifactCreatedPayload{ArtifactID: "a1", ArtifactType: event.ArtifactCode, SideEffects: event.SideEffectsNone}),
		mustEvent(t, "e2", 2, "", "", "", event.KindArtifactCreated, event.ArtifactCreatedPayload{ArtifactID: "a2", ArtifactType: event.ArtifactCode, SideEffects: event.SideEffectsNone}),
		mustEvent(t, "e3", 3, "", "", "", event.KindArtifactSuperseded, event.ArtifactSupersededPayload{OldArtifactID: "a1", NewArtifactID: "a2"}),
		mustEvent(t, "e4", 4, "", "", "", event.KindArtifactCreated, event.ArtifactCreatedPayload{ArtifactID: "a3", ArtifactType: event.ArtifactCode, SideEffects: event.SideEffectsNone}),
		mustEvent(t, "e5", 5, "", "", "", event.KindArtifactSuperseded, event.ArtifactSupersededPayload{OldArtifactID: "a2", NewArtifactID: "a3"}),
	}

	view, warnings := FoldArtifacts(events)
	assert.Empty(t, warnings)
	require.Len(t, view.Chains, 1)
	assert.Equal(t, Chain{"a1", "a2", "a3"}, view.Chains[0])
	assert.ElementsMatch(t, []string{"a3"}, view.ActiveArtifacts())
	assert.ElementsMatch(t, []string{"a1", "a2"}, view.SupersededArtifacts())
}

func TestFoldArtifacts_DuplicateCreateKeepsFirstAndWarns(t *testing.T) {
	events := []*event.Envelope{
		mustEvent(t, "e1", 1, "", "", "", event.KindArtifactCreated, event.ArtifactCreatedPayload{ArtifactID: "a1", ArtifactType: event.ArtifactCode, SideEffects: event.SideEffectsNone, URI: "first"}),
		mustEvent(t, "e2", 2, "", "", "", event.KindArtifactCreated, event.ArtifactCreatedPayload{ArtifactID: "a1", ArtifactType: event.ArtifactDoc, SideEffects: event.SideEffectsNone, URI: "second"}),
	}
	view, warnings := FoldArtifacts(events)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarningDuplicateArtifact, warnings[0].Kind)
	assert.Equal(t, "e1", view.Artifacts["a1"].CreatedEventID)
}

func TestFoldArtifacts_PendingSupersedenceResolvesOnLaterAppearance(t *testing.T) {
	events := []*event.Envelope{
		mustEvent(t, "e1", 1, "", "", "", event.KindArtifactCreated, event.ArtifactCreatedPayload{ArtifactID: "a1", ArtifactType: event.ArtifactCode, SideEffects: event.SideEffectsNone}),
		mustEvent(t, "e2", 2, "", "", "", event.KindArtifactSuperseded, event.ArtifactSupersededPayload{OldArtifactID: "a1", NewArtifactID: "a2"}),
		mustEvent(t, "e3", 3, "", "", "", event.KindArtifactCreated, event.ArtifactCreatedPayload{ArtifactID: "a2", ArtifactType: event.ArtifactCode, SideEffects: event.SideEffectsNone}),
	}
	view, warnings := FoldArtifacts(events)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarningDanglingSupersede, warnings[0].Kind)
	assert.Equal(t, "a2", view.Artifacts["a1"].SupersededBy)
	assert.Equal(t, "", view.Artifacts["a2"].SupersededBy)
}

func TestFoldArtifacts_MultipleChainsAreDeterministicallyOrdered(t *testing.T) {
	events := []*event.Envelope{
		mustEvent(t, "e1", 1, "", "", "", event.KindArtifactCreated, event.ArtifactCreatedPayload{ArtifactID: "z1", ArtifactType: event.ArtifactCode, SideEffects: event.SideEffectsNone}),
		mustEvent(t, "e2", 2, "", "", "", event.KindArtifactCreated, event.ArtifactCreatedPayload{ArtifactID: "a1", ArtifactType: event.ArtifactCode, SideEffects: event.SideEffectsNone}),
		mustEvent(t, "e3", 3, "", "", "", event.KindArtifactCreated, event.ArtifactCreatedPayload{ArtifactID: "m1", ArtifactType: event.ArtifactCode, SideEffects: event.SideEffectsNone}),
	}

	var firstChains []Chain
	var active []string
	for i := 0; i < 20; i++ {
		view, warnings := FoldArtifacts(events)
		assert.Empty(t, warnings)
		if i == 0 {
			firstChains = view.Chains
			active = view.ActiveArtifacts()
		} else {
			assert.Equal(t, firstChains, view.Chains)
			assert.Equal(t, active, view.ActiveArtifacts())
		}
	}

	require.Len(t, firstChains, 3)
	assert.Equal(t, Chain{"a1"}, firstChains[0])
	assert.Equal(t, Chain{"m1"}, firstChains[1])
	assert.Equal(t, Chain{"z1"}, firstChains[2])
	assert.Equal(t, []string{"a1", "m1", "z1"}, active)
}

func TestFoldArtifacts_CycleDetectedAndBroken(t *testing.T) {
	events := []*event.Envelope{
		mustEvent(t, "e1", 1, "", "", "", event.KindArtifactCreated, event.ArtifactCreatedPayload{ArtifactID: "a1", ArtifactType: event.ArtifactCode, SideEffects: event.SideEffectsNone}),
		mustEvent(t, "e2", 2, "", "", "", event.KindArtifactCreated, event.ArtifactCreatedPayload{ArtifactID: "a2", ArtifactType: event.ArtifactCode, SideEffects: event.SideEffectsNone}),
		mustEvent(t, "e3", 3, "", "", "", event.KindArtifactSuperseded, event.ArtifactSupersededPayload{OldArtifactID: "a1", NewArtifactID: "a2"}),
		mustEvent(t, "e4", 4, "", "", "", event.KindArtifactSuperseded, event.ArtifactSupersededPayload{OldArtifactID: "a2", NewArtifactID: "a1"}),
	}
	view, warnings := FoldArtifacts(events)

	var sawCycle bool
	for _, w := range warnings {
		if w.Kind == WarningSupersedenceCycle {
			sawCycle = true
		}
	}
	assert.True(t, sawCycle)
	require.Len(t, view.Chains, 1)
}
