package event

import (
	"encoding/json"
	"fmt"
)

// Payload structs mirror the per-kind schemas outlined in the data model.
// Unknown fields in the wire payload are never dropped: the envelope keeps
// only the original json.RawMessage and decodes it on demand, so storage and
// JSONL export round-trip losslessly even when a producer sends extra
// fields this version of the taxonomy doesn't know about.

type IntentCreatedPayload struct {
	Goal    string `json:"goal"`
	Context string `json:"context,omitempty"`
}

type TrailVersionCreatedPayload struct {
	Version   int      `json:"version"`
	Waypoints []string `json:"waypoints"`
	Rationale string   `json:"rationale,omitempty"`
}

type WaypointEnteredPayload struct {
	WaypointID string `json:"waypoint_id"`
	Kind       string `json:"kind"`
}

type ChoiceMadePayload struct {
	Options []string `json:"options"`
	Chosen  string   `json:"chosen"`
	Reason  string   `json:"reason,omitempty"`
}

type StepCompletedPayload struct {
	WaypointID string   `json:"waypoint_id"`
	Artifacts  []string `json:"artifacts,omitempty"`
	Evidence   []string `json:"evidence,omitempty"`
}

type BlockedPayload struct {
	Category      BlockCategory `json:"category"`
	Detail        string        `json:"detail"`
	SuggestedNext string        `json:"suggested_next,omitempty"`
}

type BacktrackedPayload struct {
	TargetEventID string `json:"target_event_id"`
	Reason        string `json:"reason,omitempty"`
}

type ReplannedPayload struct {
	NewTrailVersion int    `json:"new_trail_version"`
	Reason          string `json:"reason"`
}

type MergedPayload struct {
	SourceHeadIDs []string `json:"source_head_ids"`
	IntoHeadID    string   `json:"into_head_id"`
}

type ArtifactCreatedPayload struct {
	ArtifactID   string       `json:"artifact_id"`
	ArtifactType ArtifactType `json:"artifact_type"`
	SideEffects  SideEffects  `json:"side_effects"`
	URI          string       `json:"uri,omitempty"`
	Evidence     []string     `json:"evidence,omitempty"`
}

type ArtifactSupersededPayload struct {
	OldArtifactID string `json:"old_artifact_id"`
	NewArtifactID string `json:"new_artifact_id"`
	Reason        string `json:"reason,omitempty"`
}

type PreferenceLearnedPayload struct {
	Key            string  `json:"key"`
	Value          string  `json:"value"`
	ConfidenceDelta float64 `json:"confidence_delta"`
}

type ConceptLearnedPayload struct {
	ConceptID       string  `json:"concept_id"`
	Summary         string  `json:"summary"`
	ConfidenceDelta float64 `json:"confidence_delta"`
	EvidenceEventID string  `json:"evidence_event_id,omitempty"`
}

type ConstraintLearnedPayload struct {
	Key            string  `json:"key"`
	Value          string  `json:"value"`
	ConfidenceDelta float64 `json:"confidence_delta"`
}

// DecodePayload parses raw into the struct appropriate for kind. It is the
// single place that ties Kind to its payload schema (§3.1: "an event's type
// determines the permissible payload schema exactly").
func DecodePayload(kind Kind, raw json.RawMessage) (any, error) {
	var target any
	switch kind {
	case KindIntentCreated:
		target = &IntentCreatedPayload{}
	case KindTrailVersionCreated:
		target = &TrailVersionCreatedPayload{}
	case KindWaypointEntered:
		target = &WaypointEnteredPayload{}
	case KindChoiceMade:
		target = &ChoiceMadePayload{}
	case KindStepCompleted:
		target = &StepCompletedPayload{}
	case KindBlocked:
		target = &BlockedPayload{}
	case KindBacktracked:
		target = &BacktrackedPayload{}
	case KindReplanned:
		target = &ReplannedPayload{}
	case KindMerged:
		target = &MergedPayload{}
	case KindArtifactCreated:
		target = &ArtifactCreatedPayload{}
	case KindArtifactSuperseded:
		target = &ArtifactSupersededPayload{}
	case KindPreferenceLearned:
		target = &PreferenceLearnedPayload{}
	case KindConceptLearned:
		target = &ConceptLearnedPayload{}
	case KindConstraintLearned:
		target = &ConstraintLearnedPayload{}
	default:
		return nil, fmt.Errorf("event: unknown kind %q", kind)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("event: empty payload for kind %q", kind)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("event: decode payload for kind %q: %w", kind, err)
	}
	return target, nil
}
