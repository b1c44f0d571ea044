package event

// Kind is the closed taxonomy of the 14 event kinds a session's log may
// contain. No event kind is ever added to or removed from a running store;
// the switch is exhaustive everywhere it appears.
type Kind string

const (
	KindIntentCreated       Kind = "IntentCreated"
	KindTrailVersionCreated Kind = "TrailVersionCreated"
	KindWaypointEntered     Kind = "WaypointEntered"
	KindChoiceMade          Kind = "ChoiceMade"
	KindStepCompleted       Kind = "StepCompleted"
	KindBlocked             Kind = "Blocked"
	KindBacktracked         Kind = "Backtracked"
	KindReplanned           Kind = "Replanned"
	KindMerged              Kind = "Merged"
	KindArtifactCreated     Kind = "ArtifactCreated"
	KindArtifactSuperseded  Kind = "ArtifactSuperseded"
	KindPreferenceLearned   Kind = "PreferenceLearned"
	KindConceptLearned      Kind = "ConceptLearned"
	KindConstraintLearned   Kind = "ConstraintLearned"
)

// knownKinds backs Valid without allocating on every call.
var knownKinds = map[Kind]bool{
	KindIntentCreated:       true,
	KindTrailVersionCreated: true,
	KindWaypointEntered:     true,
	KindChoiceMade:          true,
	KindStepCompleted:       true,
	KindBlocked:             true,
	KindBacktracked:         true,
	KindReplanned:           true,
	KindMerged:              true,
	KindArtifactCreated:     true,
	KindArtifactSuperseded:  true,
	KindPreferenceLearned:   true,
	KindConceptLearned:      true,
	KindConstraintLearned:   true,
}

// Valid reports whether k is one of the 14 recognized event kinds.
func (k Kind) Valid() bool {
	return knownKinds[k]
}

// ActorKind distinguishes who originated an event.
type ActorKind string

const (
	ActorUser   ActorKind = "USER"
	ActorSystem ActorKind = "SYSTEM"
)

// BlockCategory enumerates reasons a Blocked event can cite.
type BlockCategory string

const (
	BlockMissingInfo   BlockCategory = "MISSING_INFO"
	BlockExternalDep   BlockCategory = "EXTERNAL_DEPENDENCY"
	BlockToolFailure   BlockCategory = "TOOL_FAILURE"
	BlockAmbiguousGoal BlockCategory = "AMBIGUOUS_GOAL"
	BlockOther         BlockCategory = "OTHER"
)

// ArtifactType enumerates the kinds of artifact an ArtifactCreated event can produce.
type ArtifactType string

const (
	ArtifactCode   ArtifactType = "CODE"
	ArtifactDoc    ArtifactType = "DOC"
	ArtifactConfig ArtifactType = "CONFIG"
	ArtifactData   ArtifactType = "DATA"
	ArtifactOther  ArtifactType = "OTHER"
)

// SideEffects classifies the blast radius of an artifact's creation.
type SideEffects string

const (
	SideEffectsNone   SideEffects = "NONE"
	SideEffectsLocal  SideEffects = "LOCAL"
	SideEffectsRemote SideEffects = "REMOTE"
)
