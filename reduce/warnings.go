package reduce

import "fmt"

// WarningKind classifies a non-fatal reducer anomaly (§7: "ReducerWarning —
// non-fatal anomaly during fold"). Warnings never abort a fold; the view
// remains usable alongside them.
type WarningKind string

const (
	WarningDuplicateArtifact   WarningKind = "DuplicateArtifactCreate"
	WarningDanglingSupersede   WarningKind = "DanglingSupersedenceTarget"
	WarningSupersedenceCycle   WarningKind = "SupersedenceCycle"
)

// Warning is one reducer anomaly, tied back to the event that triggered it.
type Warning struct {
	Kind    WarningKind
	EventID string
	Detail  string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (event %s): %s", w.Kind, w.EventID, w.Detail)
}
