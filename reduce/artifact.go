package reduce

import (
	"sort"

	"github.com/pathwaylearn/pathway-core/event"
)

// ArtifactEntry is one artifact's derived state (§3.4).
type ArtifactEntry struct {
	ArtifactID      string
	Type            event.ArtifactType
	CreatedEventID  string
	WaypointID      string
	SupersededBy    string // empty if still active
}

// Chain is an ordered supersedence chain, oldest first.
type Chain []string

// ArtifactView is the derived active/superseded artifact state (§3.4).
type ArtifactView struct {
	Artifacts map[string]ArtifactEntry
	Chains    []Chain
}

// FoldArtifacts folds events, ordered by seq, into an ArtifactView. Duplicate
// ArtifactCreated keeps the first entry and emits a warning (§4.4, and the
// resolved open question in DESIGN.md). ArtifactSuperseded may reference an
// artifact not yet created; such links are held pending and applied once the
// artifact appears.
func FoldArtifacts(events []*event.Envelope) (ArtifactView, []Warning) {
	view := ArtifactView{Artifacts: make(map[string]ArtifactEntry)}
	pendingSupersede := make(map[string]string) // old_artifact_id -> new_artifact_id, old not yet created
	var warnings []Warning

	for _, e := range events {
		switch e.Type {
		case event.KindArtifactCreated:
			payload, err := e.DecodedPayload()
			if err != nil {
				continue
			}
			p := payload.(*event.ArtifactCreatedPayload)
			if _, exists := view.Artifacts[p.ArtifactID]; exists {
				warnings = append(warnings, Warning{
					Kind:    WarningDuplicateArtifact,
					EventID: e.EventID,
					Detail:  "artifact_id " + p.ArtifactID + " already created; keeping first entry",
				})
				continue
			}
			entry := ArtifactEntry{
				ArtifactID:     p.ArtifactID,
				Type:           p.ArtifactType,
				CreatedEventID: e.EventID,
				WaypointID:     e.WaypointID,
			}
			if target, ok := pendingSupersede[p.ArtifactID]; ok {
				entry.SupersededBy = target
				delete(pendingSupersede, p.ArtifactID)
			}
			view.Artifacts[p.ArtifactID] = entry

		case event.KindArtifactSuperseded:
			payload, err := e.DecodedPayload()
			if err != nil {
				continue
			}
			p := payload.(*event.ArtifactSupersededPayload)
			if old, ok := view.Artifacts[p.OldArtifactID]; ok {
				old.SupersededBy = p.NewArtifactID
				view.Artifacts[p.OldArtifactID] = old
				if _, exists := view.Artifacts[p.NewArtifactID]; !exists {
					warnings = append(warnings, Warning{
						Kind:    WarningDanglingSupersede,
						EventID: e.EventID,
						Detail:  "new_artifact_id " + p.NewArtifactID + " not yet created; link held pending",
					})
				}
			} else {
				pendingSupersede[p.OldArtifactID] = p.NewArtifactID
				warnings = append(warnings, Warning{
					Kind:    WarningDanglingSupersede,
					EventID: e.EventID,
					Detail:  "old_artifact_id " + p.OldArtifactID + " not yet created; link held pending",
				})
			}
		}
	}

	chains, cycleWarnings := buildChains(view.Artifacts)
	view.Chains = chains
	warnings = append(warnings, cycleWarnings...)

	return view, warnings
}

// buildChains walks from every artifact with no inbound supersedence link,
// following SupersededBy outward, breaking and warning on cycles.
func buildChains(artifacts map[string]ArtifactEntry) ([]Chain, []Warning) {
	hasInbound := make(map[string]bool)
	for _, a := range artifacts {
		if a.SupersededBy != "" {
			hasInbound[a.SupersededBy] = true
		}
	}

	var roots []string
	for id := range artifacts {
		if !hasInbound[id] {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)

	var chains []Chain
	var warnings []Warning
	inAnyChain := make(map[string]bool)

	walk := func(start string) {
		chain := Chain{start}
		seen := map[string]bool{start: true}
		inAnyChain[start] = true
		cur := start
		for {
			next := artifacts[cur].SupersededBy
			if next == "" {
				break
			}
			if seen[next] {
				warnings = append(warnings, Warning{
					Kind:   WarningSupersedenceCycle,
					Detail: "supersedence cycle detected and broken at artifact " + next,
				})
				break
			}
			if _, ok := artifacts[next]; !ok {
				// dangling forward link with no corresponding artifact yet
				break
			}
			chain = append(chain, next)
			seen[next] = true
			inAnyChain[next] = true
			cur = next
		}
		chains = append(chains, chain)
	}

	for _, root := range roots {
		walk(root)
	}

	// Every node in a well-formed fold is reachable from a root. A cycle
	// with no root (every member has an inbound link) would otherwise be
	// silently dropped, so sweep for leftover members and walk them too,
	// breaking at the first repeat exactly as walk() does for rooted chains.
	var leftover []string
	for id := range artifacts {
		if !inAnyChain[id] {
			leftover = append(leftover, id)
		}
	}
	sort.Strings(leftover)
	for _, id := range leftover {
		if !inAnyChain[id] {
			walk(id)
		}
	}

	return chains, warnings
}

// ActiveArtifacts returns artifact ids whose SupersededBy is unset, sorted
// for deterministic replay (§2(c), §8).
func (v ArtifactView) ActiveArtifacts() []string {
	var out []string
	for id, a := range v.Artifacts {
		if a.SupersededBy == "" {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// SupersededArtifacts returns artifact ids whose SupersededBy is set, sorted
// for deterministic replay (§2(c), §8).
func (v ArtifactView) SupersededArtifacts() []string {
	var out []string
	for id, a := range v.Artifacts {
		if a.SupersededBy != "" {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
