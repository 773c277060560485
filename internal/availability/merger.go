package availability

import "slices"

// Coalesce merges ranges that touch or overlap into maximal ranges, ordered by
// start. The input slice is not modified.
func Coalesce(ranges []TimeRange) []TimeRange {
	if len(ranges) == 0 {
		return []TimeRange{}
	}

	sorted := slices.Clone(ranges)
	slices.SortFunc(sorted, func(a, b TimeRange) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.End.Compare(b.End)
	})

	merged := make([]TimeRange, 0, len(sorted))
	open := sorted[0]
	for _, r := range sorted[1:] {
		if r.Start.After(open.End) {
			merged = append(merged, open)
			open = r
			continue
		}
		if r.End.After(open.End) {
			open.End = r.End
		}
	}
	return append(merged, open)
}

// ReplacementPlan is the pair of bulk calls that replaces a user's stored
// availability with an edited selection. Delete must be applied before Create.
type ReplacementPlan struct {
	Delete []TimeRange `json:"delete"`
	Create []TimeRange `json:"create"`
}

// Empty reports whether neither call is needed.
func (p ReplacementPlan) Empty() bool {
	return len(p.Delete) == 0 && len(p.Create) == 0
}

// Plan computes a wholesale replacement: every existing range is deleted
// (coalesced first so fewer ranges are sent) and every selected range is
// created. It does not try to compute a minimal diff.
func Plan(existing []TimeRange, selection SlotSet) (ReplacementPlan, error) {
	create, err := SlotsToRanges(selection)
	if err != nil {
		return ReplacementPlan{}, err
	}
	return ReplacementPlan{
		Delete: Coalesce(existing),
		Create: create,
	}, nil
}
