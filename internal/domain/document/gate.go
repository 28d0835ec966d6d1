package document

import "sort"

// GateResult is the outcome of a mandatory-document check.
type GateResult struct {
	Complete bool   `json:"complete"`
	Missing  []Type `json:"missing"`
}

// MissingLabels returns human-readable names for Missing.
func (g GateResult) MissingLabels() []string {
	out := make([]string, len(g.Missing))
	for i, t := range g.Missing {
		out[i] = t.Label()
	}
	return out
}

// CheckMandatory reports which required types have no non-rejected record.
// Missing is ordered by catalog position regardless of upload or argument order.
func CheckMandatory(records []Document, required []Type) GateResult {
	present := make(map[Type]struct{}, len(records))
	for _, r := range records {
		if r.Counts() {
			present[r.Type] = struct{}{}
		}
	}

	missing := make([]Type, 0, len(required))
	seen := make(map[Type]struct{}, len(required))
	for _, t := range required {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := present[t]; !ok {
			missing = append(missing, t)
		}
	}
	sort.SliceStable(missing, func(i, j int) bool {
		pi, _ := position(missing[i])
		pj, _ := position(missing[j])
		return pi < pj
	})
	return GateResult{Complete: len(missing) == 0, Missing: missing}
}
