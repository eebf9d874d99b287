package validator

import (
	"strings"

	"github.com/xxxsen/proofnote/internal/model"
)

// Report describes one validation pass. FellBack is set when every
// correction failed the check and the unfiltered list was returned instead.
type Report struct {
	Corrections []model.Correction
	Dropped     int
	FellBack    bool
}

// Validate keeps only the corrections whose issue text occurs in original.
func Validate(corrections []model.Correction, original string) []model.Correction {
	return Check(corrections, original).Corrections
}

// Check is Validate with the bookkeeping exposed.
func Check(corrections []model.Correction, original string) Report {
	if len(corrections) == 0 {
		return Report{Corrections: []model.Correction{}}
	}
	haystack := strings.ToLower(original)
	kept := make([]model.Correction, 0, len(corrections))
	for _, c := range corrections {
		if occurs(haystack, c.Issue) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		// nothing matched, return the unfiltered list.
		out := make([]model.Correction, len(corrections))
		copy(out, corrections)
		return Report{Corrections: out, FellBack: true}
	}
	return Report{Corrections: kept, Dropped: len(corrections) - len(kept)}
}

func occurs(lowerHaystack, issue string) bool {
	needle := strings.TrimSpace(issue)
	if needle == "" {
		return false
	}
	return strings.Contains(lowerHaystack, strings.ToLower(needle))
}
