package match

import (
	"math"
	"strings"

	"github.com/docket-lab/docket/pkg/domain/model"
)

// Similarity scores how closely a candidate resembles an existing action of
// the same type. The score is a weighted blend: type agreement 0.4, entity
// overlap 0.3, task text similarity 0.2, owner agreement 0.1, capped at 1.0.
func Similarity(candidate *model.Candidate, action *model.Action) float64 {
	score := 0.0

	if candidate.Type == action.Type {
		score += 0.4
	}

	score += entityOverlap(candidate.Metadata, action.Metadata) * 0.3
	score += textRatio(strings.ToLower(candidate.TaskText), strings.ToLower(action.TaskText)) * 0.2

	if candidate.Owner == action.Owner {
		score += 0.1
	}

	// The weights are exact decimals; rounding strips float drift so
	// identical inputs score exactly 1.0.
	score = math.Round(score*1e9) / 1e9

	return min(score, 1.0)
}

// entityOverlap compares the extracted entities of two metadata sets. Both
// empty counts as full agreement. One-sided absence is neutral, not
// disagreement: a message that states a PAN number must still reconcile with
// the bare request it fulfills.
func entityOverlap(fresh, existing model.Metadata) float64 {
	if fresh.IsEmpty() && existing.IsEmpty() {
		return 1.0
	}
	if fresh.IsEmpty() || existing.IsEmpty() {
		return 0.5
	}

	matches, total := 0, 0

	if fresh.PANNumber != "" && existing.PANNumber != "" {
		total++
		if fresh.PANNumber == existing.PANNumber {
			matches++
		}
	}

	if len(fresh.URLs) > 0 || len(existing.URLs) > 0 {
		total++
		if intersects(fresh.URLs, existing.URLs) {
			matches++
		}
	}

	if fresh.Deliverable != "" || existing.Deliverable != "" {
		total++
		if fresh.Deliverable == existing.Deliverable {
			matches++
		}
	}

	if total == 0 {
		return 0.0
	}
	return float64(matches) / float64(total)
}

func intersects(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if set[s] {
			return true
		}
	}
	return false
}

// textRatio measures text similarity as the Dice coefficient over character
// bigrams: 1.0 for identical strings, 0.0 for disjoint ones
func textRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) < 2 || len(b) < 2 {
		return 0.0
	}

	bigrams := func(s string) map[string]int {
		grams := make(map[string]int)
		runes := []rune(s)
		for i := 0; i+1 < len(runes); i++ {
			grams[string(runes[i:i+2])]++
		}
		return grams
	}

	ga, gb := bigrams(a), bigrams(b)
	overlap := 0
	totalA, totalB := 0, 0
	for g, n := range ga {
		totalA += n
		if m, ok := gb[g]; ok {
			overlap += min(n, m)
		}
	}
	for _, n := range gb {
		totalB += n
	}

	return 2.0 * float64(overlap) / float64(totalA+totalB)
}
