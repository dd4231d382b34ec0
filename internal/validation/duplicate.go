package validation

import (
	"math"
	"strings"

	"github.com/brandpulse/okrops/internal/similarity"
)

// DefaultDuplicateThreshold is the similarity above which two titles are
// considered the same objective.
const DefaultDuplicateThreshold = 0.8

// ExistingObjective is the slice of an objective the duplicate check needs.
// Callers must exclude archived objectives before building this list.
type ExistingObjective struct {
	ID    string
	Title string
}

// DuplicateMatch reports the colliding objective. Similarity is a rounded
// integer percentage.
type DuplicateMatch struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Similarity int    `json:"similarity"`
}

// CheckDuplicate compares the candidate title against every existing title
// and returns the best match at or above the threshold. Titles are
// lowercased and trimmed before scoring. Scanning all candidates and
// keeping the highest score makes the result independent of input order.
func CheckDuplicate(title string, existing []ExistingObjective, threshold float64) (DuplicateMatch, bool) {
	candidate := normalizeTitle(title)

	var (
		best      DuplicateMatch
		bestScore float64
		found     bool
	)

	for _, obj := range existing {
		score := similarity.Score(candidate, normalizeTitle(obj.Title))
		if score < threshold {
			continue
		}
		if !found || score > bestScore {
			found = true
			bestScore = score
			best = DuplicateMatch{
				ID:         obj.ID,
				Title:      obj.Title,
				Similarity: int(math.Round(score * 100)),
			}
		}
	}

	return best, found
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
