package research

import (
	"sort"
	"strings"

	"github.com/kayz/scout/internal/search"
)

const pdfBonus = 0.5

// rankResults orders results by keyword relevance, best first. The sort is
// stable: ties keep the provider's order, which usually encodes the
// provider's own relevance ranking.
func rankResults(results []search.Result, keywords []string) []search.Result {
	type scored struct {
		score  float64
		result search.Result
	}

	scoredResults := make([]scored, len(results))
	for i, r := range results {
		scoredResults[i] = scored{score: scoreResult(r, keywords), result: r}
	}

	sort.SliceStable(scoredResults, func(i, j int) bool {
		return scoredResults[i].score > scoredResults[j].score
	})

	ranked := make([]search.Result, len(scoredResults))
	for i, sr := range scoredResults {
		ranked[i] = sr.result
	}
	return ranked
}

// scoreResult counts keyword hits in title+snippet (case-insensitive
// substring match) and boosts PDF links, which tend to be papers.
func scoreResult(r search.Result, keywords []string) float64 {
	text := strings.ToLower(r.Title + " " + r.Snippet)

	var score float64
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(k)) {
			score++
		}
	}

	if strings.HasSuffix(r.Link, ".pdf") {
		score += pdfBonus
	}
	return score
}
