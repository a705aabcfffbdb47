package services

import (
	"regexp"
	"sort"
	"strings"
)

// EANCandidate is one product suggestion returned by the knowledge base
type EANCandidate struct {
	EAN        string  `json:"ean"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
	Similarity float32 `json:"similarity"`
}

var (
	tokenRe  = regexp.MustCompile(`[\p{L}\p{N}]+`)
	amountRe = regexp.MustCompile(`(\d+\s*(?:g|kg|ml|l|litro|un))`)
)

// portuguese accent folding, enough for catalog matching
var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i", "î", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u", "û", "u",
	"ç", "c",
)

func stripAccents(s string) string {
	return accentReplacer.Replace(strings.ToLower(s))
}

// ScoreRelevance measures how well a candidate name matches the customer
// query: one point per query token present in the name, an extra half point
// for matching quantity tokens like "300 g" or "1kg"
func ScoreRelevance(query, name string) float64 {
	if strings.TrimSpace(name) == "" {
		return 0
	}
	qn := stripAccents(query)
	nn := stripAccents(name)

	var score float64
	for _, tok := range tokenRe.FindAllString(qn, -1) {
		if strings.Contains(nn, tok) {
			score += 1.0
		}
	}
	for _, m := range amountRe.FindAllString(qn, -1) {
		if strings.Contains(nn, strings.ReplaceAll(m, " ", "")) ||
			strings.Contains(nn, m) {
			score += 0.5
		}
	}
	return score
}

// RankCandidates orders candidates by relevance to the query, keeps those
// with at least one matching token, and caps the list at max. When nothing
// is relevant the first max candidates are returned so the attendant can
// still offer a substitute.
func RankCandidates(query string, candidates []EANCandidate, max int) []EANCandidate {
	if max <= 0 {
		max = 3
	}

	scored := make([]EANCandidate, len(candidates))
	copy(scored, candidates)
	for i := range scored {
		scored[i].Score = ScoreRelevance(query, scored[i].Name)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	relevant := make([]EANCandidate, 0, max)
	for _, c := range scored {
		if c.Score >= 1.0 {
			relevant = append(relevant, c)
			if len(relevant) == max {
				break
			}
		}
	}
	if len(relevant) > 0 {
		return relevant
	}
	if len(scored) > max {
		return scored[:max]
	}
	return scored
}
