package server

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

// matchResult is a single fuzzy search hit.
type matchResult struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// searchLimit caps how many hits a query returns.
const searchLimit = 10

// findBySimilarity ranks candidate names against the query using a
// combination of Levenshtein distance and token Jaccard similarity.
func findBySimilarity(query string, names []string) []matchResult {
	if query == "" || len(names) == 0 {
		return nil
	}

	queryLower := strings.ToLower(query)
	queryTokens := tokenize(queryLower)

	var results []matchResult
	for _, name := range names {
		if name == "" {
			continue
		}
		score := similarityScore(queryLower, queryTokens, name)
		if score > 0.3 {
			results = append(results, matchResult{Name: name, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > searchLimit {
		results = results[:searchLimit]
	}
	return results
}

func similarityScore(queryLower string, queryTokens map[string]bool, name string) float64 {
	nameLower := strings.ToLower(name)

	if queryLower == nameLower {
		return 1.0
	}
	if strings.Contains(nameLower, queryLower) {
		return 0.95
	}

	// Levenshtein similarity over the whole strings.
	dist := levenshtein.Distance(queryLower, nameLower, nil)
	maxLen := len(queryLower)
	if len(nameLower) > maxLen {
		maxLen = len(nameLower)
	}
	lev := 1.0 - float64(dist)/float64(maxLen)

	// Jaccard similarity over tokens, for multi-word component names.
	nameTokens := tokenize(nameLower)
	inter := 0
	for t := range queryTokens {
		if nameTokens[t] {
			inter++
		}
	}
	union := len(queryTokens) + len(nameTokens) - inter
	jaccard := 0.0
	if union > 0 {
		jaccard = float64(inter) / float64(union)
	}

	if jaccard > lev {
		return jaccard
	}
	return lev
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if tok != "" {
			tokens[tok] = true
		}
	}
	return tokens
}
