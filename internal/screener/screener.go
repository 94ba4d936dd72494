// Package screener derives the filtered, ordered token view from a snapshot.
package screener

import (
	"sort"
	"strings"

	"dexscan/internal/model"
)

// DefaultTrendingCount is how many leading records the trending strip shows.
const DefaultTrendingCount = 8

// Matches reports whether t passes the search and chain parts of intent.
// Search is a case-insensitive substring test against name or symbol; an
// empty search matches everything.
func Matches(t *model.Token, intent model.Intent) bool {
	if intent.Chain != "" && intent.Chain != model.ChainAll && t.Chain != intent.Chain {
		return false
	}
	if intent.Search == "" {
		return true
	}
	q := strings.ToLower(intent.Search)
	return strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.Symbol), q)
}

// DeriveView returns the records matching intent, ordered by its sort field and
// direction. Ties keep their snapshot order. The input slice is not modified.
func DeriveView(tokens []model.Token, intent model.Intent) []model.Token {
	out := make([]model.Token, 0, len(tokens))
	for i := range tokens {
		if Matches(&tokens[i], intent) {
			out = append(out, tokens[i])
		}
	}

	field := intent.SortField
	if !field.Valid() {
		field = model.SortVolume
	}
	asc := intent.SortOrder == model.Asc
	sort.SliceStable(out, func(i, j int) bool {
		a, b := field.Value(&out[i]), field.Value(&out[j])
		if asc {
			return a < b
		}
		return a > b
	})
	return out
}

// Trending returns the first n records of the snapshot in store order,
// independent of any filter or sort. n <= 0 selects DefaultTrendingCount.
func Trending(tokens []model.Token, n int) []model.Token {
	if n <= 0 {
		n = DefaultTrendingCount
	}
	if n > len(tokens) {
		n = len(tokens)
	}
	out := make([]model.Token, n)
	copy(out, tokens[:n])
	return out
}
