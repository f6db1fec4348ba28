package cache

import (
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/ltx/internal/models"
	"github.com/hbollon/go-edlib"
)

// DefaultThreshold is the minimum similarity a title and at least one artist must reach.
//
// It is a guess at a decent heuristic, not a contract: some false positives and negatives are expected.
const DefaultThreshold = 0.7

// Validator decides whether a search hit plausibly is the track that was searched for.
//
// Search services return their best fuzzy match even when the track does not exist in their catalog,
// so a hit is only accepted when both the title and one of the artists are close to the query.
type Validator struct {
	Threshold float64
}

// NewValidator creates a [Validator]. A threshold outside (0, 1] falls back to [DefaultThreshold].
func NewValidator(threshold float64) Validator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return Validator{Threshold: threshold}
}

// Score reports whether candidate is accepted as a match for query.
func (v Validator) Score(query models.Track, candidate models.Record) bool {
	threshold := v.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	if Similarity(titleString(query.Title), titleString(candidate.Title)) < threshold {
		return false
	}

	artist := artistString(query.Artist)
	for _, a := range candidate.Artists {
		if Similarity(artist, artistString(a)) >= threshold {
			return true
		}
	}
	return false
}

// Similarity returns the normalized Damerau-Levenshtein similarity of a and b in [0, 1],
// where 1 means identical.
//
// The ratio is computed in float64 so that a similarity of exactly the threshold is accepted.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	n := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if n == 0 {
		return 1
	}
	d := edlib.DamerauLevenshteinDistance(a, b)
	return float64(n-d) / float64(n)
}

func artistString(artist string) string {
	return strings.TrimSpace(strings.ToLower(artist))
}

// titleString drops everything from the first parenthesis on.
// Qualifiers like "(Remastered)" or "(feat. X)" rarely agree between the query and the result.
func titleString(title string) string {
	title = strings.ToLower(title)
	if i := strings.IndexRune(title, '('); i >= 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}
