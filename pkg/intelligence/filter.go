package intelligence

import (
	"strings"
	"unicode/utf8"
)

// Default admission bounds.
const (
	DefaultMinTextLength = 10
	DefaultMaxTextLength = 3000
)

// Rejection names the admission check that refused a text.
type Rejection string

const (
	// RejectNone means the text was admitted.
	RejectNone Rejection = ""

	// RejectLength means the text length is outside the configured bounds.
	RejectLength Rejection = "length"

	// RejectKeywords means none of the configured keywords occur in the text.
	RejectKeywords Rejection = "keywords"

	// RejectImportance means the importance score is below the configured minimum.
	RejectImportance Rejection = "importance"
)

// FilterRules configures the admission filter.
type FilterRules struct {
	// Enabled turns filtering on. A disabled filter admits everything.
	Enabled bool

	// MinImportance is the minimum Scorer result. Zero or negative disables the check.
	MinImportance int

	// MinTextLength and MaxTextLength bound the text length in characters, inclusive.
	MinTextLength int
	MaxTextLength int

	// Keywords, when non-empty, requires at least one of them as a substring.
	Keywords []string
}

// Filter decides whether a candidate memory is stored at all.
type Filter struct {
	rules  FilterRules
	scorer *Scorer
}

// NewFilter creates a filter. A nil scorer uses the default lexicon.
func NewFilter(rules FilterRules, scorer *Scorer) *Filter {
	if scorer == nil {
		scorer = NewDefaultScorer()
	}
	return &Filter{rules: rules, scorer: scorer}
}

// Admit reports whether text passes the filter, and which check failed otherwise.
//
// Checks run in order (length, keywords, importance) and stop at the first failure.
func (f *Filter) Admit(text string) (bool, Rejection) {
	if !f.rules.Enabled {
		return true, RejectNone
	}

	n := utf8.RuneCountInString(text)
	if n < f.rules.MinTextLength || n > f.rules.MaxTextLength {
		return false, RejectLength
	}

	if len(f.rules.Keywords) > 0 {
		found := false
		for _, kw := range f.rules.Keywords {
			if strings.Contains(text, kw) {
				found = true
				break
			}
		}
		if !found {
			return false, RejectKeywords
		}
	}

	if f.rules.MinImportance > 0 && f.scorer.Score(text) < f.rules.MinImportance {
		return false, RejectImportance
	}

	return true, RejectNone
}
