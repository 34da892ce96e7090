package intelligence

import (
	"sort"
	"time"
)

// DefaultEvictionImportance is the importance threshold separating important from
// unimportant memories when no positive filter minimum is configured.
const DefaultEvictionImportance = 3

// Candidate is a memory considered by PlanRetention.
type Candidate struct {
	Text      string
	Timestamp string
}

// RetentionPlan is the outcome of PlanRetention.
type RetentionPlan struct {
	// Keep lists candidate positions to keep, in rebuild order: important candidates
	// in their original order, then retained unimportant ones most recent first.
	Keep []int

	// Important is the number of candidates that scored at or above the threshold.
	Important int

	// Target is the size the store is trimmed to, floor(maxMemories * 0.7).
	Target int
}

// Discarded returns how many of n candidates the plan drops.
func (p RetentionPlan) Discarded(n int) int {
	return n - len(p.Keep)
}

// PlanRetention decides which memories survive an eviction.
//
// Candidates scoring at least minImportance are all kept. The remaining slots up to
// floor(maxMemories * 0.7) go to the most recent unimportant candidates.
func PlanRetention(candidates []Candidate, scorer *Scorer, maxMemories, minImportance int) RetentionPlan {
	if scorer == nil {
		scorer = NewDefaultScorer()
	}

	var important, unimportant []int
	for i, c := range candidates {
		if scorer.Score(c.Text) >= minImportance {
			important = append(important, i)
		} else {
			unimportant = append(unimportant, i)
		}
	}

	timestamps := make([]string, len(unimportant))
	for j, i := range unimportant {
		timestamps[j] = candidates[i].Timestamp
	}
	order := RecencyOrder(timestamps)

	target := maxMemories * 7 / 10
	keepUnimportant := target - len(important)
	if keepUnimportant < 0 {
		keepUnimportant = 0
	}
	if keepUnimportant > len(order) {
		keepUnimportant = len(order)
	}

	keep := make([]int, 0, len(important)+keepUnimportant)
	keep = append(keep, important...)
	for _, j := range order[:keepUnimportant] {
		keep = append(keep, unimportant[j])
	}

	return RetentionPlan{Keep: keep, Important: len(important), Target: target}
}

// RecencyOrder returns the positions of timestamps sorted most recent first.
//
// Timestamps that parse as ISO-8601 are compared as instants; others compare as strings
// and sort after every parseable one. The sort is stable, so equal timestamps keep
// their original relative order.
func RecencyOrder(timestamps []string) []int {
	type key struct {
		parsed bool
		at     time.Time
		raw    string
	}
	keys := make([]key, len(timestamps))
	order := make([]int, len(timestamps))
	for i, ts := range timestamps {
		at, ok := ParseTimestamp(ts)
		keys[i] = key{parsed: ok, at: at, raw: ts}
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := keys[order[a]], keys[order[b]]
		if ka.parsed != kb.parsed {
			return ka.parsed
		}
		if ka.parsed {
			return ka.at.After(kb.at)
		}
		return ka.raw > kb.raw
	})
	return order
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the ISO-8601 variants found in memory records.
// Timestamps without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
