// Package intelligence provides the heuristics that decide which memories are kept.
//
// It contains the rule-based importance scorer, the admission filter applied before a
// memory is stored, and the retention plan used when a role's store is over capacity.
// Everything in this package is pure and deterministic.
package intelligence

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// BaseScore is the score of a text that matches no category.
	BaseScore = 1

	// MaxScore is the upper clamp of Score.
	MaxScore = 10
)

// Lexicon holds the word lists used by the importance scorer.
//
// Matching is substring based and case-insensitive. Each category contributes its
// bonus at most once, no matter how many of its words occur.
type Lexicon struct {
	// Operations are action/command words (+2).
	Operations []string

	// PartsOfDay are time-of-day words counted as a time pattern (+1).
	PartsOfDay []string

	// Devices are household-device nouns (+1).
	Devices []string

	// Sentiments are preference and emotion words (+1).
	Sentiments []string
}

// DefaultLexicon returns the built-in word lists.
//
// The Chinese lists are the ones the scorer has always used; the English entries are
// their equivalents.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Operations: []string{
			"设置", "打开", "关闭", "调整", "控制", "更改", "启动", "停止",
			"set", "turn on", "turn off", "adjust", "control", "change", "start", "stop",
		},
		PartsOfDay: []string{
			"上午", "下午", "晚上", "早上", "凌晨",
			"morning", "afternoon", "evening", "night",
		},
		Devices: []string{
			"灯", "空调", "窗帘", "电视", "音响", "温度", "湿度", "设备",
			"light", "air conditioner", "curtain", "tv", "speaker", "temperature", "humidity", "device",
		},
		Sentiments: []string{
			"喜欢", "讨厌", "满意", "不满", "希望", "期待",
			"like", "dislike", "satisfied", "unsatisfied", "hope", "expect",
		},
	}
}

// clockPattern matches digits separated by ':' or '.', e.g. "8:30" or "20.15".
var clockPattern = regexp.MustCompile(`\p{Nd}+[:.]\p{Nd}+`)

// Scorer assigns an integer importance score in [1, 10] to a memory text.
//
// Scoring rules:
//  1. Base score: 1
//  2. Contains an operation word: +2
//  3. Contains any digit: +1
//  4. Contains a time pattern or a part-of-day word: +1
//  5. Mentions a device: +1
//  6. Contains a sentiment word: +1
//
// The result is clamped to 10.
type Scorer struct {
	lexicon Lexicon
}

// NewScorer creates a scorer over the given lexicon.
func NewScorer(lexicon Lexicon) *Scorer {
	return &Scorer{lexicon: lowerLexicon(lexicon)}
}

// NewDefaultScorer creates a scorer over DefaultLexicon.
func NewDefaultScorer() *Scorer {
	return NewScorer(DefaultLexicon())
}

// Score computes the importance of text.
func (s *Scorer) Score(text string) int {
	lower := strings.ToLower(text)
	score := BaseScore

	if containsAny(lower, s.lexicon.Operations) {
		score += 2
	}
	if strings.IndexFunc(text, unicode.IsDigit) >= 0 {
		score++
	}
	if clockPattern.MatchString(text) || containsAny(lower, s.lexicon.PartsOfDay) {
		score++
	}
	if containsAny(lower, s.lexicon.Devices) {
		score++
	}
	if containsAny(lower, s.lexicon.Sentiments) {
		score++
	}

	if score > MaxScore {
		return MaxScore
	}
	return score
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func lowerLexicon(l Lexicon) Lexicon {
	lower := func(words []string) []string {
		out := make([]string, len(words))
		for i, w := range words {
			out[i] = strings.ToLower(w)
		}
		return out
	}
	return Lexicon{
		Operations: lower(l.Operations),
		PartsOfDay: lower(l.PartsOfDay),
		Devices:    lower(l.Devices),
		Sentiments: lower(l.Sentiments),
	}
}
