// Package mood classifies free-text descriptions into one of the supported moods.
package mood

import (
	"regexp"
	"strings"

	"moodtunes/internal/core"
)

// Neutral is reported when no lexicon term matches.
const Neutral = core.MoodCalm

const negationWindow = 3

var wordPattern = regexp.MustCompile(`[a-z]+(?:'[a-z]+)?`)

// Analysis is the outcome of classifying one text.
type Analysis struct {
	Mood core.Mood `json:"mood"`
	// Score is the winning mood's share of all matched weight, in [0, 1].
	// It is 0 when nothing matched.
	Score float64 `json:"score"`
	// Matched lists the lexicon words that contributed, in text order.
	// Negated words carry a "not " prefix.
	Matched []string `json:"matched,omitempty"`
}

// Analyzer scores text against a lexicon. It is safe for concurrent use.
type Analyzer struct {
	lexicon Lexicon
}

// NewAnalyzer creates an analyzer over lex. A nil lexicon selects DefaultLexicon.
func NewAnalyzer(lex Lexicon) *Analyzer {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Analyzer{lexicon: lex}
}

// Analyze classifies text. Ties resolve in core.AllMoods order.
func (a *Analyzer) Analyze(text string) Analysis {
	tokens := wordPattern.FindAllString(strings.ToLower(text), -1)

	scores := make(map[core.Mood]float64, len(core.AllMoods))
	var matched []string
	multiplier := 1.0
	lastNegation := -negationWindow - 1

	for i, tok := range tokens {
		// a negator drops any pending intensifier
		if _, ok := negators[tok]; ok {
			lastNegation = i
			multiplier = 1.0
			continue
		}
		if m, ok := intensifiers[tok]; ok {
			multiplier *= m
			continue
		}
		term, ok := a.lexicon[tok]
		if !ok {
			multiplier = 1.0
			continue
		}

		target, word := term.Mood, tok
		if i-lastNegation <= negationWindow {
			target, word = Opposite(term.Mood), "not "+tok
			lastNegation = -negationWindow - 1
		}
		scores[target] += term.Weight * multiplier
		matched = append(matched, word)
		multiplier = 1.0
	}

	var total float64
	for _, s := range scores {
		total += s
	}
	if total == 0 {
		return Analysis{Mood: Neutral}
	}

	best := Neutral
	bestScore := -1.0
	for _, m := range core.AllMoods {
		if scores[m] > bestScore {
			best, bestScore = m, scores[m]
		}
	}
	return Analysis{Mood: best, Score: bestScore / total, Matched: matched}
}
