// Package rouge scores a summary against its source text with a
// ROUGE-1 (unigram set overlap) precision/recall/F1 metric.
package rouge

import (
	"math"
	"strings"
)

// Metrics holds percentages in [0,100] rounded to two decimals.
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	FScore    float64 `json:"fScore"`
}

// Score compares the distinct words of summary with those of original.
// It is insensitive to case, punctuation, word order and repetition.
func Score(original, summary string) Metrics {
	originalSet := unigrams(original)
	summarySet := unigrams(summary)

	matching := 0
	for word := range summarySet {
		if _, ok := originalSet[word]; ok {
			matching++
		}
	}

	var precision, recall, fScore float64
	if len(summarySet) > 0 {
		precision = 100 * float64(matching) / float64(len(summarySet))
	}
	if len(originalSet) > 0 {
		recall = 100 * float64(matching) / float64(len(originalSet))
	}
	if precision+recall > 0 {
		fScore = 2 * precision * recall / (precision + recall)
	}

	return Metrics{
		Precision: round2(precision),
		Recall:    round2(recall),
		FScore:    round2(fScore),
	}
}

func unigrams(text string) map[string]struct{} {
	words := strings.Fields(normalize(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// normalize lowercases text and keeps only ASCII letters, digits and whitespace.
func normalize(text string) string {
	lower := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\v', r == '\f', r == '\r':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// round2 rounds half up to two decimal places.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
