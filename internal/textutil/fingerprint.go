package textutil

import (
	"math"
	"strings"
	"unicode"
)

// Fingerprint is a term-frequency vector over case-folded words.
type Fingerprint struct {
	terms map[string]float64
	norm  float64
}

// NewFingerprint builds a fingerprint from text. Returns nil when text has no
// words.
func NewFingerprint(text string) *Fingerprint {
	return fingerprintOf(Terms(text))
}

// NewFingerprintFromWords builds a fingerprint from already-split words.
func NewFingerprintFromWords(words []string) *Fingerprint {
	terms := make([]string, 0, len(words))
	for _, w := range words {
		terms = append(terms, Terms(w)...)
	}
	return fingerprintOf(terms)
}

func fingerprintOf(terms []string) *Fingerprint {
	if len(terms) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(terms))
	for _, term := range terms {
		counts[term]++
	}
	var norm float64
	for _, c := range counts {
		norm += c * c
	}
	return &Fingerprint{terms: counts, norm: math.Sqrt(norm)}
}

// Terms lowercases text and splits it on anything that is not a letter or digit.
func Terms(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TermCount returns the number of distinct terms.
func (f *Fingerprint) TermCount() int {
	if f == nil {
		return 0
	}
	return len(f.terms)
}
