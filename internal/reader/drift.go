package reader

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// normalizeWord folds case and canonical form so a synthesized transcript
// compares equal to the source spelling. Punctuation the synthesizer leaves
// attached ("world.", "“Hello,") is trimmed; a token with no letters or
// digits is compared as is.
func normalizeWord(caser cases.Caser, s string) string {
	s = norm.NFC.String(apostrophes.Replace(s))
	if core := strings.TrimFunc(s, notWordRune); core != "" {
		s = core
	}
	return caser.String(s)
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsMark(r)
}

// SameWord reports whether two spellings refer to the same word.
func SameWord(a, b string) bool {
	caser := cases.Fold()
	return normalizeWord(caser, a) == normalizeWord(caser, b)
}

// countDrift counts positions where the source token and the timed word differ.
func countDrift(source, timed []string) int {
	caser := cases.Fold()
	n := min(len(source), len(timed))
	drift := 0
	for i := 0; i < n; i++ {
		if normalizeWord(caser, source[i]) != normalizeWord(caser, timed[i]) {
			drift++
		}
	}
	return drift
}
