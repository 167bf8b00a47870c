package reader

import (
	"strings"
	"testing"
)

func joinTokens(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Text)
	}
	return b.String()
}

func TestTokenizePreservesText(t *testing.T) {
	texts := []string{
		"",
		"Hello, world!",
		"  Leading space and trailing.  ",
		"First paragraph.\n\nSecond paragraph.\r\n\r\n\r\nThird — with dash.",
		"Line one\nline two stays in paragraph.",
		"Numbers 42 and 3.14, plus émigré café.",
		"...!?",
	}
	for _, text := range texts {
		doc := Tokenize(text)
		if got := joinTokens(doc.Tokens); got != text {
			t.Fatalf("token text mismatch:\n got  %q\n want %q", got, text)
		}
		if doc.WordCount() != CountWords(text) {
			t.Fatalf("word count mismatch for %q: %d vs %d", text, doc.WordCount(), CountWords(text))
		}
	}
}

func TestTokenizeWordRules(t *testing.T) {
	doc := Tokenize("Don't stop, mother-in-law; it’s 9am -- ok")
	var got []string
	for _, idx := range doc.WordTokens {
		got = append(got, doc.Tokens[idx].Text)
	}
	want := []string{"Don't", "stop", "mother-in-law", "it’s", "9am", "ok"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("words = %v, want %v", got, want)
	}
}

func TestTokenizeParagraphBreaks(t *testing.T) {
	doc := Tokenize("One.\n\n  Two.\nStill two.")
	var breaks []string
	for _, tok := range doc.Tokens {
		if tok.Type == TokenParagraphBreak {
			breaks = append(breaks, tok.Text)
		}
	}
	if len(breaks) != 1 || breaks[0] != "\n\n  " {
		t.Fatalf("unexpected breaks %q", breaks)
	}
	for _, tok := range doc.Tokens {
		if tok.Type == TokenWord && tok.GlobalIndex != nil {
			t.Fatal("document tokens must not carry page data")
		}
	}
}

func TestSameWord(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"Hello", "hello", true},
		{"it’s", "IT'S", true},
		{"ÉCOLE", "école", true},
		{"café", "café", true},
		{"world", "world.", true},
		{"Hello", "“Hello,", true},
		{"don't", "don't?!", true},
		{"—", "—", true},
		{"world", "world.s", false},
		{"hello", "world", false},
	}
	for _, tc := range cases {
		if got := SameWord(tc.a, tc.b); got != tc.want {
			t.Fatalf("SameWord(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCountDriftIgnoresAttachedPunctuation(t *testing.T) {
	source := []string{"Hello", "world", "Goodbye", "world"}
	if got := countDrift(source, []string{"Hello", "world.", "“Goodbye,", "WORLD!"}); got != 0 {
		t.Fatalf("drift = %d, want 0", got)
	}
	if got := countDrift(source, []string{"Hello", "word.", "Goodbye", "world"}); got != 1 {
		t.Fatalf("drift = %d, want 1", got)
	}
}
