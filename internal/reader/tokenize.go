package reader

import "regexp"

// Token types.
const (
	TokenWord           = "word"
	TokenPunctuation    = "punctuation"
	TokenParagraphBreak = "paragraph_break"
)

// Token is one piece of source text. Concatenating the Text of every token of
// a document reproduces it byte for byte.
type Token struct {
	Type        string   `json:"type"`
	Text        string   `json:"text"`
	HasTimings  bool     `json:"has_timings"`
	StartTime   *float64 `json:"start_time,omitempty"`
	EndTime     *float64 `json:"end_time,omitempty"`
	GlobalIndex *int     `json:"global_index,omitempty"`
}

var (
	wordPattern      = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’\-][\p{L}\p{N}]+)*`)
	paragraphPattern = regexp.MustCompile(`[ \t]*\r?\n(?:[ \t]*\r?\n)+[ \t]*`)
)

// Document is tokenized source text with the token position of every word.
type Document struct {
	Tokens []Token
	// WordTokens[k] is the index in Tokens of the k-th word.
	WordTokens []int
}

// WordCount returns the number of word tokens.
func (d *Document) WordCount() int {
	return len(d.WordTokens)
}

// Tokenize splits text into paragraph breaks, words and the punctuation or
// whitespace between them.
func Tokenize(text string) *Document {
	doc := &Document{}
	pos := 0
	for _, brk := range paragraphPattern.FindAllStringIndex(text, -1) {
		doc.tokenizeParagraph(text[pos:brk[0]])
		doc.Tokens = append(doc.Tokens, Token{Type: TokenParagraphBreak, Text: text[brk[0]:brk[1]]})
		pos = brk[1]
	}
	doc.tokenizeParagraph(text[pos:])
	return doc
}

func (d *Document) tokenizeParagraph(para string) {
	pos := 0
	for _, m := range wordPattern.FindAllStringIndex(para, -1) {
		if m[0] > pos {
			d.Tokens = append(d.Tokens, Token{Type: TokenPunctuation, Text: para[pos:m[0]]})
		}
		d.WordTokens = append(d.WordTokens, len(d.Tokens))
		d.Tokens = append(d.Tokens, Token{Type: TokenWord, Text: para[m[0]:m[1]]})
		pos = m[1]
	}
	if pos < len(para) {
		d.Tokens = append(d.Tokens, Token{Type: TokenPunctuation, Text: para[pos:]})
	}
}

// CountWords returns the number of words Tokenize would find in text.
func CountWords(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// WordSpans returns the byte offsets of each word in text.
func WordSpans(text string) [][]int {
	return wordPattern.FindAllStringIndex(text, -1)
}
