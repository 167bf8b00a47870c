// Package reader serves read-along pages: a window of timed words plus the
// punctuation-aware source tokens those words belong to.
//
// Pages partition the word sequence. Page 0 also carries any text before the
// first word and the last page carries everything after the last paged word,
// so the concatenated tokens of all pages reproduce the source exactly.
package reader
