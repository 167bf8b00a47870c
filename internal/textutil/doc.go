// Package textutil provides small text helpers: identifier validation,
// preview snippets and term-frequency fingerprints for comparing a synthesized
// transcript against its source text.
package textutil
