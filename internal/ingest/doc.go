// Package ingest is the write side: it turns raw synthesizer word timings into
// packed per-segment blobs, chunks source text into synthesis segments and
// migrates blobs stored in the legacy layout.
//
// Writers for one (track, voice) pair are serialized in-process and across
// processes. Every successful write evicts the read caches for the pair.
package ingest
