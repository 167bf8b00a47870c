// Package timingindex answers "which word is spoken at time T" for a
// (track, voice) pair.
//
// The timeline is cut into fixed-length segments. Each lookup decodes at most
// one segment's words, cached in a bounded LRU with a TTL; concurrent misses
// on the same segment share one fetch. Writers call Invalidate after replacing
// a voice's timings so stale arrays are never served past the write.
package timingindex
