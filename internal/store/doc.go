// Package store persists tracks, their text segments, per-voice word timing
// blobs and synthesized voice segments in SQLite.
//
// Every child row cascades with its track. Word timings and voice segments are
// replaced wholesale per (track, voice) so readers never observe a mix of two
// generations.
package store
