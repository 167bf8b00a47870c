// Command readalong manages read-along tracks: it stores source text and
// per-voice word timings, answers timing lookups and pages, builds HLS
// playlists for synthesized audio, and runs the HTTP server.
//
// Every data command opens the configured SQLite database directly, so it
// works whether or not `readalong serve` is running. Pass --json for
// machine-readable output.
package main
