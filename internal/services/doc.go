// Package services defines shared utilities consumed by the timing, reader,
// and playlist components.
//
// Key responsibilities:
//   - Context helpers that stamp track IDs, voice IDs, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into the status strings surfaced by the read API (not_found, corrupt,
//     unavailable, and so on).
//
// Use these helpers when wiring new components so operational behaviour (error
// classification, observability) stays uniform across the subsystem.
package services
