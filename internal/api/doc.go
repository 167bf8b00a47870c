// Package api defines wire-format types and converters shared by the HTTP
// server and the CLI's JSON output. It translates store models and playlist
// results into transport-friendly DTOs so consumers do not couple to internal
// types.
//
// # Key Types
//
// TrackSummary / TrackDetail: a track plus per-voice timing statistics.
//
// PlaylistStatus / CleanupResponse: playlist readiness and cleanup outcomes,
// with byte counts also rendered for humans.
//
// ErrorResponse: the error envelope every handler uses, carrying the error
// kind and request id.
//
// # Design Notes
//
// DTOs use snake_case JSON tags to match the lookup and page payloads, which
// are served unchanged. Timestamps use RFC3339 with milliseconds.
package api
