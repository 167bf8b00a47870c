// Package server exposes the read-along services over HTTP.
//
// Routes live under /api/tracks/{track}/voices/{voice}/: word lookup by
// playback time, paginated reading with timings, timing ingest and the voice's
// HLS playlist. /metrics serves Prometheus collectors and /healthz probes the
// database. Lookup and page responses always return 200 and carry failures in
// their status field; other endpoints map error kinds to HTTP status codes.
//
// Every request gets a correlation id, taken from X-Request-ID when the client
// sends one, which is echoed back and attached to log records. A configured
// api_token requires "Authorization: Bearer <token>" on every route except
// /healthz.
package server
