// Package preflight provides readiness checks for the filesystem paths, the
// database and the HTTP server that readalong depends on.
//
// The CLI "readalong check" command runs RunAll and renders the results; the
// server runs the directory and database checks before it starts listening.
// CheckServer is informational: a stopped server is reported, not treated as a
// failure of the installation.
package preflight
