// Package logs reads the server log for the CLI: the last N lines, then new
// lines as they are appended. Memory stays bounded by the requested line
// count, and follow mode polls until its context ends.
package logs
