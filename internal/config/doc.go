// Package config loads, normalizes, and validates readalong configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// READALONG_DATA_DIR. The Config type centralizes every knob the server and CLI
// need: storage locations, timing segmentation, cache bounds, playlist layout
// and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
