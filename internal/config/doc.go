// Package config loads, normalizes, and validates lmbridge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LMBRIDGE_API_TOKEN and LIDARR_VERSION. The Config type centralizes every knob
// the daemon and CLI need, and derives the state database, auto-enable marker,
// and process lock locations from the configured state directory.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
