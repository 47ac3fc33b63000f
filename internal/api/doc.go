// Package api defines wire-format types and the provider service shared by the
// daemon's HTTP API and the CLI.
//
// # Key Types
//
// Provider: transport representation of a provider definition. Settings are
// passed through as raw JSON in the host's camelCase form.
//
// Status: runtime summary combining store counts, lock/marker paths, the last
// release filter body, and preflight results.
//
// Service: provider CRUD that validates input, persists through the store, and
// delivers the matching lifecycle event to the reconcile engine.
//
// Client: HTTP client for a running daemon. Service and Client both satisfy
// Host, so CLI commands work the same whether or not the daemon is up.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Errors crossing HTTP are mapped back to the services sentinel markers so
// callers can keep using errors.Is.
package api
