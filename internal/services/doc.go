// Package services defines shared utilities consumed by the reconciler, the
// store, and the host API.
//
// Key responsibilities:
//   - Context helpers that stamp provider IDs, lifecycle event names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent API responses (bad request vs not found vs internal).
//
// Use these helpers when wiring new components so operational behaviour
// (error classification, observability) stays uniform across the module.
package services
