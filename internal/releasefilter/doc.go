// Package releasefilter derives the release filter policy for an LM Bridge
// definition and pushes it to the bridge service.
//
// Build is pure: the same definition and version strings always produce the
// same Payload. The Dispatcher remembers the last payload it delivered and
// skips the network call when nothing changed, unless the caller forces it.
package releasefilter
