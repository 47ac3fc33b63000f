// Package daemon coordinates the long-running lmbridge process.
//
// It wires configuration, the state store, and the reconcile engine into a
// single lifecycle with flock-based locking to prevent multiple instances.
// Lifecycle events are delivered to the engine one at a time under a mutex,
// which is the ordering guarantee the engine relies on. On start the daemon
// delivers process_started, then serves the host API used by the CLI and by
// the host integration.
package daemon
