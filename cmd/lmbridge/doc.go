// Package main implements the lmbridge command line interface.
//
// The CLI edits LM Bridge provider definitions, inspects the shared metadata
// source slot, and manages queued album refresh commands. When a daemon holds
// the state lock, commands are forwarded to its HTTP API. Otherwise the CLI
// takes the lock itself and runs the reconcile engine in process, so every
// mutation is reconciled exactly as the daemon would.
package main
