// Package store persists the host-side state lmbridge reconciles against:
// metadata provider definitions, the shared metadata source slot, the album
// library, and queued album refresh commands.
//
// The database is a single SQLite file under the configured state directory.
// Writes retry briefly when SQLite reports the database as busy so the CLI and
// daemon can share the file.
package store
