// Package reconcile keeps the host's shared metadata source slot and the LM
// Bridge release filter in step with the user's provider definitions.
//
// The Engine reacts to host lifecycle events. On each event it picks the
// authoritative LM Bridge definition (the first enabled one in source order),
// sets or clears the shared slot, runs the one-time auto-enable decision,
// pushes the derived release filter to the bridge, and queues album refreshes
// when a definition asks for a forced rescan.
//
// Handlers never return errors. Every collaborator failure is logged as a
// warning and the next event acts as the retry. Callers must deliver events
// one at a time; the Engine does no locking of its own.
package reconcile
