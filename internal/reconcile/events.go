package reconcile

import "lmbridge/internal/provider"

// EventKind names a host lifecycle event the engine reacts to.
type EventKind string

const (
	EventProcessStarted  EventKind = "process_started"
	EventProviderAdded   EventKind = "provider_added"
	EventProviderUpdated EventKind = "provider_updated"
	EventProviderDeleted EventKind = "provider_deleted"
)

// Event is one delivered lifecycle event. Definition is set for provider
// events and carries the record as it was when the event fired.
type Event struct {
	Kind       EventKind
	Definition *provider.Definition
}
