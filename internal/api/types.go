package api

import (
	"encoding/json"

	"lmbridge/internal/preflight"
	"lmbridge/internal/store"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Provider describes a provider definition in a transport-friendly format.
type Provider struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Implementation string          `json:"implementation"`
	Enable         bool            `json:"enable"`
	Settings       json.RawMessage `json:"settings"`
}

// ProviderRequest creates or edits a definition. On update, zero fields keep
// the stored value.
type ProviderRequest struct {
	Name           string          `json:"name,omitempty"`
	Implementation string          `json:"implementation,omitempty"`
	Enable         *bool           `json:"enable,omitempty"`
	Settings       json.RawMessage `json:"settings,omitempty"`
}

// ProviderResponse returns the definition after reconciliation plus any
// validation warnings.
type ProviderResponse struct {
	Provider Provider `json:"provider"`
	Warnings []string `json:"warnings,omitempty"`
}

// ProviderListResponse wraps a provider listing.
type ProviderListResponse struct {
	Providers []Provider `json:"providers"`
}

// MetadataSourceResponse reports the host's shared metadata source slot.
type MetadataSourceResponse struct {
	MetadataSource string `json:"metadataSource"`
}

// AlbumsRequest replaces the album library used by forced rescans.
type AlbumsRequest struct {
	Albums []store.Album `json:"albums"`
}

// AlbumsResponse reports how many albums were stored.
type AlbumsResponse struct {
	Count int `json:"count"`
}

// Command describes a queued album refresh.
type Command struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AlbumID     int64  `json:"albumId"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
}

// CommandListResponse wraps a command listing.
type CommandListResponse struct {
	Commands []Command `json:"commands"`
}

// Status aggregates runtime information.
type Status struct {
	Running           bool               `json:"running"`
	PID               int                `json:"pid,omitempty"`
	DatabasePath      string             `json:"databasePath"`
	LockPath          string             `json:"lockPath"`
	MarkerPath        string             `json:"markerPath"`
	MetadataSource    string             `json:"metadataSource"`
	Providers         int                `json:"providers"`
	EnabledProviders  int                `json:"enabledProviders"`
	ActiveProvider    *Provider          `json:"activeProvider,omitempty"`
	PendingCommands   int                `json:"pendingCommands"`
	LastReleaseFilter json.RawMessage    `json:"lastReleaseFilter,omitempty"`
	Checks            []preflight.Result `json:"checks,omitempty"`
}

// ErrorResponse is the body of every non-2xx API answer.
type ErrorResponse struct {
	Error string `json:"error"`
}
