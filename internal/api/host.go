package api

import (
	"context"

	"lmbridge/internal/store"
)

// Host is the set of operations the CLI and HTTP API expose. Service runs them
// in-process; Client forwards them to a running daemon.
type Host interface {
	ListProviders(ctx context.Context) ([]Provider, error)
	GetProvider(ctx context.Context, id int64) (Provider, error)
	CreateProvider(ctx context.Context, req ProviderRequest) (ProviderResponse, error)
	UpdateProvider(ctx context.Context, id int64, req ProviderRequest) (ProviderResponse, error)
	DeleteProvider(ctx context.Context, id int64) (Provider, error)
	MetadataSource(ctx context.Context) (string, error)
	ReplaceAlbums(ctx context.Context, albums []store.Album) (int, error)
	ListCommands(ctx context.Context, status string) ([]Command, error)
	CompleteCommand(ctx context.Context, id string) error
	Reconcile(ctx context.Context) error
	Status(ctx context.Context) (Status, error)
}
