package api

import (
	"context"
	"errors"
	"log/slog"

	"lmbridge/internal/logging"
	"lmbridge/internal/provider"
	"lmbridge/internal/reconcile"
	"lmbridge/internal/store"
)

// Store abstracts the persistence the Service needs.
type Store interface {
	All(ctx context.Context) ([]*provider.Definition, error)
	Get(ctx context.Context, id int64) (*provider.Definition, error)
	Add(ctx context.Context, def *provider.Definition) (*provider.Definition, error)
	Update(ctx context.Context, def *provider.Definition) error
	Delete(ctx context.Context, id int64) (*provider.Definition, error)
	MetadataSource(ctx context.Context) (string, error)
	ReplaceAlbums(ctx context.Context, albums []store.Album) error
	ListCommands(ctx context.Context, status store.CommandStatus) ([]store.RefreshCommand, error)
	CompleteCommand(ctx context.Context, id string) error
}

// EventHandler receives lifecycle events after each mutation.
type EventHandler interface {
	Handle(ctx context.Context, event reconcile.Event)
}

// Service implements Host against a local store and event handler.
type Service struct {
	store  Store
	events EventHandler
	logger *slog.Logger
}

// NewService constructs a Service. events may be nil, in which case mutations
// are persisted without reconciliation.
func NewService(st Store, events EventHandler, logger *slog.Logger) *Service {
	if st == nil {
		return nil
	}
	return &Service{store: st, events: events, logger: logging.NewComponentLogger(logger, "provider-service")}
}

// ListProviders returns every definition.
func (s *Service) ListProviders(ctx context.Context) ([]Provider, error) {
	defs, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	return FromDefinitions(defs)
}

// GetProvider returns one definition.
func (s *Service) GetProvider(ctx context.Context, id int64) (Provider, error) {
	def, err := s.store.Get(ctx, id)
	if err != nil {
		return Provider{}, err
	}
	return FromDefinition(def)
}

// CreateProvider validates and stores a new definition, then delivers
// provider_added.
func (s *Service) CreateProvider(ctx context.Context, req ProviderRequest) (ProviderResponse, error) {
	def, err := NewDefinition(req)
	if err != nil {
		return ProviderResponse{}, err
	}
	result := provider.Validate(def)
	if err := result.Err(); err != nil {
		return ProviderResponse{}, err
	}
	added, err := s.store.Add(ctx, def)
	if err != nil {
		return ProviderResponse{}, err
	}
	s.logger.Info("provider added", logging.Int64(logging.FieldProviderID, added.ID))
	s.deliver(ctx, reconcile.Event{Kind: reconcile.EventProviderAdded, Definition: added})
	return s.respond(ctx, added.ID, result.Warnings)
}

// UpdateProvider merges req into the stored definition and delivers
// provider_updated.
func (s *Service) UpdateProvider(ctx context.Context, id int64, req ProviderRequest) (ProviderResponse, error) {
	def, err := s.store.Get(ctx, id)
	if err != nil {
		return ProviderResponse{}, err
	}
	if err := ApplyRequest(def, req); err != nil {
		return ProviderResponse{}, err
	}
	result := provider.Validate(def)
	if err := result.Err(); err != nil {
		return ProviderResponse{}, err
	}
	if err := s.store.Update(ctx, def); err != nil {
		return ProviderResponse{}, err
	}
	s.logger.Info("provider updated", logging.Int64(logging.FieldProviderID, id))
	s.deliver(ctx, reconcile.Event{Kind: reconcile.EventProviderUpdated, Definition: def})
	return s.respond(ctx, id, result.Warnings)
}

// DeleteProvider removes a definition and delivers provider_deleted.
func (s *Service) DeleteProvider(ctx context.Context, id int64) (Provider, error) {
	def, err := s.store.Delete(ctx, id)
	if err != nil {
		return Provider{}, err
	}
	s.logger.Info("provider deleted", logging.Int64(logging.FieldProviderID, id))
	s.deliver(ctx, reconcile.Event{Kind: reconcile.EventProviderDeleted, Definition: def})
	return FromDefinition(def)
}

// MetadataSource returns the shared slot value.
func (s *Service) MetadataSource(ctx context.Context) (string, error) {
	return s.store.MetadataSource(ctx)
}

// ReplaceAlbums swaps the album library.
func (s *Service) ReplaceAlbums(ctx context.Context, albums []store.Album) (int, error) {
	if err := s.store.ReplaceAlbums(ctx, albums); err != nil {
		return 0, err
	}
	return len(albums), nil
}

// ListCommands returns refresh commands, optionally filtered by status.
func (s *Service) ListCommands(ctx context.Context, status string) ([]Command, error) {
	commands, err := s.store.ListCommands(ctx, store.CommandStatus(status))
	if err != nil {
		return nil, err
	}
	out := make([]Command, 0, len(commands))
	for _, cmd := range commands {
		out = append(out, FromCommand(cmd))
	}
	return out, nil
}

// CompleteCommand marks a refresh command as completed.
func (s *Service) CompleteCommand(ctx context.Context, id string) error {
	return s.store.CompleteCommand(ctx, id)
}

// Reconcile re-runs the process_started pass.
func (s *Service) Reconcile(ctx context.Context) error {
	if s.events == nil {
		return errors.New("reconcile engine unavailable")
	}
	s.deliver(ctx, reconcile.Event{Kind: reconcile.EventProcessStarted})
	return nil
}

// Status summarizes store state. Runtime fields are left for the caller.
func (s *Service) Status(ctx context.Context) (Status, error) {
	var status Status
	slot, err := s.store.MetadataSource(ctx)
	if err != nil {
		return status, err
	}
	status.MetadataSource = slot

	defs, err := s.store.All(ctx)
	if err != nil {
		return status, err
	}
	for _, def := range defs {
		if _, ok := def.Bridge(); !ok {
			continue
		}
		status.Providers++
		if !def.Enable {
			continue
		}
		status.EnabledProviders++
		if status.ActiveProvider == nil {
			dto, err := FromDefinition(def)
			if err != nil {
				return status, err
			}
			status.ActiveProvider = &dto
		}
	}

	pending, err := s.store.ListCommands(ctx, store.CommandQueued)
	if err != nil {
		return status, err
	}
	status.PendingCommands = len(pending)
	return status, nil
}

func (s *Service) deliver(ctx context.Context, event reconcile.Event) {
	if s.events == nil {
		return
	}
	s.events.Handle(ctx, event)
}

func (s *Service) respond(ctx context.Context, id int64, warnings []string) (ProviderResponse, error) {
	def, err := s.store.Get(ctx, id)
	if err != nil {
		return ProviderResponse{}, err
	}
	dto, err := FromDefinition(def)
	if err != nil {
		return ProviderResponse{}, err
	}
	return ProviderResponse{Provider: dto, Warnings: warnings}, nil
}
