package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lmbridge/internal/logging"
	"lmbridge/internal/provider"
	"lmbridge/internal/releasefilter"
	"lmbridge/internal/services"
	"lmbridge/internal/store"
)

// DefinitionSource lists and persists provider definitions.
type DefinitionSource interface {
	All(ctx context.Context) ([]*provider.Definition, error)
	Update(ctx context.Context, def *provider.Definition) error
}

// ConfigSlot is the host's shared metadata source setting.
type ConfigSlot interface {
	MetadataSource(ctx context.Context) (string, error)
	SetMetadataSource(ctx context.Context, value string) error
}

// MarkerStore persists the one-time auto-enable marker.
type MarkerStore interface {
	Exists(path string) bool
	EnsureDirectory(path string) error
	WriteText(path, content string) error
}

// AlbumLister enumerates library albums for a forced rescan.
type AlbumLister interface {
	ListAlbums(ctx context.Context) ([]store.Album, error)
}

// CommandQueue accepts batches of refresh commands.
type CommandQueue interface {
	PushMany(ctx context.Context, commands []store.RefreshCommand) error
}

// Deps bundles the collaborators an Engine needs.
type Deps struct {
	Definitions DefinitionSource
	Slot        ConfigSlot
	Markers     MarkerStore
	MarkerPath  string
	Poster      releasefilter.Poster
	Albums      AlbumLister
	Commands    CommandQueue

	HostVersion   string
	PluginVersion string

	Logger *slog.Logger
	Now    func() time.Time
}

type handlerFunc func(ctx context.Context, def *provider.Definition)

// Engine reconciles provider definitions against host and bridge state.
type Engine struct {
	definitions DefinitionSource
	slot        ConfigSlot
	markers     MarkerStore
	markerPath  string
	dispatcher  *releasefilter.Dispatcher
	albums      AlbumLister
	commands    CommandQueue

	hostVersion   string
	pluginVersion string

	logger   *slog.Logger
	now      func() time.Time
	handlers map[EventKind]handlerFunc
}

// New constructs an Engine. The release filter debounce cache starts empty
// and lives as long as the Engine.
func New(deps Deps) *Engine {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		definitions:   deps.Definitions,
		slot:          deps.Slot,
		markers:       deps.Markers,
		markerPath:    deps.MarkerPath,
		dispatcher:    releasefilter.NewDispatcher(deps.Poster),
		albums:        deps.Albums,
		commands:      deps.Commands,
		hostVersion:   deps.HostVersion,
		pluginVersion: deps.PluginVersion,
		logger:        logging.NewComponentLogger(deps.Logger, "reconcile"),
		now:           now,
	}
	e.handlers = map[EventKind]handlerFunc{
		EventProcessStarted:  func(ctx context.Context, _ *provider.Definition) { e.applyFromSource(ctx, true) },
		EventProviderAdded:   func(ctx context.Context, def *provider.Definition) { e.ApplyDefinition(ctx, def, false) },
		EventProviderUpdated: func(ctx context.Context, def *provider.Definition) { e.ApplyDefinition(ctx, def, false) },
		EventProviderDeleted: func(ctx context.Context, _ *provider.Definition) { e.applyFromSource(ctx, false) },
	}
	return e
}

// Handle routes one lifecycle event to its handler. Unknown kinds are ignored.
// The handler runs to completion even if ctx is cancelled; only ctx values
// are carried over.
func (e *Engine) Handle(ctx context.Context, event Event) {
	handler, ok := e.handlers[event.Kind]
	if !ok {
		e.logger.Debug("ignoring unknown event", logging.String("kind", string(event.Kind)))
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithoutCancel(ctx)
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	ctx = services.WithEvent(ctx, string(event.Kind))
	if event.Definition != nil && event.Definition.ID != 0 {
		ctx = services.WithProviderID(ctx, event.Definition.ID)
	}
	logging.WithContext(ctx, e.logger).Debug("handling event")
	handler(ctx, event.Definition)
}

// OnProcessStarted reconciles from the full definition set and re-logs the
// current slot value even when it is unchanged.
func (e *Engine) OnProcessStarted(ctx context.Context) {
	e.Handle(ctx, Event{Kind: EventProcessStarted})
}

// OnProviderAdded applies a newly created definition.
func (e *Engine) OnProviderAdded(ctx context.Context, def *provider.Definition) {
	e.Handle(ctx, Event{Kind: EventProviderAdded, Definition: def})
}

// OnProviderUpdated applies an edited definition.
func (e *Engine) OnProviderUpdated(ctx context.Context, def *provider.Definition) {
	e.Handle(ctx, Event{Kind: EventProviderUpdated, Definition: def})
}

// OnProviderDeleted reconciles from the remaining definitions.
func (e *Engine) OnProviderDeleted(ctx context.Context, def *provider.Definition) {
	e.Handle(ctx, Event{Kind: EventProviderDeleted, Definition: def})
}

// LastDispatched returns the last release filter body delivered to the bridge.
func (e *Engine) LastDispatched() string {
	return e.dispatcher.Last()
}

func (e *Engine) log(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, e.logger)
}
