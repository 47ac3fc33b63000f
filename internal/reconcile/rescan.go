package reconcile

import (
	"context"

	"lmbridge/internal/logging"
	"lmbridge/internal/provider"
	"lmbridge/internal/store"
)

// handleForceRescan queues one refresh per album when an enabled definition
// requests it. The flag is cleared afterwards whatever the outcome so a failed
// rescan is never retriggered by later events.
func (e *Engine) handleForceRescan(ctx context.Context, def *provider.Definition, settings *provider.BridgeSettings) {
	if !def.Enable || !settings.ForceRescanReleases {
		return
	}
	defer func() {
		settings.ForceRescanReleases = false
		if e.persist(ctx, def, "clear force rescan") {
			e.log(ctx).Info("cleared force rescan of releases flag")
		}
	}()
	e.queueAlbumRefresh(ctx)
}

func (e *Engine) queueAlbumRefresh(ctx context.Context) {
	logger := e.log(ctx)
	if e.albums == nil || e.commands == nil {
		logging.WarnWithContext(logger, "rescan requested without an album source", "rescan_unavailable",
			logging.String(logging.FieldErrorHint, "run lmbridge with a state database"),
			logging.String(logging.FieldImpact, "no albums refreshed"),
		)
		return
	}

	albums, err := e.albums.ListAlbums(ctx)
	if err != nil {
		logging.WarnWithContext(logger, "failed to list albums for rescan", "rescan_list_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state database is readable"),
			logging.String(logging.FieldImpact, "no albums refreshed; set force rescan again to retry"),
		)
		return
	}
	if len(albums) == 0 {
		logging.WarnWithContext(logger, "rescan releases requested but no albums were found", "rescan_no_albums",
			logging.String(logging.FieldErrorHint, "import the album library with PUT /api/albums"),
			logging.String(logging.FieldImpact, "no albums refreshed"),
		)
		return
	}

	commands := make([]store.RefreshCommand, 0, len(albums))
	for _, album := range albums {
		commands = append(commands, store.RefreshCommand{AlbumID: album.ID})
	}
	if err := e.commands.PushMany(ctx, commands); err != nil {
		logging.WarnWithContext(logger, "failed to queue album refresh", "rescan_enqueue_failed",
			logging.Int("albums", len(commands)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state database is writable"),
			logging.String(logging.FieldImpact, "no albums refreshed; set force rescan again to retry"),
		)
		return
	}
	logger.Info("queued album refresh", logging.Int("albums", len(commands)))
}
