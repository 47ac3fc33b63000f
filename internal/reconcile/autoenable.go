package reconcile

import (
	"context"

	"lmbridge/internal/logging"
	"lmbridge/internal/marker"
	"lmbridge/internal/provider"
)

// ensureDefaultEnabled enables a disabled definition once per installation
// while its URL is still blank or the default. The marker closes the window as
// soon as any enabled definition is observed, so a later manual disable sticks.
func (e *Engine) ensureDefaultEnabled(ctx context.Context, def *provider.Definition, settings *provider.BridgeSettings) {
	if e.markers == nil || e.markerPath == "" {
		return
	}
	if def.Enable {
		e.markAutoEnableApplied(ctx)
		return
	}
	if e.markers.Exists(e.markerPath) {
		return
	}
	if !settings.IsDefaultSource() {
		return
	}

	def.Enable = true
	if !e.persist(ctx, def, "auto-enable") {
		return
	}
	e.markAutoEnableApplied(ctx)
	e.log(ctx).Info("enabled metadata provider by default",
		logging.String("metadata_source", settings.TrimmedSourceURL()),
	)
}

func (e *Engine) markAutoEnableApplied(ctx context.Context) {
	if e.markers.Exists(e.markerPath) {
		return
	}
	err := e.markers.EnsureDirectory(e.markerPath)
	if err == nil {
		err = e.markers.WriteText(e.markerPath, marker.Timestamp(e.now()))
	}
	if err != nil {
		logging.WarnWithContext(e.log(ctx), "failed to write auto-enable marker", "autoenable_marker_failed",
			logging.String("path", e.markerPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state directory is writable"),
			logging.String(logging.FieldImpact, "auto-enable decision is retried on the next event"),
		)
		return
	}
	e.log(ctx).Debug("auto-enable marker written", logging.String("path", e.markerPath))
}
