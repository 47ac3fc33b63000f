package reconcile

import (
	"context"

	"lmbridge/internal/logging"
	"lmbridge/internal/provider"
	"lmbridge/internal/releasefilter"
)

func (e *Engine) syncReleaseFilter(ctx context.Context, def *provider.Definition, force bool) {
	settings, ok := def.Bridge()
	if !ok {
		return
	}
	payload, ok := releasefilter.Build(def, e.hostVersion, e.pluginVersion)
	if !ok {
		return
	}
	logger := e.log(ctx)
	result, err := e.dispatcher.Dispatch(ctx, settings.TrimmedSourceURL(), payload, force)
	if err != nil {
		logging.WarnWithContext(logger, "failed to sync release filter config", "release_filter_sync_failed",
			logging.String("endpoint", result.Endpoint),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the LM Bridge service is running and reachable"),
			logging.String(logging.FieldImpact, "bridge keeps its previous release filter until the next change"),
		)
		return
	}
	if result.Sent {
		logger.Info("release filter config synced",
			logging.String("endpoint", result.Endpoint),
			logging.Bool("enabled", payload.Enabled),
		)
	}
}
