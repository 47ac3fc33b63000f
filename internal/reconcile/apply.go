package reconcile

import (
	"context"
	"strings"

	"lmbridge/internal/logging"
	"lmbridge/internal/provider"
	"lmbridge/internal/services"
)

// applyFromSource reconciles against every LM Bridge definition the source
// knows about.
func (e *Engine) applyFromSource(ctx context.Context, force bool) {
	logger := e.log(ctx)
	all, err := e.definitions.All(ctx)
	if err != nil {
		logging.WarnWithContext(logger, "failed to list provider definitions", "definitions_list_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state database is readable"),
			logging.String(logging.FieldImpact, "metadata source left unchanged until the next event"),
		)
		return
	}

	var matching []*provider.Definition
	for _, def := range all {
		if _, ok := def.Bridge(); ok {
			matching = append(matching, def)
		}
	}

	if len(matching) == 0 {
		current, ok := e.readSlot(ctx)
		if ok && strings.TrimSpace(current) != "" {
			e.clearSlot(ctx, "provider removed")
		}
		return
	}

	for _, def := range matching {
		e.normalize(ctx, def)
	}

	for _, def := range matching {
		if def.Enable {
			e.ApplyDefinition(ctx, def, force)
			return
		}
	}

	current, ok := e.readSlot(ctx)
	if !ok {
		return
	}
	current = strings.TrimSpace(current)
	if current == "" {
		return
	}
	for _, def := range matching {
		settings, _ := def.Bridge()
		if url := settings.TrimmedSourceURL(); url != "" && strings.EqualFold(url, current) {
			e.clearSlot(ctx, "provider disabled")
			return
		}
	}
}

// ApplyDefinition reconciles one definition: display name and URL defaults,
// auto-enable, slot update, release filter sync, and a pending forced rescan.
// Definitions of other implementations are ignored.
func (e *Engine) ApplyDefinition(ctx context.Context, def *provider.Definition, force bool) {
	settings, ok := def.Bridge()
	if !ok {
		return
	}
	if def.ID != 0 {
		ctx = services.WithProviderID(ctx, def.ID)
	}
	logger := e.log(ctx)

	e.normalize(ctx, def)

	url := settings.TrimmedSourceURL()
	if current, ok := e.readSlot(ctx); ok {
		switch {
		case def.Enable && url != "":
			if !strings.EqualFold(strings.TrimSpace(current), url) {
				if e.writeSlot(ctx, url) {
					logger.Info("metadata source override applied", logging.String("metadata_source", url))
				}
			} else if force {
				logger.Info("metadata source override already set", logging.String("metadata_source", url))
			}
		case url != "" && strings.EqualFold(strings.TrimSpace(current), url):
			e.clearSlot(ctx, "provider disabled")
		}
	}

	e.syncReleaseFilter(ctx, def, force)
	e.handleForceRescan(ctx, def, settings)
}

// normalize enforces the display name and default URL, then runs the
// auto-enable decision.
func (e *Engine) normalize(ctx context.Context, def *provider.Definition) {
	settings, ok := def.Bridge()
	if !ok {
		return
	}
	logger := e.log(ctx)

	if def.Name != provider.DisplayName {
		def.Name = provider.DisplayName
		if e.persist(ctx, def, "display name") {
			logger.Info("updated provider display name", logging.String("name", provider.DisplayName))
		}
	}
	if settings.TrimmedSourceURL() == "" {
		settings.SourceURL = provider.DefaultSourceURL
		if e.persist(ctx, def, "default metadata source") {
			logger.Info("defaulted metadata source", logging.String("metadata_source", provider.DefaultSourceURL))
		}
	}
	e.ensureDefaultEnabled(ctx, def, settings)
}

func (e *Engine) persist(ctx context.Context, def *provider.Definition, what string) bool {
	if err := e.definitions.Update(ctx, def); err != nil {
		logging.WarnWithContext(e.log(ctx), "failed to persist provider definition", "definition_update_failed",
			logging.String("change", what),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state database is writable"),
			logging.String(logging.FieldImpact, "change applies in memory only and is retried on the next event"),
		)
		return false
	}
	return true
}

func (e *Engine) readSlot(ctx context.Context) (string, bool) {
	current, err := e.slot.MetadataSource(ctx)
	if err != nil {
		logging.WarnWithContext(e.log(ctx), "failed to read metadata source", "metadata_source_read_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the host configuration store"),
			logging.String(logging.FieldImpact, "metadata source left unchanged for this event"),
		)
		return "", false
	}
	return current, true
}

func (e *Engine) writeSlot(ctx context.Context, value string) bool {
	if err := e.slot.SetMetadataSource(ctx, value); err != nil {
		logging.WarnWithContext(e.log(ctx), "failed to write metadata source", "metadata_source_write_failed",
			logging.String("metadata_source", value),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the host configuration store is writable"),
			logging.String(logging.FieldImpact, "host keeps its previous metadata source until the next event"),
		)
		return false
	}
	return true
}

func (e *Engine) clearSlot(ctx context.Context, reason string) {
	if e.writeSlot(ctx, "") {
		e.log(ctx).Info("cleared metadata source override", logging.String("reason", reason))
	}
}
