package preflight

import (
	"context"

	"lmbridge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes the preflight checks for cfg. The bridge check is skipped
// when bridgeURL is blank.
func RunAll(ctx context.Context, cfg *config.Config, bridgeURL string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckAutoEnableMarker(cfg.MarkerPath()),
	}
	if bridgeURL != "" {
		results = append(results, CheckBridge(ctx, bridgeURL))
	}
	return results
}
