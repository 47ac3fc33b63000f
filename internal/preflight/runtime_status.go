package preflight

import (
	"fmt"

	"lmbridge/internal/marker"
)

// CheckAutoEnableMarker reports whether the one-time auto-enable decision has
// been made. A missing marker is not a failure: it only means the next start
// may still enable a default definition.
func CheckAutoEnableMarker(path string) Result {
	const name = "Auto-enable"

	if path == "" {
		return Result{Name: name, Detail: "marker path unknown"}
	}
	if !marker.NewFileStore().Exists(path) {
		return Result{Name: name, Passed: true, Detail: "pending (no marker yet)"}
	}
	if ts, ok := marker.ReadTime(path); ok {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("decided %s", ts.Local().Format("2006-01-02 15:04"))}
	}
	return Result{Name: name, Passed: true, Detail: "decided"}
}
