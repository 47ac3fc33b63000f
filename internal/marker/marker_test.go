package marker_test

import (
	"path/filepath"
	"testing"
	"time"

	"lmbridge/internal/marker"
	"lmbridge/internal/testsupport"
)

func TestFileStoreWriteAndExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".lmbridge.autoenable")
	store := marker.NewFileStore()

	if store.Exists(path) {
		t.Fatal("marker should not exist yet")
	}
	if err := store.EnsureDirectory(path); err != nil {
		t.Fatalf("EnsureDirectory: %v", err)
	}
	when := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	if err := store.WriteText(path, marker.Timestamp(when)); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !store.Exists(path) {
		t.Fatal("marker should exist after write")
	}
	if got := testsupport.ReadFile(t, path); got != "2026-03-01T12:30:00Z" {
		t.Fatalf("unexpected marker content %q", got)
	}
	if ts, ok := marker.ReadTime(path); !ok || !ts.Equal(when) {
		t.Fatalf("ReadTime = %v, %v", ts, ok)
	}
}

func TestReadTimeRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marker")
	testsupport.WriteFile(t, path, "not a time")
	if _, ok := marker.ReadTime(path); ok {
		t.Fatal("expected garbage marker to be unreadable")
	}
	if !marker.NewFileStore().Exists(path) {
		t.Fatal("garbage marker still counts as present")
	}
}
