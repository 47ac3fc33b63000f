package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lmbridge/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckBridge_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckBridge(context.Background(), srv.URL+"/")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckBridge_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	result := CheckBridge(context.Background(), srv.URL)
	if result.Passed {
		t.Fatal("expected failure for 502")
	}
}

func TestCheckBridge_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	result := CheckBridge(context.Background(), url)
	if result.Passed {
		t.Fatal("expected failure for closed server")
	}
}

func TestCheckBridge_MissingURL(t *testing.T) {
	result := CheckBridge(context.Background(), "  ")
	if result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestCheckAutoEnableMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lmbridge.autoenable")
	if result := CheckAutoEnableMarker(path); !strings.HasPrefix(result.Detail, "pending") {
		t.Fatalf("expected pending, got %q", result.Detail)
	}
	testsupport.WriteFile(t, path, "2026-01-02T03:04:05Z")
	if result := CheckAutoEnableMarker(path); !strings.HasPrefix(result.Detail, "decided ") {
		t.Fatalf("expected decided with timestamp, got %q", result.Detail)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	results := RunAll(context.Background(), cfg, "")
	if len(results) != 2 {
		t.Fatalf("expected 2 results without bridge url, got %d", len(results))
	}
	for _, result := range results {
		if !result.Passed {
			t.Fatalf("%s failed: %s", result.Name, result.Detail)
		}
	}
}
