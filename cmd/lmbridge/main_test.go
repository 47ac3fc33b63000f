package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"lmbridge/internal/config"
	"lmbridge/internal/daemon"
	"lmbridge/internal/daemonrun"
	"lmbridge/internal/releasefilter"
	"lmbridge/internal/store"
	"lmbridge/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv("LMBRIDGE_API_TOKEN", "")
	t.Setenv("LIDARR_VERSION", "")

	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "error"
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q
api_bind = %q
api_token = %q

[bridge]
request_timeout = %d

[host]
version = %q

[logging]
level = %q
`, cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Paths.APIBind, cfg.Paths.APIToken,
		cfg.Bridge.RequestTimeout, cfg.Host.Version, cfg.Logging.Level)
	testsupport.WriteFile(t, path, content)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output, got %q", needle, haystack)
	}
}

// bridgeRecorder is a fake LM Bridge that records release filter payloads.
type bridgeRecorder struct {
	mu       sync.Mutex
	payloads []releasefilter.Payload
}

func newBridgeRecorder(t *testing.T) (*bridgeRecorder, *httptest.Server) {
	t.Helper()
	rec := &bridgeRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != releasefilter.EndpointPath {
			w.WriteHeader(http.StatusOK)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var payload releasefilter.Payload
		if err := json.Unmarshal(body, &payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		rec.mu.Lock()
		rec.payloads = append(rec.payloads, payload)
		rec.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return rec, srv
}

func (r *bridgeRecorder) snapshot() []releasefilter.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]releasefilter.Payload(nil), r.payloads...)
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.cfg.Paths.StateDir)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
}

func TestProviderCommandsRunLocallyWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	rec, srv := newBridgeRecorder(t)

	out, _, err := runCLI(t, []string{"provider", "add", "--url", srv.URL, "--enable",
		"--include", "Vinyl, cd", "--exclude", "cassette", "--count", "2", "--prefer", "analog"}, env.configPath)
	if err != nil {
		t.Fatalf("provider add: %v", err)
	}
	requireContains(t, out, "Added provider 1")

	payloads := rec.snapshot()
	if len(payloads) != 1 {
		t.Fatalf("expected one release filter sync, got %d", len(payloads))
	}
	got := payloads[0]
	if !got.Enabled || len(got.ExcludeMediaFormats) != 0 {
		t.Fatalf("expected enabled payload with include winning, got %+v", got)
	}
	if strings.Join(got.IncludeMediaFormats, ",") != "vinyl,cd" {
		t.Fatalf("unexpected include formats: %v", got.IncludeMediaFormats)
	}
	if got.KeepOnlyMediaCount == nil || *got.KeepOnlyMediaCount != 2 {
		t.Fatalf("expected count 2, got %v", got.KeepOnlyMediaCount)
	}
	if got.Prefer == nil || *got.Prefer != "analog" {
		t.Fatalf("expected analog preference, got %v", got.Prefer)
	}
	if got.LidarrVersion != env.cfg.Host.Version {
		t.Fatalf("expected host version %q, got %q", env.cfg.Host.Version, got.LidarrVersion)
	}

	out, _, err = runCLI(t, []string{"metadata-source"}, env.configPath)
	if err != nil {
		t.Fatalf("metadata-source: %v", err)
	}
	requireContains(t, out, srv.URL)

	out, _, err = runCLI(t, []string{"provider", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("provider list: %v", err)
	}
	requireContains(t, out, "LM Bridge Settings")
	requireContains(t, out, "Analog")

	out, _, err = runCLI(t, []string{"provider", "show", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("provider show: %v", err)
	}
	requireContains(t, out, "Keep formats:    vinyl, cd")
	requireContains(t, out, "Media count:     2")

	if _, _, err := runCLI(t, []string{"provider", "set", "1", "--count", "-1"}, env.configPath); err != nil {
		t.Fatalf("provider set: %v", err)
	}
	payloads = rec.snapshot()
	if len(payloads) != 2 || payloads[1].KeepOnlyMediaCount != nil {
		t.Fatalf("expected second sync without media count, got %+v", payloads)
	}

	out, _, err = runCLI(t, []string{"provider", "disable", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("provider disable: %v", err)
	}
	requireContains(t, out, "enabled: no")

	out, _, err = runCLI(t, []string{"metadata-source"}, env.configPath)
	if err != nil {
		t.Fatalf("metadata-source after disable: %v", err)
	}
	requireContains(t, out, "(host default)")

	out, _, err = runCLI(t, []string{"provider", "remove", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("provider remove: %v", err)
	}
	requireContains(t, out, "Removed provider 1")

	if _, _, err := runCLI(t, []string{"provider", "show", "1"}, env.configPath); err == nil {
		t.Fatal("expected show of removed provider to fail")
	}
}

func TestProviderRescanQueuesAlbumRefreshes(t *testing.T) {
	env := setupCLITestEnv(t)
	_, srv := newBridgeRecorder(t)

	albumsPath := filepath.Join(testsupport.BaseDir(env.cfg), "albums.yaml")
	testsupport.WriteFile(t, albumsPath, `albums:
  - id: 10
    title: Blue Train
    artist: John Coltrane
  - id: 11
    title: Kind of Blue
    artist: Miles Davis
`)
	out, _, err := runCLI(t, []string{"albums", "import", albumsPath}, env.configPath)
	if err != nil {
		t.Fatalf("albums import: %v", err)
	}
	requireContains(t, out, "Stored 2 albums")

	if _, _, err := runCLI(t, []string{"provider", "add", "--url", srv.URL, "--enable"}, env.configPath); err != nil {
		t.Fatalf("provider add: %v", err)
	}
	out, _, err = runCLI(t, []string{"provider", "rescan", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("provider rescan: %v", err)
	}
	requireContains(t, out, "2 refresh commands queued")

	out, _, err = runCLI(t, []string{"provider", "show", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("provider show: %v", err)
	}
	requireContains(t, out, "Force rescan:    no")

	out, _, err = runCLI(t, []string{"commands", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("commands list: %v", err)
	}
	var commands []struct {
		ID      string `json:"id"`
		AlbumID int64  `json:"albumId"`
	}
	if err := json.Unmarshal([]byte(out), &commands); err != nil {
		t.Fatalf("decode commands: %v", err)
	}
	if len(commands) != 2 || commands[0].AlbumID != 10 || commands[1].AlbumID != 11 {
		t.Fatalf("unexpected commands: %+v", commands)
	}

	out, _, err = runCLI(t, []string{"commands", "complete", commands[0].ID}, env.configPath)
	if err != nil {
		t.Fatalf("commands complete: %v", err)
	}
	requireContains(t, out, "Completed 1 commands")

	out, _, err = runCLI(t, []string{"commands", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("commands list after complete: %v", err)
	}
	if strings.Contains(out, commands[0].ID) || !strings.Contains(out, commands[1].ID) {
		t.Fatalf("expected only the second command queued, got %q", out)
	}
}

func TestProviderImportAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	_, srv := newBridgeRecorder(t)

	importPath := filepath.Join(testsupport.BaseDir(env.cfg), "providers.yaml")
	testsupport.WriteFile(t, importPath, fmt.Sprintf(`providers:
  - enable: true
    settings:
      metadata_source: %s
      keep_only_formats: [Vinyl]
      prefer: digital
`, srv.URL))

	out, _, err := runCLI(t, []string{"provider", "import", importPath}, env.configPath)
	if err != nil {
		t.Fatalf("provider import: %v", err)
	}
	requireContains(t, out, "Imported provider 1")

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "not running")
	requireContains(t, out, "1 total, 1 enabled")
	requireContains(t, out, "#1 LM Bridge Settings")
	requireContains(t, out, "Digital")
	requireContains(t, out, srv.URL)
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no colour codes for non-terminal output, got %q", out)
	}

	out, _, err = runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var status struct {
		MetadataSource string `json:"metadataSource"`
		LockPath       string `json:"lockPath"`
		Checks         []struct {
			Name   string `json:"name"`
			Passed bool   `json:"passed"`
		} `json:"checks"`
	}
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.MetadataSource != srv.URL || status.LockPath != env.cfg.LockPath() {
		t.Fatalf("unexpected status: %+v", status)
	}
	for _, check := range status.Checks {
		if !check.Passed {
			t.Fatalf("expected check %q to pass", check.Name)
		}
	}
}

func TestProviderAddRejectsInvalidSettings(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"provider", "add", "--url", "ftp://example.com"}, env.configPath)
	if err == nil {
		t.Fatal("expected invalid url to be rejected")
	}
	requireContains(t, err.Error(), "add provider")

	if _, _, err := runCLI(t, []string{"provider", "add", "--prefer", "analgo"}, env.configPath); err == nil {
		t.Fatal("expected unknown preference to be rejected")
	}

	if _, _, err := runCLI(t, []string{"provider", "show", "zero"}, env.configPath); err == nil {
		t.Fatal("expected invalid id to be rejected")
	}
}

func TestCommandsForwardToRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	rec, srv := newBridgeRecorder(t)

	st, err := store.Open(env.cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	engine := daemonrun.NewEngine(env.cfg, st, nil, "test")
	d, err := daemon.New(env.cfg, st, engine, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon start: %v", err)
	}

	env.cfg.Paths.APIBind = d.Addr()
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"provider", "add", "--url", srv.URL, "--enable"}, env.configPath)
	if err != nil {
		t.Fatalf("provider add via daemon: %v", err)
	}
	requireContains(t, out, "Added provider 1")

	payloads := rec.snapshot()
	if len(payloads) != 1 || payloads[0].PluginVersion == nil || *payloads[0].PluginVersion != "test" {
		t.Fatalf("expected daemon engine to sync with its plugin version, got %+v", payloads)
	}

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status via daemon: %v", err)
	}
	requireContains(t, out, "running (pid")

	// The daemon's debounce cache outlives a single request.
	if _, _, err := runCLI(t, []string{"provider", "enable", "1"}, env.configPath); err != nil {
		t.Fatalf("provider enable via daemon: %v", err)
	}
	if got := len(rec.snapshot()); got != 1 {
		t.Fatalf("expected unchanged filter to be skipped, got %d syncs", got)
	}

	if _, _, err := runCLI(t, []string{"reconcile"}, env.configPath); err != nil {
		t.Fatalf("reconcile via daemon: %v", err)
	}
	if got := len(rec.snapshot()); got != 2 {
		t.Fatalf("expected forced startup pass to re-send, got %d syncs", got)
	}
}
