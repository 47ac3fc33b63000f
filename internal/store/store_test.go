package store_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"lmbridge/internal/provider"
	"lmbridge/internal/services"
	"lmbridge/internal/store"
	"lmbridge/internal/testsupport"
)

func TestDefinitionsCRUD(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.MustAddDefinition(t, st, testsupport.BridgeDefinition("http://a:5001", false))
	second := testsupport.MustAddDefinition(t, st, &provider.Definition{
		Name:           "Kodi",
		Implementation: "KodiMetadata",
		Enable:         true,
		Settings:       &provider.OpaqueSettings{Kind: "KodiMetadata", Raw: []byte(`{"x":1}`)},
	})
	if first.ID == 0 || second.ID <= first.ID {
		t.Fatalf("expected ascending ids, got %d and %d", first.ID, second.ID)
	}

	defs, err := st.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(defs) != 2 || defs[0].ID != first.ID || defs[1].ID != second.ID {
		t.Fatalf("unexpected definitions: %+v", defs)
	}
	if _, ok := defs[1].Bridge(); ok {
		t.Fatal("foreign definition decoded as bridge settings")
	}

	first.Enable = true
	settings, _ := first.Bridge()
	settings.ForceRescanReleases = true
	settings.KeepOnlyFormats = []string{"cd"}
	if err := st.Update(ctx, first); err != nil {
		t.Fatalf("Update: %v", err)
	}
	reloaded, err := st.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	rs, ok := reloaded.Bridge()
	if !ok || !reloaded.Enable || !rs.ForceRescanReleases || len(rs.KeepOnlyFormats) != 1 {
		t.Fatalf("update not persisted: %+v %+v", reloaded, rs)
	}

	deleted, err := st.Delete(ctx, second.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted.Name != "Kodi" {
		t.Fatalf("expected deleted record returned, got %+v", deleted)
	}
	if _, err := st.Get(ctx, second.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := st.Update(ctx, second); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found updating deleted definition, got %v", err)
	}
}

func TestMetadataSourceSlot(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	value, err := st.MetadataSource(ctx)
	if err != nil || value != "" {
		t.Fatalf("expected empty slot, got %q err=%v", value, err)
	}
	if err := st.SetMetadataSource(ctx, "http://bridge:5001"); err != nil {
		t.Fatalf("SetMetadataSource: %v", err)
	}
	if err := st.SetMetadataSource(ctx, "http://other:5001"); err != nil {
		t.Fatalf("SetMetadataSource overwrite: %v", err)
	}
	if value, _ := st.MetadataSource(ctx); value != "http://other:5001" {
		t.Fatalf("slot = %q", value)
	}
}

func TestAlbumsAndCommands(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := st.ReplaceAlbums(ctx, []store.Album{{ID: 3, Title: "C"}, {ID: 1, Title: "A"}}); err != nil {
		t.Fatalf("ReplaceAlbums: %v", err)
	}
	albums, err := st.ListAlbums(ctx)
	if err != nil {
		t.Fatalf("ListAlbums: %v", err)
	}
	if len(albums) != 2 || albums[0].ID != 1 {
		t.Fatalf("unexpected albums: %+v", albums)
	}

	if err := st.PushMany(ctx, []store.RefreshCommand{{AlbumID: 1}, {AlbumID: 3}}); err != nil {
		t.Fatalf("PushMany: %v", err)
	}
	queued, err := st.ListCommands(ctx, store.CommandQueued)
	if err != nil {
		t.Fatalf("ListCommands: %v", err)
	}
	if len(queued) != 2 || queued[0].ID == "" || queued[0].AlbumID != 1 {
		t.Fatalf("unexpected queued commands: %+v", queued)
	}
	encoded, err := json.Marshal(queued[0])
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(encoded), "completedAt") {
		t.Fatalf("queued command should omit completedAt: %s", encoded)
	}
	if err := st.CompleteCommand(ctx, queued[0].ID); err != nil {
		t.Fatalf("CompleteCommand: %v", err)
	}
	if remaining, _ := st.ListCommands(ctx, store.CommandQueued); len(remaining) != 1 {
		t.Fatalf("expected one queued command, got %d", len(remaining))
	}
	if err := st.CompleteCommand(ctx, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOpenPathReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	st, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := st.SetMetadataSource(context.Background(), "http://x"); err != nil {
		t.Fatalf("SetMetadataSource: %v", err)
	}
	st.Close()

	reopened, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if value, _ := reopened.MetadataSource(context.Background()); value != "http://x" {
		t.Fatalf("value lost across reopen: %q", value)
	}
}

func TestOpenPathRejectsUnknownSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 7"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	db.Close()

	if _, err := store.OpenPath(path); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestUndecodableSettingsDoNotHideOtherDefinitions(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	raw := json.RawMessage(`{"keepOnlyMediaCount":"5"}`)
	broken := testsupport.MustAddDefinition(t, st, &provider.Definition{
		Name:           "broken",
		Implementation: provider.ImplementationName,
		Enable:         true,
		Settings:       &provider.OpaqueSettings{Kind: provider.ImplementationName, Raw: raw},
	})
	valid := testsupport.MustAddDefinition(t, st, testsupport.BridgeDefinition("http://bridge.local:5001", true))

	defs, err := st.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected both definitions listed, got %d", len(defs))
	}
	if _, ok := defs[0].Bridge(); ok {
		t.Fatal("undecodable definition should not expose bridge settings")
	}
	if settings, ok := defs[1].Bridge(); !ok || settings.SourceURL != "http://bridge.local:5001" || defs[1].ID != valid.ID {
		t.Fatalf("unexpected valid definition: %+v", defs[1])
	}

	got, err := st.Get(ctx, broken.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	opaque, ok := got.Settings.(*provider.OpaqueSettings)
	if !ok || string(opaque.Raw) != string(raw) {
		t.Fatalf("raw settings not preserved: %+v", got.Settings)
	}
}
