package provider_test

import (
	"errors"
	"testing"

	"lmbridge/internal/provider"
	"lmbridge/internal/services"
)

func TestParseImport(t *testing.T) {
	doc := []byte(`
providers:
  - enable: true
    settings:
      metadata_source: http://nas.lan:5001
      exclude_media_formats: [Vinyl, vinyl, " Cassette "]
      keep_only_media_count: 2
      prefer: analog
  - name: Secondary
    settings:
      metadata_source: http://backup:5001
`)
	defs, err := provider.ParseImport(doc)
	if err != nil {
		t.Fatalf("ParseImport: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	first, ok := defs[0].Bridge()
	if !ok || !defs[0].Enable || defs[0].Name != provider.DisplayName {
		t.Fatalf("unexpected first definition: %+v", defs[0])
	}
	if len(first.ExcludeMediaFormats) != 2 || first.ExcludeMediaFormats[1] != "cassette" {
		t.Fatalf("formats not normalized: %v", first.ExcludeMediaFormats)
	}
	if first.EffectiveMediaCount() != 2 || first.Prefer != provider.PreferAnalog {
		t.Fatalf("unexpected limit settings: %+v", first)
	}
	second, _ := defs[1].Bridge()
	if defs[1].Enable || defs[1].Name != "Secondary" || second.Prefer != provider.PreferDigital {
		t.Fatalf("unexpected second definition: %+v %+v", defs[1], second)
	}
}

func TestParseImportRejectsUnknownKeysAndBadURLs(t *testing.T) {
	if _, err := provider.ParseImport([]byte("providers:\n  - enabel: true\n")); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
	_, err := provider.ParseImport([]byte("providers:\n  - settings:\n      metadata_source: ftp://nas\n"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = provider.ParseImport([]byte("providers:\n  - settings:\n      metadata_source: http://nas:5001\n      prefer: analgo\n"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected unknown preference to be rejected, got %v", err)
	}
	defs, err := provider.ParseImport(nil)
	if err != nil || len(defs) != 0 {
		t.Fatalf("empty document = %v, %v", defs, err)
	}
}
