package testsupport

import (
	"context"
	"testing"

	"lmbridge/internal/config"
	"lmbridge/internal/provider"
	"lmbridge/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// BridgeDefinition builds an LM Bridge definition pointing at url.
func BridgeDefinition(url string, enable bool) *provider.Definition {
	settings := provider.NewBridgeSettings()
	settings.SourceURL = url
	return &provider.Definition{
		Name:           provider.DisplayName,
		Implementation: provider.ImplementationName,
		Enable:         enable,
		Settings:       settings,
	}
}

// MustAddDefinition inserts def and returns the stored copy.
func MustAddDefinition(t testing.TB, st *store.Store, def *provider.Definition) *provider.Definition {
	t.Helper()

	added, err := st.Add(context.Background(), def)
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return added
}
