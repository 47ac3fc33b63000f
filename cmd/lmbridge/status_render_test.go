package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"lmbridge/internal/api"
	"lmbridge/internal/preflight"
)

func TestRenderStatusSections(t *testing.T) {
	status := api.Status{
		Running:          true,
		PID:              42,
		DatabasePath:     "/state/lmbridge.db",
		LockPath:         "/state/lmbridge.lock",
		Providers:        2,
		EnabledProviders: 1,
		ActiveProvider: &api.Provider{
			ID:             3,
			Name:           "LM Bridge Settings",
			Implementation: "MetadataSourceOverride",
			Enable:         true,
			Settings:       json.RawMessage(`{"metadataSource":"http://bridge:5001","prefer":"analog"}`),
		},
		MetadataSource:  "http://bridge:5001",
		PendingCommands: 4,
		Checks: []preflight.Result{
			{Name: "State directory", Passed: true, Detail: "/state"},
			{Name: "LM Bridge", Passed: false, Detail: "connection refused"},
		},
	}

	printer := newStatusPrinter(&bytes.Buffer{})
	renderStatus(printer, status)
	out := printer.String()

	for _, want := range []string{
		"== Runtime ==",
		"running (pid 42)",
		"== Providers ==",
		"2 total, 1 enabled",
		"[OK] #3 LM Bridge Settings",
		"[INFO] Analog",
		"[WARN] 4",
		"== Checks ==",
		"[ERROR] connection refused",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in status output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no colour for a buffer writer, got %q", out)
	}
	if strings.Index(out, "== Runtime ==") > strings.Index(out, "== Checks ==") {
		t.Fatalf("sections out of order:\n%s", out)
	}
}

func TestRenderStatusWithoutActiveProvider(t *testing.T) {
	printer := newStatusPrinter(&bytes.Buffer{})
	renderStatus(printer, api.Status{})
	out := printer.String()
	if !strings.Contains(out, "no enabled LM Bridge definition") || !strings.Contains(out, "host default") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "== Checks ==") {
		t.Fatalf("expected checks section to be omitted:\n%s", out)
	}
}

func TestPrinterColorizes(t *testing.T) {
	printer := &statusPrinter{colorize: true}
	printer.line("Daemon", statusOK, "running")
	if out := printer.String(); !strings.HasPrefix(out, "\x1b[32m") || !strings.HasSuffix(out, ansiReset) {
		t.Fatalf("expected green line, got %q", out)
	}
}
