package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/veille-cyber/internal/domain"
	"github.com/samvad-hq/veille-cyber/internal/storage"
)

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"output-dir", "no-browser", "concurrent", "sources", "log-level", "limit"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("missing flag --%s", name)
		}
	}
	history, _, err := cmd.Find([]string{"history"})
	if err != nil || history.Name() != "history" {
		t.Fatalf("history subcommand not registered: %v", err)
	}
}

func TestHistoryCommandEmpty(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "none")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"history"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out.String(), "Aucun rapport") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestHistoryCommandListsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	t.Setenv("STORAGE_TYPE", "bbolt")
	t.Setenv("HISTORY_PATH", path)
	t.Setenv("TIMEZONE", "UTC")

	store, err := storage.NewStore("bbolt", path, storage.Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for i, name := range []string{"first.html", "second.html"} {
		rec := domain.RunRecord{
			GeneratedAt:   time.Date(2025, 3, 4, 15, 30, 10+i, 0, time.UTC),
			ReportPath:    name,
			Alerts:        5,
			FailedSources: []string{"thehackernews"},
		}
		if err := store.RecordRun(rec); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"history", "--limit", "1"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("history: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "second.html") || strings.Contains(got, "first.html") {
		t.Fatalf("expected only the newest run, got %q", got)
	}
	if !strings.Contains(got, "04/03/2025 15:30:11") || !strings.Contains(got, "thehackernews") {
		t.Fatalf("unexpected row %q", got)
	}
}
