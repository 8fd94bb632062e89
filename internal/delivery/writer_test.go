package delivery

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

var runTime = time.Date(2025, 3, 4, 15, 30, 10, 0, time.UTC)

func TestFilenameFormat(t *testing.T) {
	w := NewWriter(afero.NewMemMapFs(), "", "")
	if got := w.Filename(runTime); got != "veille_cyber_20250304_153010.html" {
		t.Fatalf("unexpected filename %q", got)
	}
	if got := NewWriter(nil, ".", "soc").Filename(runTime); got != "soc_20250304_153010.html" {
		t.Fatalf("unexpected prefixed filename %q", got)
	}
}

func TestSaveWritesDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriter(fs, "reports/out", "").WithClock(func() time.Time { return runTime })

	path, err := w.Save("<!DOCTYPE html>\n<html lang=\"fr\">é</html>\n")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != filepath.Join("reports/out", "veille_cyber_20250304_153010.html") {
		t.Fatalf("unexpected path %q", path)
	}
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(raw), "é") || !strings.HasPrefix(string(raw), "<!DOCTYPE html>") {
		t.Fatalf("unexpected content %q", raw)
	}
}

func TestSaveReplacesSameSecondReport(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriter(fs, ".", "")

	if _, err := w.SaveAt("first run, longer content", runTime); err != nil {
		t.Fatalf("SaveAt: %v", err)
	}
	path, err := w.SaveAt("second", runTime)
	if err != nil {
		t.Fatalf("SaveAt: %v", err)
	}
	raw, _ := afero.ReadFile(fs, path)
	if string(raw) != "second" {
		t.Fatalf("expected file to be truncated, got %q", raw)
	}
}

func TestSaveFailsOnReadOnlyFs(t *testing.T) {
	w := NewWriter(afero.NewReadOnlyFs(afero.NewMemMapFs()), "out", "")
	path, err := w.SaveAt("<html></html>", runTime)
	if err == nil {
		t.Fatalf("expected write failure")
	}
	if path != "" {
		t.Fatalf("expected empty path on failure, got %q", path)
	}
}

func TestNewOpener(t *testing.T) {
	if _, ok := NewOpener(false).(NopOpener); !ok {
		t.Fatalf("expected NopOpener when disabled")
	}
	if _, ok := NewOpener(true).(BrowserOpener); !ok {
		t.Fatalf("expected BrowserOpener when enabled")
	}
	if err := (NopOpener{}).Open("report.html"); err != nil {
		t.Fatalf("NopOpener: %v", err)
	}
}
