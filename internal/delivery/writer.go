// Package delivery persists rendered reports and hands them to the operator.
package delivery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	// DefaultPrefix names report files when no prefix is configured.
	DefaultPrefix   = "veille_cyber"
	filenameLayout  = "20060102_150405"
	reportExtension = ".html"
)

// Writer saves reports under dir as <prefix>_YYYYMMDD_HHMMSS.html.
type Writer struct {
	fs     afero.Fs
	dir    string
	prefix string
	now    func() time.Time
}

// NewWriter builds a Writer on fs. A nil fs writes to the OS filesystem.
func NewWriter(fs afero.Fs, dir, prefix string) *Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	return &Writer{fs: fs, dir: dir, prefix: prefix, now: time.Now}
}

// WithClock overrides the clock used to name files.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	if now != nil {
		w.now = now
	}
	return w
}

// Filename returns the report name for t, in t's own location.
func (w *Writer) Filename(t time.Time) string {
	return w.prefix + "_" + t.Format(filenameLayout) + reportExtension
}

// Save writes doc to a new file named after the current time and returns its path.
// An existing file with the same name is replaced.
func (w *Writer) Save(doc string) (string, error) {
	return w.SaveAt(doc, w.now())
}

// SaveAt writes doc to the file named for t.
func (w *Writer) SaveAt(doc string, t time.Time) (path string, err error) {
	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path = filepath.Join(w.dir, w.Filename(t))
	f, err := w.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("open report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close report file: %w", cerr))
		}
		if err != nil {
			path = ""
		}
	}()

	if _, err := f.WriteString(doc); err != nil {
		return path, fmt.Errorf("write report file: %w", err)
	}
	return path, nil
}
