package delivery

import (
	"fmt"

	"github.com/pkg/browser"
)

// Opener shows a saved report to the operator.
type Opener interface {
	Open(path string) error
}

// BrowserOpener opens reports in the system default browser.
type BrowserOpener struct{}

// Open returns once the browser has been launched, not when it is closed.
func (BrowserOpener) Open(path string) error {
	if err := browser.OpenFile(path); err != nil {
		return fmt.Errorf("open %s in browser: %w", path, err)
	}
	return nil
}

// NopOpener leaves the report on disk.
type NopOpener struct{}

func (NopOpener) Open(string) error { return nil }

// NewOpener picks the opener for the open_browser setting.
func NewOpener(enabled bool) Opener {
	if enabled {
		return BrowserOpener{}
	}
	return NopOpener{}
}
