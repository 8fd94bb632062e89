// Package storage keeps a local history of generated reports.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/veille-cyber/internal/domain"
)

// Store records completed runs.
type Store interface {
	Close() error
	RecordRun(rec domain.RunRecord) error
	// Recent returns at most limit runs, newest first.
	Recent(limit int) ([]domain.RunRecord, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	RunTTL          time.Duration
	CleanupInterval time.Duration
}

const (
	defaultRunTTL          = 30 * 24 * time.Hour
	defaultCleanupInterval = 24 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return NoopStore(), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.RunTTL <= 0 {
		opts.RunTTL = defaultRunTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// NoopStore returns a Store that keeps nothing.
func NoopStore() Store { return noopStore{} }

type noopStore struct{}

func (noopStore) Close() error                           { return nil }
func (noopStore) RecordRun(domain.RunRecord) error       { return nil }
func (noopStore) Recent(int) ([]domain.RunRecord, error) { return nil, nil }
