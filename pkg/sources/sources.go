package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Report sections a source can feed.
const (
	SectionAlerts   = "alerts"
	SectionArticles = "articles"
)

// TypeRSS covers RSS and Atom documents; gofeed detects the dialect.
const TypeRSS = "rss"

// DefaultLimit is the number of entries kept per source when none is configured.
const DefaultLimit = 5

const (
	ConfigUserAgentKey      = "user_agent"
	ConfigAcceptKey         = "accept"
	ConfigAcceptLanguageKey = "accept_language"
)

var typeAliases = map[string]string{
	"rss":  TypeRSS,
	"atom": TypeRSS,
	"feed": TypeRSS,
}

// Source describes one feed contributing entries to a report section.
type Source struct {
	ID      string         `json:"id" yaml:"id"`
	Name    string         `json:"name" yaml:"name"`
	Section string         `json:"section" yaml:"section"`
	Type    string         `json:"type" yaml:"type"`
	URL     string         `json:"url" yaml:"url"`
	Limit   int            `json:"limit" yaml:"limit"`
	Config  map[string]any `json:"config" yaml:"config"`
}

// DefaultSources returns the built-in CERT-FR advisory feed and The Hacker News feed.
func DefaultSources() []Source {
	return []Source{
		{
			ID:      "certfr",
			Name:    "CERT-FR",
			Section: SectionAlerts,
			Type:    TypeRSS,
			URL:     "https://www.cert.ssi.gouv.fr/feed/",
			Limit:   DefaultLimit,
		},
		{
			ID:      "thehackernews",
			Name:    "The Hacker News",
			Section: SectionArticles,
			Type:    TypeRSS,
			URL:     "https://feeds.feedburner.com/TheHackersNews",
			Limit:   DefaultLimit,
		},
	}
}

type registryFile struct {
	Sources []Source `json:"sources" yaml:"sources"`
}

// Registry holds validated sources in declaration order.
type Registry struct {
	sources []Source
}

// NewRegistry validates the given sources and builds a registry.
func NewRegistry(list []Source) (*Registry, error) {
	if len(list) == 0 {
		return nil, errors.New("no sources configured")
	}

	reg := &Registry{sources: make([]Source, 0, len(list))}
	seen := make(map[string]struct{}, len(list))
	for i := range list {
		src := sanitizeSource(list[i])
		if err := validateSource(src); err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		if _, dup := seen[src.ID]; dup {
			return nil, fmt.Errorf("duplicate source id %q", src.ID)
		}
		seen[src.ID] = struct{}{}
		reg.sources = append(reg.sources, src)
	}
	return reg, nil
}

// DefaultRegistry wraps DefaultSources.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(DefaultSources())
	if err != nil {
		panic(fmt.Sprintf("built-in sources invalid: %v", err))
	}
	return reg
}

// LoadRegistry reads sources from a YAML or JSON file. An empty path selects the built-in sources.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultRegistry(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Sources) == 0 {
		return nil, errors.New("sources file contains no sources entries")
	}
	return NewRegistry(parsed.Sources)
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg registryFile
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

func sanitizeSource(s Source) Source {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.Section = strings.ToLower(strings.TrimSpace(s.Section))
	s.URL = strings.TrimSpace(s.URL)

	typ := strings.ToLower(strings.TrimSpace(s.Type))
	if typ == "" {
		typ = TypeRSS
	}
	if canonical, ok := typeAliases[typ]; ok {
		typ = canonical
	}
	s.Type = typ

	if s.Name == "" {
		s.Name = s.ID
	}
	if s.Config == nil {
		s.Config = map[string]any{}
	}
	return s
}

func validateSource(s Source) error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if s.URL == "" {
		return fmt.Errorf("url is required for source %q", s.ID)
	}
	switch s.Section {
	case SectionAlerts, SectionArticles:
	default:
		return fmt.Errorf("section for source %q must be %q or %q, got %q", s.ID, SectionAlerts, SectionArticles, s.Section)
	}
	if s.Type != TypeRSS {
		return fmt.Errorf("unsupported type %q for source %q", s.Type, s.ID)
	}
	if s.Limit < 0 {
		return fmt.Errorf("limit for source %q must not be negative", s.ID)
	}
	return nil
}

// All returns a copy of every source.
func (r *Registry) All() []Source {
	if r == nil {
		return nil
	}
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Section returns the sources feeding the given section, in declaration order.
func (r *Registry) Section(section string) []Source {
	if r == nil {
		return nil
	}
	var out []Source
	for _, s := range r.sources {
		if s.Section == section {
			out = append(out, s)
		}
	}
	return out
}

// EffectiveLimit resolves the per-source limit against a fallback.
func (s Source) EffectiveLimit(fallback int) int {
	if s.Limit > 0 {
		return s.Limit
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultLimit
}

// Headers builds the request headers from a source config (skips empty values).
func Headers(s Source) map[string]string {
	headers := make(map[string]string, 3)
	if v := configString(s, ConfigUserAgentKey); v != "" {
		headers["User-Agent"] = v
	}
	if v := configString(s, ConfigAcceptKey); v != "" {
		headers["Accept"] = v
	}
	if v := configString(s, ConfigAcceptLanguageKey); v != "" {
		headers["Accept-Language"] = v
	}
	return headers
}

func configString(s Source, key string) string {
	if s.Config == nil {
		return ""
	}
	if val, ok := s.Config[key].(string); ok {
		return strings.TrimSpace(val)
	}
	return ""
}
