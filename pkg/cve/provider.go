// Package cve supplies the CVE section of the report.
package cve

import (
	"context"
	"strings"

	"github.com/samvad-hq/veille-cyber/internal/domain"
)

// DemoNotice marks the CVE section when it holds sample records.
const DemoNotice = "Données d'exemple : configurer une clé API NVD pour des données réelles."

// Provider returns recent CVE records. Implementations never fail; an
// unavailable backend yields an empty slice.
type Provider interface {
	RecentCVEs(ctx context.Context) []domain.CveRecord
	// Notice is shown under the CVE heading; empty for authoritative data.
	Notice() string
}

// StaticProvider serves a fixed list of placeholder records.
type StaticProvider struct{}

// RecentCVEs returns a fresh copy of the placeholder records.
func (StaticProvider) RecentCVEs(context.Context) []domain.CveRecord {
	return []domain.CveRecord{
		{ID: "CVE-2024-XXXXX", Description: "Exemple de CVE récente", Severity: "HIGH"},
		{ID: "CVE-2024-XXXXY", Description: "Autre CVE d'exemple", Severity: "CRITICAL"},
	}
}

func (StaticProvider) Notice() string { return DemoNotice }

// Logger is the logging surface used when selecting a provider.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
}

// NewProvider selects the CVE provider for the given NVD API key. Only the
// static provider is built in, so a configured key is reported and ignored.
func NewProvider(apiKey string, log Logger) Provider {
	if log != nil {
		if strings.TrimSpace(apiKey) == "" {
			log.InfoObj("no NVD API key configured; CVE section uses sample data", "cve_provider", "static")
		} else {
			log.WarnObj("NVD lookup is not available in this build; NVD API key ignored", "cve_provider", "static")
		}
	}
	return StaticProvider{}
}
