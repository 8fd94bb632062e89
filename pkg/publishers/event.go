package publishers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samvad-hq/veille-cyber/internal/domain"
)

// Counts holds the number of entries rendered per section.
type Counts struct {
	Alerts   int `json:"alerts"`
	CVEs     int `json:"cves"`
	Articles int `json:"articles"`
}

// Event announces that a report was written.
type Event struct {
	ReportPath    string    `json:"report_path"`
	GeneratedAt   time.Time `json:"generated_at"`
	Counts        Counts    `json:"counts"`
	FailedSources []string  `json:"failed_sources,omitempty"`
}

// NewEvent builds the event for a completed run.
func NewEvent(rec domain.RunRecord) Event {
	return Event{
		ReportPath:  rec.ReportPath,
		GeneratedAt: rec.GeneratedAt.UTC(),
		Counts: Counts{
			Alerts:   rec.Alerts,
			CVEs:     rec.CVEs,
			Articles: rec.Articles,
		},
		FailedSources: rec.FailedSources,
	}
}

// attributes are the routing hints copied onto queue and topic messages.
func (e Event) attributes() map[string]string {
	degraded := "false"
	if len(e.FailedSources) > 0 {
		degraded = "true"
	}
	return map[string]string{
		"report_path": e.ReportPath,
		"degraded":    degraded,
	}
}

func (e Event) payload() ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return raw, nil
}
