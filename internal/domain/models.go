package domain

import (
	"strings"
	"time"
)

// NotAvailable is the published value for feed entries without a date.
const NotAvailable = "N/A"

// FeedItem is a single entry taken from an advisory or news feed.
type FeedItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published"`
}

// NewFeedItem builds a FeedItem, defaulting a blank publication date to NotAvailable.
func NewFeedItem(title, link, published string) FeedItem {
	published = strings.TrimSpace(published)
	if published == "" {
		published = NotAvailable
	}
	return FeedItem{
		Title:     strings.TrimSpace(title),
		Link:      strings.TrimSpace(link),
		Published: published,
	}
}

// CveRecord describes a vulnerability. Severity is free text; CRITICAL and HIGH are the usual values.
type CveRecord struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Report aggregates one run's sections in rendering order.
type Report struct {
	GeneratedAt time.Time
	Alerts      []FeedItem
	CVEs        []CveRecord
	// CVENotice annotates the CVE section, e.g. when it holds sample data.
	CVENotice string
	Articles  []FeedItem
	// AlertsSource and ArticlesSource name the feed behind a section when
	// it has exactly one; blank for mixed sections.
	AlertsSource   string
	ArticlesSource string
}

// RunRecord summarizes a completed run for the history store.
type RunRecord struct {
	GeneratedAt   time.Time `json:"generated_at"`
	ReportPath    string    `json:"report_path"`
	Alerts        int       `json:"alerts"`
	CVEs          int       `json:"cves"`
	Articles      int       `json:"articles"`
	FailedSources []string  `json:"failed_sources,omitempty"`
}
