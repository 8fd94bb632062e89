package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/veille-cyber/internal/domain"
	"github.com/samvad-hq/veille-cyber/internal/report"
	"github.com/samvad-hq/veille-cyber/pkg/cve"
	"github.com/samvad-hq/veille-cyber/pkg/publishers"
	"github.com/samvad-hq/veille-cyber/pkg/sources"
)

var runTime = time.Date(2025, 3, 4, 15, 30, 10, 0, time.UTC)

type fakeCollector struct {
	mu      sync.Mutex
	bySrc   map[string][]domain.FeedItem
	failing map[string]bool
	limits  []int
}

func (f *fakeCollector) Collect(_ context.Context, list []sources.Source, limit int) sources.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, limit)
	out := sources.Outcome{Items: []domain.FeedItem{}}
	for _, src := range list {
		if f.failing[src.ID] {
			out.Failed = append(out.Failed, src.ID)
			continue
		}
		out.Items = append(out.Items, f.bySrc[src.ID]...)
	}
	return out
}

type fakeWriter struct {
	doc   string
	at    time.Time
	err   error
	calls int
}

func (w *fakeWriter) SaveAt(doc string, t time.Time) (string, error) {
	w.calls++
	if w.err != nil {
		return "", w.err
	}
	w.doc, w.at = doc, t
	return "/tmp/veille_cyber_" + t.Format("20060102_150405") + ".html", nil
}

type fakeOpener struct {
	opened []string
	err    error
}

func (o *fakeOpener) Open(path string) error {
	o.opened = append(o.opened, path)
	return o.err
}

type fakeStore struct {
	runs []domain.RunRecord
	err  error
}

func (s *fakeStore) Close() error { return nil }
func (s *fakeStore) RecordRun(rec domain.RunRecord) error {
	if s.err != nil {
		return s.err
	}
	s.runs = append(s.runs, rec)
	return nil
}
func (s *fakeStore) Recent(int) ([]domain.RunRecord, error) { return s.runs, nil }

type fakeNotifier struct {
	events []publishers.Event
	err    error
}

func (n *fakeNotifier) Publish(_ context.Context, evt publishers.Event) (int, error) {
	n.events = append(n.events, evt)
	if n.err != nil {
		return 0, n.err
	}
	return 1, nil
}
func (n *fakeNotifier) Size() int { return 1 }

type fixture struct {
	collector *fakeCollector
	writer    *fakeWriter
	opener    *fakeOpener
	store     *fakeStore
	notifier  *fakeNotifier
}

func newFixture() *fixture {
	return &fixture{
		collector: &fakeCollector{
			bySrc: map[string][]domain.FeedItem{
				"certfr": {domain.NewFeedItem("Faille X", "https://cert.fr/x", "01/01/2025")},
			},
			failing: map[string]bool{"thehackernews": true},
		},
		writer:   &fakeWriter{},
		opener:   &fakeOpener{},
		store:    &fakeStore{},
		notifier: &fakeNotifier{},
	}
}

func (f *fixture) pipeline(concurrent bool) *Pipeline {
	return New(Deps{
		Fetcher:    f.collector,
		CVEs:       cve.StaticProvider{},
		Renderer:   report.NewRenderer(report.Options{Location: time.UTC}),
		Writer:     f.writer,
		Store:      f.store,
		Notifier:   f.notifier,
		Opener:     f.opener,
		Now:        func() time.Time { return runTime },
		Location:   time.UTC,
		Concurrent: concurrent,
	})
}

func TestPipelineRunDegradesOnFailedSource(t *testing.T) {
	f := newFixture()
	res, err := f.pipeline(false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Path != "/tmp/veille_cyber_20250304_153010.html" {
		t.Fatalf("unexpected path %q", res.Path)
	}
	if len(res.Report.Alerts) != 1 || len(res.Report.Articles) != 0 || len(res.Report.CVEs) != 2 {
		t.Fatalf("unexpected report sections %#v", res.Report)
	}
	if res.Report.Articles == nil {
		t.Fatalf("failed section should be empty, not nil")
	}
	if len(res.FailedSources) != 1 || res.FailedSources[0] != "thehackernews" {
		t.Fatalf("unexpected failed sources %v", res.FailedSources)
	}
	if !strings.Contains(f.writer.doc, "Faille X") || !strings.Contains(f.writer.doc, report.NoArticles) {
		t.Fatalf("document missing alert or news placeholder")
	}
	if !strings.Contains(f.writer.doc, "severity-high") {
		t.Fatalf("document missing severity badge")
	}
	if len(f.opener.opened) != 1 || f.opener.opened[0] != res.Path {
		t.Fatalf("expected report to be opened once, got %v", f.opener.opened)
	}
	if len(f.collector.limits) != 2 || f.collector.limits[0] != sources.DefaultLimit {
		t.Fatalf("expected default limit for both sections, got %v", f.collector.limits)
	}
}

func TestPipelineRecordsAndNotifies(t *testing.T) {
	f := newFixture()
	if _, err := f.pipeline(false).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(f.store.runs) != 1 {
		t.Fatalf("expected one history record, got %d", len(f.store.runs))
	}
	rec := f.store.runs[0]
	if rec.Alerts != 1 || rec.CVEs != 2 || rec.Articles != 0 || !rec.GeneratedAt.Equal(runTime) {
		t.Fatalf("unexpected run record %#v", rec)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0].Counts.Alerts != 1 {
		t.Fatalf("unexpected events %#v", f.notifier.events)
	}
}

func TestPipelineWriteFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.writer.err = errors.New("disk full")

	_, err := f.pipeline(false).Run(context.Background())
	if err == nil {
		t.Fatalf("expected error when report cannot be written")
	}
	if len(f.opener.opened) != 0 || len(f.store.runs) != 0 || len(f.notifier.events) != 0 {
		t.Fatalf("no post-write step should run after a write failure")
	}
}

func TestPipelineRecoverableFailuresDoNotFailRun(t *testing.T) {
	f := newFixture()
	f.opener.err = errors.New("no display")
	f.store.err = errors.New("db locked")
	f.notifier.err = errors.New("queue down")

	res, err := f.pipeline(false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Path == "" || f.writer.calls != 1 {
		t.Fatalf("report should still be written")
	}
}

func TestPipelineConcurrentMatchesSequential(t *testing.T) {
	seq := newFixture()
	seq.collector.failing = nil
	seq.collector.bySrc["thehackernews"] = []domain.FeedItem{domain.NewFeedItem("News", "https://news/1", "")}
	if _, err := seq.pipeline(false).Run(context.Background()); err != nil {
		t.Fatalf("sequential Run: %v", err)
	}

	con := newFixture()
	con.collector.failing = nil
	con.collector.bySrc["thehackernews"] = []domain.FeedItem{domain.NewFeedItem("News", "https://news/1", "")}
	if _, err := con.pipeline(true).Run(context.Background()); err != nil {
		t.Fatalf("concurrent Run: %v", err)
	}

	if seq.writer.doc != con.writer.doc {
		t.Fatalf("concurrent fetch changed the document")
	}
	alerts := strings.Index(con.writer.doc, "Faille X")
	news := strings.Index(con.writer.doc, "https://news/1")
	if alerts < 0 || news < 0 || alerts > news {
		t.Fatalf("sections out of order")
	}
}

func TestPipelineHeadingsFollowConfiguredSources(t *testing.T) {
	reg, err := sources.NewRegistry([]sources.Source{
		{ID: "certfr", Name: "CERT-FR", Section: sources.SectionAlerts, Type: sources.TypeRSS, URL: "https://cert.example/feed"},
		{ID: "anssi", Name: "ANSSI", Section: sources.SectionAlerts, Type: sources.TypeRSS, URL: "https://anssi.example/feed"},
		{ID: "darkreading", Name: "Dark Reading", Section: sources.SectionArticles, Type: sources.TypeRSS, URL: "https://dr.example/rss"},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	f := newFixture()
	p := New(Deps{
		Sources:  reg,
		Fetcher:  f.collector,
		Renderer: report.NewRenderer(report.Options{Location: time.UTC}),
		Writer:   f.writer,
		Now:      func() time.Time { return runTime },
		Location: time.UTC,
	})

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Report.AlertsSource != "" || res.Report.ArticlesSource != "Dark Reading" {
		t.Fatalf("unexpected section sources %q / %q", res.Report.AlertsSource, res.Report.ArticlesSource)
	}
	if !strings.Contains(f.writer.doc, "🔴 Alertes de Sécurité") {
		t.Fatalf("mixed alerts section should use a neutral heading")
	}
	if !strings.Contains(f.writer.doc, "📰 Dark Reading - Actualités") {
		t.Fatalf("single-source news section should name its feed")
	}
	if strings.Contains(f.writer.doc, "The Hacker News") {
		t.Fatalf("heading names a feed that is not configured")
	}
}

func TestPipelineWithoutStoreStillRuns(t *testing.T) {
	f := newFixture()
	p := New(Deps{
		Fetcher: f.collector,
		Writer:  f.writer,
		Now:     func() time.Time { return runTime },
	})
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Path == "" {
		t.Fatalf("expected report path")
	}
	if !strings.Contains(f.writer.doc, "🔴 CERT-FR - Alertes de Sécurité") {
		t.Fatalf("built-in alerts feed should be named in its heading")
	}
}
