package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/veille-cyber/internal/delivery"
	"github.com/samvad-hq/veille-cyber/internal/domain"
	"github.com/samvad-hq/veille-cyber/internal/logger"
	"github.com/samvad-hq/veille-cyber/internal/report"
	"github.com/samvad-hq/veille-cyber/internal/storage"
	"github.com/samvad-hq/veille-cyber/pkg/cve"
	"github.com/samvad-hq/veille-cyber/pkg/publishers"
	"github.com/samvad-hq/veille-cyber/pkg/sources"
)

const bannerLayout = "02/01/2006 15:04:05"

// FeedCollector fetches a list of sources. It never fails; unreadable
// sources are reported in the outcome.
type FeedCollector interface {
	Collect(ctx context.Context, list []sources.Source, fallbackLimit int) sources.Outcome
}

// ReportWriter persists a rendered document named after t.
type ReportWriter interface {
	SaveAt(doc string, t time.Time) (string, error)
}

// Notifier announces a written report.
type Notifier interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
	Size() int
}

// Deps are the collaborators of a Pipeline. Nil optional fields get no-op defaults.
type Deps struct {
	Sources    *sources.Registry
	Fetcher    FeedCollector
	CVEs       cve.Provider
	Renderer   *report.Renderer
	Writer     ReportWriter
	Store      storage.Store
	Notifier   Notifier
	Opener     delivery.Opener
	Log        logger.Logger
	Now        func() time.Time
	Location   *time.Location
	ItemLimit  int
	Concurrent bool
}

// Pipeline runs one report generation: fetch advisories, fetch news,
// provide CVEs, render, persist, then hand the file to the operator.
type Pipeline struct {
	sources    *sources.Registry
	fetcher    FeedCollector
	cves       cve.Provider
	renderer   *report.Renderer
	writer     ReportWriter
	store      storage.Store
	notifier   Notifier
	opener     delivery.Opener
	log        logger.Logger
	now        func() time.Time
	location   *time.Location
	itemLimit  int
	concurrent bool
}

// Result describes a completed run.
type Result struct {
	Path          string
	Report        domain.Report
	FailedSources []string
}

// New assembles a Pipeline from its collaborators.
func New(d Deps) *Pipeline {
	p := &Pipeline{
		sources:    d.Sources,
		fetcher:    d.Fetcher,
		cves:       d.CVEs,
		renderer:   d.Renderer,
		writer:     d.Writer,
		store:      d.Store,
		notifier:   d.Notifier,
		opener:     d.Opener,
		log:        d.Log,
		now:        d.Now,
		location:   d.Location,
		itemLimit:  d.ItemLimit,
		concurrent: d.Concurrent,
	}
	if p.sources == nil {
		p.sources = sources.DefaultRegistry()
	}
	if p.fetcher == nil {
		p.fetcher = sources.NewFetcher(nil, 0, d.Log)
	}
	if p.cves == nil {
		p.cves = cve.StaticProvider{}
	}
	if p.location == nil {
		p.location = time.Local
	}
	if p.renderer == nil {
		p.renderer = report.NewRenderer(report.Options{Location: p.location})
	}
	if p.writer == nil {
		p.writer = delivery.NewWriter(nil, ".", delivery.DefaultPrefix)
	}
	if p.store == nil {
		p.store = storage.NoopStore()
	}
	if p.opener == nil {
		p.opener = delivery.NopOpener{}
	}
	if p.log == nil {
		p.log = logger.NopLogger{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.itemLimit <= 0 {
		p.itemLimit = sources.DefaultLimit
	}
	return p
}

// Run executes the pipeline once. Only a report that cannot be written
// fails the run; every other problem is logged and the run continues.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	generatedAt := p.now().In(p.location)
	p.log.InfoObj("veille run starting", "run", map[string]any{
		"generated_at": generatedAt.Format(bannerLayout),
		"concurrent":   p.concurrent,
		"item_limit":   p.itemLimit,
	})

	alerts, news := p.fetchFeeds(ctx)
	p.logStep("advisories fetched", sources.SectionAlerts, alerts)
	p.logStep("news fetched", sources.SectionArticles, news)

	cves := p.cves.RecentCVEs(ctx)
	p.log.InfoObj("cve records provided", "step", map[string]any{
		"cves":   len(cves),
		"notice": p.cves.Notice() != "",
	})

	res := Result{
		Report: domain.Report{
			GeneratedAt: generatedAt,
			Alerts:      alerts.Items,
			CVEs:        cves,
			CVENotice:   p.cves.Notice(),
			Articles:    news.Items,

			AlertsSource:   p.sectionSource(sources.SectionAlerts),
			ArticlesSource: p.sectionSource(sources.SectionArticles),
		},
		FailedSources: append(append([]string{}, alerts.Failed...), news.Failed...),
	}

	doc, err := p.renderer.Render(res.Report)
	if err != nil {
		return res, err
	}

	path, err := p.writer.SaveAt(doc, generatedAt)
	if err != nil {
		p.log.ErrorObj("report could not be written", "error", err.Error())
		return res, fmt.Errorf("save report: %w", err)
	}
	res.Path = path
	p.log.InfoObj("report saved", "report_path", path)

	rec := domain.RunRecord{
		GeneratedAt:   generatedAt,
		ReportPath:    path,
		Alerts:        len(res.Report.Alerts),
		CVEs:          len(res.Report.CVEs),
		Articles:      len(res.Report.Articles),
		FailedSources: res.FailedSources,
	}
	if err := p.store.RecordRun(rec); err != nil {
		p.log.WarnObj("run history not recorded", "error", err.Error())
	}
	p.notify(ctx, rec)

	if err := p.opener.Open(path); err != nil {
		p.log.WarnObj("browser could not be opened; report is on disk", "browser_error", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
	}

	p.log.InfoObj("veille run completed", "summary", map[string]any{
		"report_path":    path,
		"alerts":         rec.Alerts,
		"cves":           rec.CVEs,
		"articles":       rec.Articles,
		"failed_sources": rec.FailedSources,
	})
	return res, nil
}

// fetchFeeds collects both feed sections. The concurrent mode only changes
// scheduling; results are joined before rendering.
func (p *Pipeline) fetchFeeds(ctx context.Context) (alerts, news sources.Outcome) {
	alertSources := p.sources.Section(sources.SectionAlerts)
	newsSources := p.sources.Section(sources.SectionArticles)

	if !p.concurrent {
		alerts = p.fetcher.Collect(ctx, alertSources, p.itemLimit)
		news = p.fetcher.Collect(ctx, newsSources, p.itemLimit)
		return alerts, news
	}

	var g errgroup.Group
	g.Go(func() error {
		alerts = p.fetcher.Collect(ctx, alertSources, p.itemLimit)
		return nil
	})
	g.Go(func() error {
		news = p.fetcher.Collect(ctx, newsSources, p.itemLimit)
		return nil
	})
	_ = g.Wait()
	return alerts, news
}

// sectionSource names the single feed of a section, or "" when it has several.
func (p *Pipeline) sectionSource(section string) string {
	list := p.sources.Section(section)
	if len(list) != 1 {
		return ""
	}
	return list[0].Name
}

func (p *Pipeline) logStep(msg, section string, out sources.Outcome) {
	meta := map[string]any{
		"section": section,
		"items":   len(out.Items),
		"failed":  len(out.Failed),
	}
	if len(out.Failed) > 0 {
		meta["failed_sources"] = out.Failed
		p.log.WarnObj(msg, "step", meta)
		return
	}
	p.log.InfoObj(msg, "step", meta)
}

func (p *Pipeline) notify(ctx context.Context, rec domain.RunRecord) {
	if p.notifier == nil || p.notifier.Size() == 0 {
		return
	}
	delivered, err := p.notifier.Publish(ctx, publishers.NewEvent(rec))
	if err != nil {
		p.log.WarnObj("report notification failed", "publish_error", map[string]any{
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	p.log.DebugObj("report notification delivered", "publishers", delivered)
}
