package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/veille-cyber/internal/config"
	"github.com/samvad-hq/veille-cyber/internal/delivery"
	"github.com/samvad-hq/veille-cyber/internal/logger"
	"github.com/samvad-hq/veille-cyber/internal/report"
	"github.com/samvad-hq/veille-cyber/internal/storage"
	"github.com/samvad-hq/veille-cyber/pkg/cve"
	"github.com/samvad-hq/veille-cyber/pkg/httpclient"
	"github.com/samvad-hq/veille-cyber/pkg/publishers"
	"github.com/samvad-hq/veille-cyber/pkg/sources"
)

// Runtime owns a configured Pipeline and the resources it holds open.
type Runtime struct {
	*Pipeline
	fanout *publishers.Fanout
	store  storage.Store
	log    logger.Logger
}

// NewRuntime builds the pipeline from configuration and registry files.
func NewRuntime(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sourceReg, err := sources.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources registry: %w", err)
	}
	all := sourceReg.All()
	sourceIDs := make([]string, 0, len(all))
	for _, s := range all {
		sourceIDs = append(sourceIDs, s.ID)
	}
	log.InfoObj("sources registry loaded", "sources_meta", map[string]any{
		"count": len(sourceIDs),
		"ids":   sourceIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients, log)
	if fanout.Size() > 0 {
		summaries := make([]map[string]string, 0, len(enabledPublishers))
		for _, pubCfg := range enabledPublishers {
			summaries = append(summaries, map[string]string{"id": pubCfg.ID, "type": pubCfg.Type})
		}
		log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
			"count":      fanout.Size(),
			"publishers": summaries,
		})
	}

	store, err := OpenHistory(cfg)
	if err != nil {
		_ = fanout.Close()
		return nil, err
	}
	log.DebugObj("history storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.HistoryPath,
		"ttl_seconds":              int(cfg.HistoryTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.HistoryCleanupInterval.Seconds()),
	})

	client := httpclient.NewRestyClient(httpclient.Options{
		Timeout:   cfg.FetchTimeout,
		UserAgent: cfg.UserAgent,
	})

	pipeline := New(Deps{
		Sources:  sourceReg,
		Fetcher:  sources.NewFetcher(client, cfg.FetchTimeout, log),
		CVEs:     cve.NewProvider(cfg.NVDAPIKey, log),
		Renderer: report.NewRenderer(report.Options{
			Location:  cfg.Location,
			Author:    cfg.ReportAuthor,
			AuthorURL: cfg.ReportAuthorURL,
		}),
		Writer:     delivery.NewWriter(nil, cfg.OutputDir, cfg.ReportPrefix),
		Store:      store,
		Notifier:   fanout,
		Opener:     delivery.NewOpener(cfg.OpenBrowser),
		Log:        log,
		Location:   cfg.Location,
		ItemLimit:  cfg.ItemLimit,
		Concurrent: cfg.ConcurrentFetch,
	})

	return &Runtime{Pipeline: pipeline, fanout: fanout, store: store, log: log}, nil
}

// OpenHistory opens the configured run history store.
func OpenHistory(cfg *config.Config) (storage.Store, error) {
	store, err := storage.NewStore(cfg.StorageType, cfg.HistoryPath, storage.Options{
		RunTTL:          cfg.HistoryTTL,
		CleanupInterval: cfg.HistoryCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return store, nil
}

// Close releases publishers and the history store.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	err := errors.Join(r.fanout.Close(), r.store.Close())
	if err != nil {
		r.log.ErrorObj("runtime close failed", "error", err.Error())
	}
	return err
}
