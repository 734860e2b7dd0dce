package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"seo-keywords/internal/config"
	"seo-keywords/pkg/api"
	"seo-keywords/pkg/bucket"
	"seo-keywords/pkg/logger"
	"seo-keywords/pkg/monitor"
	"seo-keywords/pkg/seeds"
	"seo-keywords/pkg/sink"
	"seo-keywords/pkg/storage"
)

// Options tune how the service is assembled
type Options struct {
	// Registerer receives run metrics; nil disables metrics
	Registerer prometheus.Registerer
	// Client replaces the Google Ads client, mainly for tests
	Client api.IdeaClient
	// PlanOnly skips everything that needs Ads credentials or remote sinks
	PlanOnly bool
}

// KeywordService wires configuration into a Runner and owns the resources
// it opened.
type KeywordService struct {
	runner  *monitor.Runner
	log     storage.ProcessedLog
	closers []io.Closer
	metrics *monitor.Metrics

	mu   sync.RWMutex
	last *monitor.Report
}

// New validates cfg and builds the runner with its seed source, processed
// log, fetcher and sinks. Configuration errors are returned before any
// network call to the Ads API.
func New(ctx context.Context, cfg *config.Config, opts Options) (*KeywordService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !opts.PlanOnly && opts.Client == nil {
		if err := cfg.ValidateCredentials(); err != nil {
			return nil, err
		}
	}

	s := &KeywordService{}
	ok := false
	defer func() {
		if !ok {
			_ = s.Close()
		}
	}()

	if opts.Registerer != nil {
		s.metrics = monitor.NewMetrics(opts.Registerer)
	}

	source, err := s.seedSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	processed, err := storage.OpenProcessedLog(ctx, cfg.LogConfig())
	if err != nil {
		return nil, fmt.Errorf("open processed log: %w", err)
	}
	s.log = processed
	s.closers = append(s.closers, processed)

	client := opts.Client
	if client == nil && !opts.PlanOnly {
		tokens := api.NewRefreshTokenSource(ctx, cfg.OAuthCredentials())
		adsClient, err := api.NewAdsClient(cfg.AdsClientConfig(), tokens)
		if err != nil {
			return nil, fmt.Errorf("create ads client: %w", err)
		}
		client = adsClient
	}

	fetcherOpts := []api.FetcherOption{
		api.WithRetryPolicy(cfg.RetryPolicy()),
		api.WithInterval(cfg.Fetch.Interval),
	}
	if s.metrics != nil {
		fetcherOpts = append(fetcherOpts, api.WithObserver(s.metrics))
	}

	builder := monitor.NewRunnerBuilder().
		WithSource(source).
		WithTracker(storage.NewTracker(processed, storage.WithDedupOnWrite(cfg.ProcessedLog.DedupOnWrite))).
		WithFetcher(api.NewFetcher(client, fetcherOpts...)).
		WithLimit(cfg.Filter.Limit).
		WithFilter(cfg.Filter.MinSearch, cfg.Filter.MinWords, cfg.Filter.MaxResults).
		WithMetrics(s.metrics)

	if lockPath := cfg.RunLockPath(); lockPath != "" {
		builder = builder.WithRunLock(lockPath)
	}

	if !opts.PlanOnly {
		sinks, err := s.sinks(ctx, cfg)
		if err != nil {
			return nil, err
		}
		builder = builder.WithSinks(sinks...)
	}

	runner, err := builder.Build()
	if err != nil {
		return nil, err
	}
	s.runner = runner

	logger.GetSecurityLogger().SafeInfo("Keyword service configured", cfg.SafeSummary())
	ok = true
	return s, nil
}

func (s *KeywordService) seedSource(ctx context.Context, cfg *config.Config) (seeds.Source, error) {
	switch {
	case cfg.Seeds.Theme != "":
		return seeds.TemplateSource{Path: cfg.Seeds.Template, Theme: cfg.Seeds.Theme}, nil
	case cfg.Seeds.PhrasesFile != "":
		return seeds.FileSource{Path: cfg.Seeds.PhrasesFile}, nil
	case cfg.Seeds.Object != "":
		store, err := bucket.Open(ctx, cfg.Seeds.Bucket, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, store)
		return seeds.BucketSource{Store: store, Bucket: cfg.Seeds.Bucket, Object: cfg.Seeds.Object}, nil
	default:
		return nil, config.ErrMissingSeedInput
	}
}

// sinks returns CSV first, then the bucket copy of that file, then the
// spreadsheet
func (s *KeywordService) sinks(ctx context.Context, cfg *config.Config) ([]sink.Sink, error) {
	layout, err := sink.ParseLayout(cfg.Output.Layout)
	if err != nil {
		return nil, err
	}

	sinks := []sink.Sink{sink.NewCSVSink(cfg.Output.Results, layout)}

	if cfg.Output.Bucket != "" {
		store, err := bucket.Open(ctx, cfg.Output.Bucket, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, store)
		sinks = append(sinks, &sink.BucketUploadSink{
			Uploader:  store,
			LocalPath: cfg.Output.Results,
			Key:       cfg.Output.UploadKey,
		})
	}

	if cfg.Output.Sheet != "" || cfg.Output.SheetID != "" {
		sheet, err := sink.OpenGoogleSheet(ctx, sink.GoogleSheetConfig{
			CredentialsFile: cfg.CredentialsFile,
			SpreadsheetID:   cfg.Output.SheetID,
			SpreadsheetName: cfg.Output.Sheet,
			Worksheet:       cfg.Output.Worksheet,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, &sink.SheetsSink{Sheet: sheet, Layout: layout})
	}

	return sinks, nil
}

// Run executes one pass and remembers its report
func (s *KeywordService) Run(ctx context.Context) (*monitor.Report, error) {
	report, err := s.runner.Run(ctx)
	if errors.Is(err, monitor.ErrRunInProgress) {
		return report, err
	}
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
	return report, err
}

func (s *KeywordService) Plan(ctx context.Context) (*monitor.Plan, error) {
	return s.runner.Plan(ctx)
}

// HealthCheck confirms the processed log is readable
func (s *KeywordService) HealthCheck(ctx context.Context) error {
	if _, err := s.log.Load(ctx); err != nil {
		return fmt.Errorf("processed log %s unavailable: %w", s.log.Describe(), err)
	}
	return nil
}

func (s *KeywordService) LastReport() *monitor.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Close releases the processed log and any cloud clients
func (s *KeywordService) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
