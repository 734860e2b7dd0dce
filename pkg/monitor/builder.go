package monitor

import (
	"errors"
	"fmt"

	"seo-keywords/pkg/api"
	"seo-keywords/pkg/keyword"
	"seo-keywords/pkg/logger"
	"seo-keywords/pkg/seeds"
	"seo-keywords/pkg/sink"
	"seo-keywords/pkg/storage"
)

// RunnerBuilder assembles a Runner, collecting every validation error so that
// configuration problems surface together and before any external call.
type RunnerBuilder struct {
	source    seeds.Source
	tracker   *storage.Tracker
	fetcher   *api.Fetcher
	formatter keyword.Formatter
	sinks     []sink.Sink
	limit     int
	lockPath  string
	metrics   *Metrics
	errors    []error
}

// NewRunnerBuilder creates a builder with the default limit of 100 and
// minimum volume of 1000
func NewRunnerBuilder() *RunnerBuilder {
	return &RunnerBuilder{
		limit:     100,
		formatter: keyword.Formatter{MinVolume: 1000},
		errors:    make([]error, 0),
	}
}

// WithSource sets where seed phrases come from
func (b *RunnerBuilder) WithSource(source seeds.Source) *RunnerBuilder {
	b.source = source
	return b
}

// WithTracker sets the resume tracker
func (b *RunnerBuilder) WithTracker(tracker *storage.Tracker) *RunnerBuilder {
	b.tracker = tracker
	return b
}

// WithFetcher sets the rate-limited fetcher
func (b *RunnerBuilder) WithFetcher(fetcher *api.Fetcher) *RunnerBuilder {
	b.fetcher = fetcher
	return b
}

// WithLimit sets the maximum number of phrases per run
func (b *RunnerBuilder) WithLimit(limit int) *RunnerBuilder {
	if limit <= 0 {
		b.errors = append(b.errors, fmt.Errorf("%w, got: %d", storage.ErrInvalidLimit, limit))
		return b
	}
	b.limit = limit
	return b
}

// WithFilter sets the result formatter thresholds
func (b *RunnerBuilder) WithFilter(minVolume int64, minWords, maxResults int) *RunnerBuilder {
	if minVolume < 0 {
		b.errors = append(b.errors, fmt.Errorf("minimum search volume cannot be negative, got: %d", minVolume))
		return b
	}
	if minWords < 0 {
		b.errors = append(b.errors, fmt.Errorf("minimum word count cannot be negative, got: %d", minWords))
		return b
	}
	if maxResults < 0 {
		b.errors = append(b.errors, fmt.Errorf("max results cannot be negative, got: %d", maxResults))
		return b
	}
	b.formatter = keyword.Formatter{MinVolume: minVolume, MinWords: minWords, MaxResults: maxResults}
	return b
}

// WithSinks appends output sinks. They run in the order given.
func (b *RunnerBuilder) WithSinks(sinks ...sink.Sink) *RunnerBuilder {
	b.sinks = append(b.sinks, sinks...)
	return b
}

// WithRunLock guards runs with a lock file at path
func (b *RunnerBuilder) WithRunLock(path string) *RunnerBuilder {
	if path == "" {
		b.errors = append(b.errors, fmt.Errorf("run lock path cannot be empty"))
		return b
	}
	b.lockPath = path
	return b
}

// WithMetrics records run metrics
func (b *RunnerBuilder) WithMetrics(m *Metrics) *RunnerBuilder {
	b.metrics = m
	return b
}

// Validate returns every collected error, joined
func (b *RunnerBuilder) Validate() error {
	errs := append([]error{}, b.errors...)
	if b.source == nil {
		errs = append(errs, fmt.Errorf("seed source is required"))
	}
	if b.tracker == nil {
		errs = append(errs, fmt.Errorf("resume tracker is required"))
	}
	if b.fetcher == nil {
		errs = append(errs, fmt.Errorf("fetcher is required"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("runner configuration invalid: %w", errors.Join(errs...))
}

// Build validates and creates the Runner
func (b *RunnerBuilder) Build() (*Runner, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	return &Runner{
		source:    b.source,
		tracker:   b.tracker,
		fetcher:   b.fetcher,
		formatter: b.formatter,
		sinks:     sink.NewMulti(b.sinks...),
		limit:     b.limit,
		lockPath:  b.lockPath,
		metrics:   b.metrics,
		log:       logger.GetLogger().WithField("component", "runner"),
	}, nil
}

// HasErrors returns true if there are any validation errors
func (b *RunnerBuilder) HasErrors() bool {
	return b.Validate() != nil
}

// GetErrors returns the errors collected by the With* methods
func (b *RunnerBuilder) GetErrors() []error {
	return b.errors
}
