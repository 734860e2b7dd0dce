// Package monitor runs one resumable keyword-ideas pass: select the next batch
// of unprocessed seed phrases, fetch their ideas, filter, write the sinks and
// commit the processed phrases.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"seo-keywords/pkg/api"
	"seo-keywords/pkg/keyword"
	"seo-keywords/pkg/logger"
	"seo-keywords/pkg/seeds"
	"seo-keywords/pkg/sink"
	"seo-keywords/pkg/storage"
)

// ErrRunInProgress is returned when another run holds the run lock
var ErrRunInProgress = errors.New("another run is already in progress")

// Run outcomes used in reports and metrics
const (
	OutcomeCompleted = "completed"
	OutcomeEmpty     = "empty"
	OutcomePartial   = "partial"
	OutcomeCanceled  = "canceled"
	OutcomeFailed    = "failed"
)

// Report summarizes one run
type Report struct {
	RunID          string        `json:"run_id"`
	Source         string        `json:"source"`
	Outcome        string        `json:"outcome"`
	Started        time.Time     `json:"started"`
	Duration       time.Duration `json:"duration"`
	Candidates     int           `json:"candidates"`
	Batch          []string      `json:"batch"`
	Succeeded      int           `json:"succeeded"`
	QuotaExhausted int           `json:"quota_exhausted"`
	Failed         int           `json:"failed"`
	IdeasFetched   int           `json:"ideas_fetched"`
	IdeasKept      int           `json:"ideas_kept"`
	Committed      int           `json:"committed"`
	CommitSkipped  bool          `json:"commit_skipped"`
	SinkErrors     []string      `json:"sink_errors,omitempty"`
	Sinks          sink.Results  `json:"-"`
}

// SinkErr joins the errors of every failed sink
func (r *Report) SinkErr() error {
	return r.Sinks.Err()
}

// Plan describes what the next run would do, without calling the API
type Plan struct {
	Source     string   `json:"source"`
	Log        string   `json:"log"`
	Candidates int      `json:"candidates"`
	Processed  int      `json:"processed"`
	Pending    int      `json:"pending"`
	Limit      int      `json:"limit"`
	Batch      []string `json:"batch"`
}

// Runner executes runs. Build one with NewRunnerBuilder.
type Runner struct {
	source    seeds.Source
	tracker   *storage.Tracker
	fetcher   *api.Fetcher
	formatter keyword.Formatter
	sinks     *sink.Multi
	limit     int
	lockPath  string
	metrics   *Metrics
	log       *logger.Logger
}

// Limit returns the batch size
func (r *Runner) Limit() int {
	return r.limit
}

// Plan loads the seeds and processed log and selects the next batch
func (r *Runner) Plan(ctx context.Context) (*Plan, error) {
	all, err := r.source.Phrases(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seed phrases: %w", err)
	}

	processed, err := r.tracker.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load processed log: %w", err)
	}

	plan := &Plan{
		Source:     r.source.Describe(),
		Log:        r.tracker.Log().Describe(),
		Candidates: len(all),
		Processed:  processed.Len(),
		Limit:      r.limit,
		Batch:      []string{},
	}
	if len(all) == 0 {
		return plan, nil
	}

	pending, err := storage.SelectBatch(all, processed, len(all))
	if err != nil {
		return nil, err
	}
	plan.Pending = len(pending)
	if len(pending) > r.limit {
		pending = pending[:r.limit]
	}
	plan.Batch = pending
	return plan, nil
}

// Run performs one pass. Per-phrase API failures never fail the run; sink
// failures are reported in the Report. The returned error covers locking,
// seed loading and commit failures.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Source:  r.source.Describe(),
		Batch:   []string{},
	}
	log := r.log.WithRun(report.RunID)

	report.Outcome = OutcomeFailed
	defer func() {
		report.Duration = time.Since(report.Started)
		if r.metrics != nil {
			r.metrics.RecordRun(report, report.Outcome)
		}
	}()

	if r.lockPath != "" {
		lock := storage.NewRunLock(r.lockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return report, err
		}
		if !ok {
			return report, fmt.Errorf("%w (lock %s)", ErrRunInProgress, lock.Path())
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				log.WithError(err).Warn("Failed to release run lock")
			}
		}()
	}

	all, err := r.source.Phrases(ctx)
	if err != nil {
		return report, fmt.Errorf("load seed phrases: %w", err)
	}
	report.Candidates = len(all)

	batch, err := r.tracker.Plan(ctx, all, r.limit)
	if err != nil {
		return report, fmt.Errorf("select batch: %w", err)
	}
	report.Batch = batch

	log.WithFields(map[string]interface{}{
		"source":     report.Source,
		"candidates": len(all),
		"batch":      len(batch),
		"limit":      r.limit,
	}).Info("Starting keyword run")

	if len(batch) == 0 {
		report.Outcome = OutcomeEmpty
		log.Info("No unprocessed seed phrases, nothing to do")
		return report, nil
	}

	outcomes := r.fetcher.FetchBatch(ctx, batch)

	var ideas []keyword.Idea
	var toCommit []string
	canceled := false
	for _, o := range outcomes {
		switch o.Status {
		case api.StatusOK:
			report.Succeeded++
			ideas = append(ideas, o.Ideas...)
			toCommit = append(toCommit, o.Phrase)
		case api.StatusFailed:
			report.Failed++
			toCommit = append(toCommit, o.Phrase)
		case api.StatusQuotaExhausted:
			report.QuotaExhausted++
		case api.StatusCanceled:
			canceled = true
		}
	}
	if ctx.Err() != nil {
		canceled = true
	}
	report.IdeasFetched = len(ideas)

	kept := r.formatter.Filter(ideas)
	report.IdeasKept = len(kept)

	// results already fetched are still written when the run is cancelled
	persistCtx := context.WithoutCancel(ctx)

	report.Sinks = r.sinks.Write(persistCtx, kept)
	secure := &logger.SecurityLogger{Logger: log}
	for _, res := range report.Sinks {
		if res.Err != nil {
			// remote client errors can echo request credentials
			report.SinkErrors = append(report.SinkErrors, secure.MaskLogMessage(fmt.Sprintf("%s: %v", res.Name, res.Err)))
			secure.SafeError("Output sink failed", res.Err, map[string]interface{}{"sink": res.Name})
		}
	}

	if report.Sinks.Failed(sink.CSVName) {
		report.CommitSkipped = true
		log.WithField("phrases", len(toCommit)).Warn("Results file was not written, processed log left unchanged")
	} else if len(toCommit) > 0 {
		if err := r.tracker.Commit(persistCtx, toCommit); err != nil {
			return report, err
		}
		report.Committed = len(toCommit)
	}

	switch {
	case canceled:
		report.Outcome = OutcomeCanceled
	case len(report.SinkErrors) > 0 || report.QuotaExhausted > 0:
		report.Outcome = OutcomePartial
	default:
		report.Outcome = OutcomeCompleted
	}

	log.WithFields(map[string]interface{}{
		"outcome":         report.Outcome,
		"succeeded":       report.Succeeded,
		"quota_exhausted": report.QuotaExhausted,
		"failed":          report.Failed,
		"ideas_fetched":   report.IdeasFetched,
		"ideas_kept":      report.IdeasKept,
		"committed":       report.Committed,
		"duration":        time.Since(report.Started).String(),
	}).Info("Keyword run finished")

	return report, nil
}
