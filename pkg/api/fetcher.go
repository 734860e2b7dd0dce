package api

import (
	"context"
	"errors"
	"time"

	"seo-keywords/pkg/keyword"
	"seo-keywords/pkg/logger"
)

// OutcomeStatus summarizes how a phrase lookup ended
type OutcomeStatus string

const (
	StatusOK             OutcomeStatus = "ok"
	StatusQuotaExhausted OutcomeStatus = "quota_exhausted"
	StatusFailed         OutcomeStatus = "failed"
	StatusCanceled       OutcomeStatus = "canceled"
)

// PhraseOutcome is the result of fetching one seed phrase
type PhraseOutcome struct {
	Phrase   string
	Ideas    []keyword.Idea
	Attempts int
	Status   OutcomeStatus
	Err      error
	Duration time.Duration
}

// Observer is notified after each phrase finishes. Metrics hook in here.
type Observer interface {
	ObservePhrase(outcome PhraseOutcome)
}

// Fetcher queries phrases one at a time, retrying quota errors under its
// policy and pausing a fixed interval between consecutive lookups.
type Fetcher struct {
	client   IdeaClient
	policy   RetryPolicy
	interval time.Duration
	now      func() time.Time
	observer Observer
	log      *logger.Logger
}

// FetcherOption customizes a Fetcher
type FetcherOption func(*Fetcher)

// WithRetryPolicy overrides the default 3 x 5s policy
func WithRetryPolicy(p RetryPolicy) FetcherOption {
	return func(f *Fetcher) { f.policy = p }
}

// WithInterval sets the pause between consecutive lookups
func WithInterval(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.interval = d }
}

// WithClock sets the clock used to date ideas
func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) { f.now = now }
}

// WithObserver registers a per-phrase observer
func WithObserver(o Observer) FetcherOption {
	return func(f *Fetcher) { f.observer = o }
}

// DefaultInterval is the pause between lookups
const DefaultInterval = 1 * time.Second

// NewFetcher creates a sequential, rate-limited fetcher
func NewFetcher(client IdeaClient, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:   client,
		policy:   DefaultRetryPolicy(),
		interval: DefaultInterval,
		now:      time.Now,
		log:      logger.GetLogger().WithField("component", "fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchOne looks up a single phrase. It never panics on remote failure; the
// error is reported in the outcome.
func (f *Fetcher) FetchOne(ctx context.Context, phrase string) PhraseOutcome {
	start := time.Now()
	var ideas []keyword.Idea

	attempts, err := f.policy.Execute(ctx, func(attempt int) error {
		result, err := f.client.GenerateIdeas(ctx, phrase)
		if err != nil {
			if IsQuotaError(err) {
				f.log.WithFields(map[string]interface{}{
					"phrase":  phrase,
					"attempt": attempt,
				}).Warn("Quota exceeded, waiting before retry")
			}
			return err
		}
		ideas = result
		return nil
	})

	outcome := PhraseOutcome{
		Phrase:   phrase,
		Attempts: attempts,
		Err:      err,
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		outcome.Status = StatusOK
		outcome.Ideas = f.stamp(phrase, ideas)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		outcome.Status = StatusCanceled
	case IsQuotaError(err):
		outcome.Status = StatusQuotaExhausted
	default:
		outcome.Status = StatusFailed
	}

	if f.observer != nil {
		f.observer.ObservePhrase(outcome)
	}
	return outcome
}

// stamp attaches the seed phrase and run date to each idea
func (f *Fetcher) stamp(phrase string, ideas []keyword.Idea) []keyword.Idea {
	date := f.now()
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	stamped := make([]keyword.Idea, len(ideas))
	for i, idea := range ideas {
		idea.SourcePhrase = phrase
		idea.Date = date
		stamped[i] = idea
	}
	return stamped
}

// FetchBatch looks up phrases strictly in order, one at a time. Failed
// phrases are logged and skipped. The interval is applied between calls
// whatever their outcome. A cancelled context stops the batch; outcomes for
// phrases already attempted are still returned.
func (f *Fetcher) FetchBatch(ctx context.Context, phrases []string) []PhraseOutcome {
	outcomes := make([]PhraseOutcome, 0, len(phrases))
	progress := logger.NewProgressReporter(len(phrases), "Fetching keyword ideas", 30*time.Second)
	defer progress.Complete()

	for i, phrase := range phrases {
		if i > 0 {
			if err := sleepContext(ctx, f.interval); err != nil {
				f.log.WithError(err).Warn("Batch interrupted")
				break
			}
		}

		outcome := f.FetchOne(ctx, phrase)
		outcomes = append(outcomes, outcome)
		progress.Update(1)

		fields := map[string]interface{}{
			"phrase":   phrase,
			"attempts": outcome.Attempts,
			"status":   string(outcome.Status),
		}
		switch outcome.Status {
		case StatusOK:
			fields["ideas"] = len(outcome.Ideas)
			f.log.WithFields(fields).Debug("Fetched keyword ideas")
		case StatusCanceled:
			f.log.WithFields(fields).Warn("Batch interrupted")
			return outcomes
		default:
			f.log.WithFields(fields).WithError(outcome.Err).Warn("Skipping phrase")
		}
	}

	return outcomes
}
