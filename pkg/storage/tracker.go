package storage

import (
	"context"
	"errors"
	"fmt"

	"seo-keywords/pkg/logger"
)

// ErrInvalidLimit is returned for a batch limit that is not positive
var ErrInvalidLimit = errors.New("batch limit must be positive")

// Tracker decides which seed phrases a run should process and records them
// once processed, so later runs resume where earlier ones stopped.
type Tracker struct {
	log          ProcessedLog
	dedupOnWrite bool
	logger       *logger.Logger
}

// TrackerOption customizes a Tracker
type TrackerOption func(*Tracker)

// WithDedupOnWrite skips phrases already present in the log at commit time.
// Off by default: duplicate entries are harmless for set membership.
func WithDedupOnWrite(enabled bool) TrackerOption {
	return func(t *Tracker) {
		t.dedupOnWrite = enabled
	}
}

// NewTracker creates a tracker over the given processed log
func NewTracker(log ProcessedLog, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		log:    log,
		logger: logger.GetLogger().WithField("component", "resume_tracker"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Log returns the underlying processed log
func (t *Tracker) Log() ProcessedLog {
	return t.log
}

// Load reads every previously processed phrase
func (t *Tracker) Load(ctx context.Context) (PhraseSet, error) {
	set, err := t.log.Load(ctx)
	if err != nil {
		return nil, err
	}
	t.logger.WithFields(map[string]interface{}{
		"log":       t.log.Describe(),
		"processed": set.Len(),
	}).Debug("Loaded processed log")
	return set, nil
}

// SelectBatch returns, in original order, the first limit phrases of all that
// are neither in processed nor repeats of an earlier phrase.
func SelectBatch(all []string, processed PhraseSet, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	batch := make([]string, 0, min(limit, len(all)))
	seen := make(PhraseSet, len(all))
	for _, phrase := range all {
		if len(batch) == limit {
			break
		}
		if phrase == "" || processed.Contains(phrase) || seen.Contains(phrase) {
			continue
		}
		seen.Add(phrase)
		batch = append(batch, phrase)
	}
	return batch, nil
}

// Plan loads the log and selects the next batch in one step
func (t *Tracker) Plan(ctx context.Context, all []string, limit int) ([]string, error) {
	processed, err := t.Load(ctx)
	if err != nil {
		return nil, err
	}
	return SelectBatch(all, processed, limit)
}

// Commit appends phrases to the processed log. Existing entries are never
// rewritten.
func (t *Tracker) Commit(ctx context.Context, phrases []string) error {
	toWrite := phrases
	if t.dedupOnWrite {
		existing, err := t.log.Load(ctx)
		if err != nil {
			return fmt.Errorf("load processed log for dedup: %w", err)
		}
		toWrite = make([]string, 0, len(phrases))
		for _, p := range phrases {
			if existing.Contains(p) {
				continue
			}
			existing.Add(p)
			toWrite = append(toWrite, p)
		}
	}

	if len(toWrite) == 0 {
		return nil
	}

	if err := t.log.Append(ctx, toWrite); err != nil {
		return fmt.Errorf("commit %d phrases to %s: %w", len(toWrite), t.log.Describe(), err)
	}

	t.logger.WithFields(map[string]interface{}{
		"committed": len(toWrite),
		"requested": len(phrases),
	}).Info("Committed processed phrases")
	return nil
}
