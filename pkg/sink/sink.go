// Package sink writes filtered keyword ideas to their destinations: a local
// CSV file, a bucket copy of that file and a spreadsheet.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seo-keywords/pkg/keyword"
	"seo-keywords/pkg/logger"
)

// Sink persists one run's filtered ideas
type Sink interface {
	Name() string
	Write(ctx context.Context, ideas []keyword.Idea) error
}

// Result is the outcome of one sink
type Result struct {
	Name     string
	Err      error
	Duration time.Duration
}

// Results holds per-sink outcomes in dispatch order
type Results []Result

// Err joins every sink error, or returns nil when all succeeded
func (r Results) Err() error {
	var errs []error
	for _, res := range r {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Name, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Failed reports whether the named sink ran and failed
func (r Results) Failed(name string) bool {
	for _, res := range r {
		if res.Name == name && res.Err != nil {
			return true
		}
	}
	return false
}

// Multi runs each sink in order. A failing sink never stops the ones after
// it; its error is kept in the returned Results.
type Multi struct {
	sinks []Sink
	log   *logger.Logger
}

// NewMulti creates a fan-out over the given sinks. Nil sinks are skipped.
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{log: logger.GetLogger().WithField("component", "sinks")}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Names lists the configured sinks in dispatch order
func (m *Multi) Names() []string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name()
	}
	return names
}

func (m *Multi) Write(ctx context.Context, ideas []keyword.Idea) Results {
	results := make(Results, 0, len(m.sinks))
	for _, s := range m.sinks {
		start := time.Now()
		err := s.Write(ctx, ideas)
		results = append(results, Result{Name: s.Name(), Err: err, Duration: time.Since(start)})

		if err != nil {
			m.log.WithField("sink", s.Name()).WithError(err).Error("Sink failed")
			continue
		}
		m.log.WithFields(map[string]interface{}{
			"sink": s.Name(),
			"rows": len(ideas),
		}).Info("Sink completed")
	}
	return results
}
