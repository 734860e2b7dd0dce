package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressReporter reports how far a sequential batch has got
type ProgressReporter struct {
	mu          sync.Mutex
	total       int
	current     int
	description string
	interval    time.Duration
	startTime   time.Time
	lastUpdate  time.Time
	completed   bool
	logger      *Logger
}

// NewProgressReporter creates a new progress reporter that logs at most once
// per interval while work is under way. Complete logs the final count.
func NewProgressReporter(total int, description string, interval time.Duration) *ProgressReporter {
	now := time.Now()
	return &ProgressReporter{
		total:       total,
		description: description,
		interval:    interval,
		startTime:   now,
		lastUpdate:  now,
		logger:      GetLogger().WithField("component", "progress"),
	}
}

// Update increments the progress counter and optionally reports progress
func (pr *ProgressReporter) Update(increment int) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	pr.current += increment
	now := time.Now()

	if !pr.completed && pr.current < pr.total && now.Sub(pr.lastUpdate) >= pr.interval {
		pr.reportProgress()
		pr.lastUpdate = now
	}
}

// Complete reports the final count once. A batch that stopped early is
// reported as such, not rounded up to the total.
func (pr *ProgressReporter) Complete() {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	if pr.completed {
		return
	}
	pr.completed = true
	pr.reportProgress()
}

// reportProgress logs the current progress (must be called with lock held)
func (pr *ProgressReporter) reportProgress() {
	percentage := pr.percentage()
	elapsed := time.Since(pr.startTime)

	var eta string
	if !pr.completed && pr.current > 0 && pr.current < pr.total {
		avgTimePerItem := elapsed / time.Duration(pr.current)
		remaining := time.Duration(pr.total-pr.current) * avgTimePerItem
		eta = fmt.Sprintf(" (ETA: %s)", remaining.Round(time.Second))
	}

	pr.logger.WithFields(map[string]interface{}{
		"progress":    fmt.Sprintf("%.1f%%", percentage),
		"current":     pr.current,
		"total":       pr.total,
		"elapsed":     elapsed.Round(time.Second).String(),
		"description": pr.description,
	}).Info(fmt.Sprintf("%s: %d/%d (%.1f%%)%s", pr.description, pr.current, pr.total, percentage, eta))
}

func (pr *ProgressReporter) percentage() float64 {
	if pr.total == 0 {
		return 100
	}
	return float64(pr.current) / float64(pr.total) * 100
}
