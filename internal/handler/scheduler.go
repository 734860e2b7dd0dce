package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"seo-keywords/pkg/logger"
	"seo-keywords/pkg/monitor"
)

// cronLogger routes cron's own messages through the application logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(pairs(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(pairs(keysAndValues)).WithError(err).Error(msg)
}

func pairs(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

// Scheduler triggers runs on a cron schedule through the controller, so
// scheduled and HTTP-triggered runs never overlap.
type Scheduler struct {
	cron       *cron.Cron
	controller *Controller
	entry      cron.EntryID
	ctx        context.Context
	cancel     context.CancelFunc
	log        *logger.Logger
}

// NewScheduler parses a standard five-field cron spec or a descriptor such
// as "@every 6h".
func NewScheduler(spec string, controller *Controller) (*Scheduler, error) {
	log := logger.GetLogger().WithField("component", "scheduler")
	c := cron.New(
		cron.WithLogger(cronLogger{log: log}),
		cron.WithChain(cron.Recover(cronLogger{log: log})),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{cron: c, controller: controller, ctx: ctx, cancel: cancel, log: log}
	id, err := c.AddFunc(spec, s.tick)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

func (s *Scheduler) tick() {
	report, err := s.controller.TriggerRun(s.ctx)
	switch {
	case errors.Is(err, monitor.ErrRunInProgress):
		s.log.Info("Skipping scheduled run, another run is active")
	case errors.Is(err, ErrShuttingDown):
		s.log.Info("Skipping scheduled run, shutting down")
	case err != nil:
		s.log.WithError(err).Error("Scheduled run failed")
	default:
		s.log.WithFields(map[string]interface{}{
			"run_id":  report.RunID,
			"outcome": report.Outcome,
		}).Info("Scheduled run finished")
	}
}

// Start begins firing the schedule in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithField("next", s.cron.Entry(s.entry).Next.String()).Info("Scheduler started")
}

// Stop halts the schedule, cancels an in-flight scheduled run and returns a
// context that is done once that run has wound down
func (s *Scheduler) Stop() context.Context {
	s.cancel()
	return s.cron.Stop()
}

// Next returns the next scheduled activation
func (s *Scheduler) Next() string {
	return s.cron.Entry(s.entry).Next.String()
}
