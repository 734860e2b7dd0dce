package handler

import (
	"testing"
)

func TestNewScheduler_InvalidSpec(t *testing.T) {
	controller := NewController(&fakeRunService{}, nil, nil, ControllerConfig{})
	if _, err := NewScheduler("not a schedule", controller); err == nil {
		t.Error("Expected error for invalid cron spec")
	}
}

func TestScheduler_TickRunsThroughController(t *testing.T) {
	runs := &fakeRunService{}
	controller := NewController(runs, nil, nil, ControllerConfig{})

	s, err := NewScheduler("@every 1h", controller)
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}

	s.tick()
	if runs.calls.Load() != 1 {
		t.Errorf("Expected one run, got %d", runs.calls.Load())
	}
}

func TestScheduler_TickSkipsWhileRunning(t *testing.T) {
	runs := &fakeRunService{}
	controller := NewController(runs, nil, nil, ControllerConfig{})
	s, err := NewScheduler("0 3 * * *", controller)
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}

	controller.running.Lock()
	s.tick()
	controller.running.Unlock()

	if runs.calls.Load() != 0 {
		t.Errorf("Expected tick to skip while a run holds the lock, got %d calls", runs.calls.Load())
	}
}
