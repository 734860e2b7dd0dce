package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"seo-keywords/internal/service"
	"seo-keywords/pkg/logger"
	"seo-keywords/pkg/monitor"
)

// ErrShuttingDown is returned for runs triggered after Shutdown
var ErrShuttingDown = errors.New("server is shutting down")

// Controller serves the run trigger endpoints. At most one run executes at a
// time across HTTP triggers and the schedule.
type Controller struct {
	runs     service.RunService
	status   service.StatusService
	gatherer prometheus.Gatherer
	config   ControllerConfig

	running   sync.Mutex
	busy      sync.RWMutex
	isRunning bool
	startedAt time.Time

	// every run context derives from base; Shutdown cancels it
	base      context.Context
	stop      context.CancelFunc
	lifecycle sync.Mutex
	closed    bool
	inflight  sync.WaitGroup

	log *logger.Logger
}

type ControllerConfig struct {
	// RunTimeout bounds a single run; zero means no limit
	RunTimeout time.Duration
}

type StatusResponse struct {
	Status     string          `json:"status"`
	Timestamp  string          `json:"timestamp"`
	Running    bool            `json:"running"`
	RunningFor string          `json:"running_for,omitempty"`
	LastRun    *monitor.Report `json:"last_run,omitempty"`
	Next       *monitor.Plan   `json:"next,omitempty"`
	PlanError  string          `json:"plan_error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewController(runs service.RunService, status service.StatusService, gatherer prometheus.Gatherer, config ControllerConfig) *Controller {
	base, stop := context.WithCancel(context.Background())
	return &Controller{
		runs:     runs,
		status:   status,
		gatherer: gatherer,
		config:   config,
		base:     base,
		stop:     stop,
		log:      logger.GetLogger().WithField("component", "controller"),
	}
}

// NewApp creates the fiber app with every route registered
func (c *Controller) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "seo-keywords",
		DisableStartupMessage: true,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return ctx.Status(code).JSON(errorResponse{Error: err.Error()})
		},
	})
	app.Use(recover.New())
	c.Register(app)
	return app
}

// Register adds the routes to an existing router
func (c *Controller) Register(router fiber.Router) {
	router.Post("/run", c.handleRun)
	router.Get("/health", c.handleHealth)
	router.Get("/status", c.handleStatus)
	if c.gatherer != nil {
		router.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})))
	}
}

// TriggerRun starts a run unless one is already active, in which case it
// returns monitor.ErrRunInProgress without waiting. The run is cancelled when
// either ctx or the controller is shut down.
func (c *Controller) TriggerRun(ctx context.Context) (*monitor.Report, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	return c.runAcquired(ctx)
}

// acquire takes the run slot and registers the run with Shutdown
func (c *Controller) acquire() error {
	if !c.running.TryLock() {
		return monitor.ErrRunInProgress
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.closed {
		c.running.Unlock()
		return ErrShuttingDown
	}
	c.inflight.Add(1)
	return nil
}

// runAcquired runs with the slot taken by acquire and releases it on return
func (c *Controller) runAcquired(ctx context.Context) (*monitor.Report, error) {
	defer c.inflight.Done()
	defer c.running.Unlock()

	c.setRunning(true)
	defer c.setRunning(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopAfter := context.AfterFunc(c.base, cancel)
	defer stopAfter()

	if c.config.RunTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, c.config.RunTimeout)
		defer cancelTimeout()
	}
	return c.runs.Run(ctx)
}

// Shutdown refuses new runs, cancels the active one and waits until it has
// returned or ctx expires. A cancelled run still persists what it fetched.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.lifecycle.Lock()
	c.closed = true
	c.lifecycle.Unlock()
	c.stop()

	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for active run: %w", ctx.Err())
	}
}

func (c *Controller) setRunning(running bool) {
	c.busy.Lock()
	defer c.busy.Unlock()
	c.isRunning = running
	if running {
		c.startedAt = time.Now()
	}
}

func (c *Controller) runningSince() (bool, time.Time) {
	c.busy.RLock()
	defer c.busy.RUnlock()
	return c.isRunning, c.startedAt
}

// handleRun runs synchronously and returns the report. With ?wait=false it
// answers 202 immediately and the run continues in the background.
func (c *Controller) handleRun(ctx *fiber.Ctx) error {
	if ctx.Query("wait") == "false" {
		if err := c.acquire(); err != nil {
			return ctx.Status(triggerStatus(err)).JSON(errorResponse{Error: err.Error()})
		}
		go func() {
			if _, err := c.runAcquired(c.base); err != nil {
				c.log.WithError(err).Warn("Background run failed")
			}
		}()
		return ctx.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
	}

	report, err := c.TriggerRun(ctx.UserContext())
	switch {
	case errors.Is(err, monitor.ErrRunInProgress), errors.Is(err, ErrShuttingDown):
		return ctx.Status(triggerStatus(err)).JSON(errorResponse{Error: err.Error()})
	case err != nil:
		c.log.WithError(err).Error("Triggered run failed")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  err.Error(),
			"report": report,
		})
	}
	return ctx.JSON(report)
}

// triggerStatus maps a refused trigger to its HTTP status
func triggerStatus(err error) int {
	if errors.Is(err, ErrShuttingDown) {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusConflict
}

func (c *Controller) handleHealth(ctx *fiber.Ctx) error {
	if c.status != nil {
		if err := c.status.HealthCheck(ctx.UserContext()); err != nil {
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
	}
	return ctx.JSON(fiber.Map{"status": "ok"})
}

func (c *Controller) handleStatus(ctx *fiber.Ctx) error {
	running, since := c.runningSince()
	resp := StatusResponse{
		Status:    "idle",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Running:   running,
	}
	if running {
		resp.Status = "running"
		resp.RunningFor = time.Since(since).Round(time.Second).String()
	}
	if c.status != nil {
		resp.LastRun = c.status.LastReport()
	}

	plan, err := c.runs.Plan(ctx.UserContext())
	if err != nil {
		resp.PlanError = err.Error()
	} else {
		resp.Next = plan
	}
	return ctx.JSON(resp)
}
