package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"seo-keywords/internal/config"
	"seo-keywords/internal/handler"
	"seo-keywords/internal/service"
	"seo-keywords/pkg/logger"
)

// runDrainTimeout bounds how long shutdown waits for a cancelled run to write
// its results and commit
const runDrainTimeout = 2 * time.Minute

type Application struct {
	configPath string
	envFile    string
	debug      bool
	runTimeout time.Duration
}

func main() {
	app := &Application{}

	fs := pflag.NewFlagSet("seo-keywords-server", pflag.ExitOnError)
	fs.StringVar(&app.configPath, "config", "", "Configuration file path")
	fs.StringVar(&app.envFile, "env-file", config.DefaultEnvFile, "Dotenv file with credentials")
	fs.BoolVar(&app.debug, "debug", false, "Enable debug mode")
	fs.DurationVar(&app.runTimeout, "run-timeout", 2*time.Hour, "Maximum duration of a single run")
	config.RegisterRunFlags(fs)
	config.RegisterServerFlags(fs)
	config.RegisterLoggingFlags(fs)
	_ = fs.Parse(os.Args[1:])

	if err := app.Run(fs); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func (app *Application) Run(fs *pflag.FlagSet) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.NewManager(config.WithEnvFile(app.envFile), config.WithFlags(fs)).Load(app.configPath)
	if err != nil {
		return err
	}

	settings := cfg.LoggerSettings()
	if app.debug {
		settings.Level = "debug"
	}
	log := logger.Configure(settings).WithField("component", "server")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, err := service.New(ctx, cfg, service.Options{Registerer: registry})
	if err != nil {
		return err
	}
	defer svc.Close()

	controller := handler.NewController(svc, svc, registry, handler.ControllerConfig{RunTimeout: app.runTimeout})
	fiberApp := controller.NewApp()

	var scheduler *handler.Scheduler
	if cfg.Server.Schedule != "" {
		scheduler, err = handler.NewScheduler(cfg.Server.Schedule, controller)
		if err != nil {
			return err
		}
		scheduler.Start()
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Trigger server listening")
		serveErr <- fiberApp.Listen(addr)
	}()

	var serveFailure error
	select {
	case err := <-serveErr:
		if err != nil {
			serveFailure = fmt.Errorf("server stopped: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	// the active run must return before the deferred svc.Close releases the
	// processed log
	runCtx, cancelWait := context.WithTimeout(context.Background(), runDrainTimeout)
	defer cancelWait()
	if err := controller.Shutdown(runCtx); err != nil {
		log.WithError(err).Warn("Active run did not finish before shutdown")
	}

	if serveFailure != nil {
		return serveFailure
	}
	if err := fiberApp.ShutdownWithTimeout(30 * time.Second); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
