package service

import (
	"context"

	"seo-keywords/pkg/monitor"
)

// RunService is what the CLI and the trigger server drive
type RunService interface {
	Run(ctx context.Context) (*monitor.Report, error)
	Plan(ctx context.Context) (*monitor.Plan, error)
	Close() error
}

// StatusService reports health and the last run to the trigger server
type StatusService interface {
	HealthCheck(ctx context.Context) error
	LastReport() *monitor.Report
}
