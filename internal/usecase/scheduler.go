package usecase

import (
	"context"
	"log/slog"
	"time"

	"MarketWire/internal/ports"
)

// Scheduler wires the cron-like driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring batch runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if err := s.pipeline.ProcessBatch(ctx, trigger); err != nil && s.logger != nil {
			s.logger.Error("scheduled batch failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
