package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"MarketWire/internal/ports"
)

// CronScheduler drives recurring pipeline runs from a cron expression.
type CronScheduler struct {
	spec string
	loc  *time.Location

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler from a cron expression and timezone.
func NewCronScheduler(spec string, loc *time.Location) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{spec: spec, loc: loc}
}

// Start registers the job and begins ticking. Starting twice is a no-op.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron != nil {
		return nil
	}

	runner := cron.New(cron.WithLocation(c.loc))
	_, err := runner.AddFunc(c.spec, func() {
		job(time.Now().In(c.loc))
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", c.spec, err)
	}

	runner.Start()
	c.cron = runner

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	runner := c.cron
	c.cron = nil
	c.mu.Unlock()

	if runner == nil {
		return nil
	}

	select {
	case <-runner.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
