package ruleset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/liamcoop/linkrules/rules"
)

// FactProvider returns the facts for one scheduled run
type FactProvider func(ctx context.Context) (rules.FactSource, error)

// Scheduler runs every rule of a Manager on a cron schedule.
//
// Common schedules:
//   - "*/5 * * * *" - every five minutes
//   - "0 * * * *"   - hourly
//   - "@every 30s"  - every thirty seconds
type Scheduler struct {
	manager  *Manager
	provider FactProvider
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a stopped scheduler
func NewScheduler(m *Manager, provider FactProvider) *Scheduler {
	return &Scheduler{
		manager:  m,
		provider: provider,
		cron:     cron.New(),
		logger:   m.logger.With("component", "ruleset.scheduler"),
	}
}

// Start validates schedule and begins running. The scheduler stops when ctx
// is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule rule runs: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("rule scheduler started", "schedule", schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce fetches facts from the provider and runs every rule against them
func (s *Scheduler) RunOnce(ctx context.Context) (*Run, error) {
	facts, err := s.provider(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load facts: %w", err)
	}
	return s.manager.RunAll(ctx, facts)
}

// Stop halts the schedule and waits for a run in progress to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("rule scheduler stopped")
}

// Running reports whether the schedule is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
