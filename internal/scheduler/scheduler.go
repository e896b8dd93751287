package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/frahmantamala/genops/internal"
)

// OverdueSweeper moves pending invoices past their due date to overdue.
type OverdueSweeper interface {
	MarkOverdue(ctx context.Context) (int, error)
}

// Evictor drops per-client state that has been idle longer than ttl.
type Evictor interface {
	EvictIdle(ttl time.Duration) int
}

type Config struct {
	OverdueSchedule string
	EvictSchedule   string
	IdleTTL         time.Duration
	// JobTimeout bounds a single overdue sweep.
	JobTimeout time.Duration
}

// Scheduler runs the dashboard's housekeeping jobs.
type Scheduler struct {
	cron     *cron.Cron
	cfg      Config
	sweeper  OverdueSweeper
	evictors map[string]Evictor
	logger   *slog.Logger
}

func New(cfg Config, sweeper OverdueSweeper, evictors map[string]Evictor, logger *slog.Logger) *Scheduler {
	if cfg.OverdueSchedule == "" {
		cfg.OverdueSchedule = "@every 5m"
	}
	if cfg.EvictSchedule == "" {
		cfg.EvictSchedule = "@every 10m"
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = time.Minute
	}
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		cfg:      cfg,
		sweeper:  sweeper,
		evictors: evictors,
		logger:   logger,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.OverdueSchedule, func() {
		if _, err := s.SweepOverdue(context.Background()); err != nil {
			s.logger.Error("overdue sweep failed", "error", err)
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.cfg.EvictSchedule, func() {
		s.EvictIdle()
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// SweepOverdue runs one overdue sweep with system privileges.
func (s *Scheduler) SweepOverdue(ctx context.Context) (int, error) {
	if s.sweeper == nil {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(internal.ContextAsSystem(ctx), s.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	moved, err := s.sweeper.MarkOverdue(ctx)
	s.logger.Info("overdue sweep finished", "moved", moved, "duration", time.Since(start))
	return moved, err
}

// EvictIdle runs every evictor and returns the total number of clients dropped.
func (s *Scheduler) EvictIdle() int {
	total := 0
	for name, evictor := range s.evictors {
		removed := evictor.EvictIdle(s.cfg.IdleTTL)
		if removed > 0 {
			s.logger.Info("evicted idle clients", "registry", name, "count", removed)
		}
		total += removed
	}
	return total
}
