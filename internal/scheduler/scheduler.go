// Package scheduler runs the periodic sweeps that bound in-memory and
// stored session state.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/abhisek/tutorgate/internal/logging"
)

// QuizEvictor removes abandoned quiz sessions.
type QuizEvictor interface {
	EvictStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// VaultSweeper drops expired key vault sessions.
type VaultSweeper interface {
	Sweep(now time.Time) int
}

// Config configures the sweeps.
type Config struct {
	Interval       time.Duration
	QuizSessionTTL time.Duration
}

// Scheduler runs the sweeps every Interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cfg       Config
	quiz      QuizEvictor
	vault     VaultSweeper
	log       *logging.Logger
}

// New creates a Scheduler. Either sweeper may be nil.
func New(cfg Config, quiz QuizEvictor, vault VaultSweeper, log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.Nop()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		cfg:       cfg,
		quiz:      quiz,
		vault:     vault,
		log:       log.With("component", "scheduler"),
	}
}

// Start schedules the sweeps and returns without blocking.
func (s *Scheduler) Start() error {
	minutes := int(s.cfg.Interval / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	if _, err := s.scheduler.Every(minutes).Minutes().Do(s.Sweep); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.log.Info("scheduler started", "interval_minutes", minutes)
	return nil
}

// Stop ends all scheduled sweeps.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Sweep runs every sweep once.
func (s *Scheduler) Sweep() {
	if s.quiz != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		n, err := s.quiz.EvictStale(ctx, s.cfg.QuizSessionTTL)
		cancel()
		if err != nil {
			s.log.Error("quiz session sweep failed", "error", err)
		} else if n > 0 {
			s.log.Debug("quiz sessions evicted", "count", n)
		}
	}
	if s.vault != nil {
		if n := s.vault.Sweep(time.Now()); n > 0 {
			s.log.Debug("vault sessions expired", "count", n)
		}
	}
}
