// Package scheduler runs periodic housekeeping: decision retention and cache
// cleanup.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-edge/internal/logger"
)

// Purger deletes stored decisions older than a cutoff
type Purger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor drops expired cache entries
type Janitor interface {
	DeleteExpired()
}

// Scheduler manages scheduled housekeeping jobs
type Scheduler struct {
	cron       *cron.Cron
	logger     *logrus.Entry
	audit      *logger.AuditLogger
	mu         sync.RWMutex
	isRunning  bool
	jobIDs     []cron.EntryID
	jobTimeout time.Duration
	now        func() time.Time
}

// NewScheduler creates a new scheduler
func NewScheduler(log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logger.Discard()
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		logger:     log.WithField("component", "scheduler"),
		audit:      logger.NewAuditLogger(log),
		jobIDs:     make([]cron.EntryID, 0),
		jobTimeout: 5 * time.Minute,
		now:        time.Now,
	}
}

// ScheduleRetention schedules deletion of decisions older than maxAge
func (s *Scheduler) ScheduleRetention(cronExpression string, purger Purger, maxAge time.Duration) error {
	if maxAge <= 0 {
		return fmt.Errorf("retention max age must be positive, got %s", maxAge)
	}

	return s.addJob(cronExpression, "retention", func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		if _, err := s.RunRetention(ctx, purger, maxAge); err != nil {
			s.logger.WithError(err).Error("Scheduled retention purge failed")
		}
	})
}

// RunRetention deletes decisions older than maxAge once
func (s *Scheduler) RunRetention(ctx context.Context, purger Purger, maxAge time.Duration) (int64, error) {
	cutoff := s.now().Add(-maxAge)
	deleted, err := purger.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention purge: %w", err)
	}
	s.audit.LogRetentionPurge(cutoff, deleted)
	return deleted, nil
}

// ScheduleCacheCleanup schedules expiry sweeps over the given caches
func (s *Scheduler) ScheduleCacheCleanup(cronExpression string, janitors ...Janitor) error {
	if len(janitors) == 0 {
		return fmt.Errorf("no caches to clean")
	}

	return s.addJob(cronExpression, "cache_cleanup", func() {
		for _, j := range janitors {
			j.DeleteExpired()
		}
		s.logger.WithField("caches", len(janitors)).Debug("Expired cache entries removed")
	})
}

func (s *Scheduler) addJob(cronExpression, name string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, job)
	if err != nil {
		return fmt.Errorf("failed to add %s job: %w", name, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"job":      name,
		"schedule": cronExpression,
	}).Info("Scheduled job")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
}

// Run starts the scheduler and blocks until ctx is done. With no jobs it
// simply waits.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.JobCount() == 0 {
		<-ctx.Done()
		return nil
	}
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// JobCount returns the number of scheduled jobs
func (s *Scheduler) JobCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobIDs)
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (nextRun.IsZero() || entry.Next.Before(nextRun)) {
			nextRun = entry.Next
		}
	}
	return nextRun
}
