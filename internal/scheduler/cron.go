package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/cinescout/internal/metrics"
	"github.com/amaumene/cinescout/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const statsTimeout = 10 * time.Second

// StatsSource reports the contents of the trending store
type StatsSource interface {
	Stats(ctx context.Context) (models.StoreStats, error)
}

// SessionSweeper removes idle sessions
type SessionSweeper interface {
	DeleteExpired() int
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron     *cron.Cron
	store    StatsSource
	sessions SessionSweeper
	logger   *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(store StatsSource, sessions SessionSweeper, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	// Every minute: refresh the trending store gauges
	_, err := s.cron.AddFunc("@every 1m", func() {
		s.runStatsRefresh()
	})
	if err != nil {
		return fmt.Errorf("failed to add stats job: %w", err)
	}

	// Every 5 minutes: drop sessions past their TTL
	_, err = s.cron.AddFunc("*/5 * * * *", func() {
		s.runSessionSweep()
	})
	if err != nil {
		return fmt.Errorf("failed to add session sweep job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	go s.runStatsRefresh()

	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// runStatsRefresh publishes store statistics to the metrics gauges
func (s *Scheduler) runStatsRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	stats, err := s.store.Stats(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Stats refresh failed")
		return
	}

	metrics.TrendingTerms.Set(float64(stats.Terms))
	s.logger.WithFields(logrus.Fields{
		"terms":    stats.Terms,
		"searches": stats.Searches,
	}).Debug("Trending stats refreshed")
}

// runSessionSweep executes the session expiry job
func (s *Scheduler) runSessionSweep() {
	removed := s.sessions.DeleteExpired()
	if removed > 0 {
		s.logger.WithField("count", removed).Info("Expired sessions removed")
	}
}
