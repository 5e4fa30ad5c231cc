package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/amaumene/cinescout/internal/metrics"
	"github.com/amaumene/cinescout/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	stats models.StoreStats
	err   error
}

func (f *fakeStats) Stats(ctx context.Context) (models.StoreStats, error) {
	return f.stats, f.err
}

type fakeSweeper struct {
	calls   int
	removed int
}

func (f *fakeSweeper) DeleteExpired() int {
	f.calls++
	return f.removed
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestStatsRefreshSetsGauge(t *testing.T) {
	s := NewScheduler(&fakeStats{stats: models.StoreStats{Terms: 7, Searches: 21}}, &fakeSweeper{}, newTestLogger())

	s.runStatsRefresh()
	assert.Equal(t, float64(7), testutil.ToFloat64(metrics.TrendingTerms))
}

func TestStatsRefreshKeepsGaugeOnError(t *testing.T) {
	metrics.TrendingTerms.Set(3)
	s := NewScheduler(&fakeStats{err: errors.New("store offline")}, &fakeSweeper{}, newTestLogger())

	s.runStatsRefresh()
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.TrendingTerms))
}

func TestSessionSweep(t *testing.T) {
	sweeper := &fakeSweeper{removed: 2}
	s := NewScheduler(&fakeStats{}, sweeper, newTestLogger())

	s.runSessionSweep()
	assert.Equal(t, 1, sweeper.calls)
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&fakeStats{}, &fakeSweeper{}, newTestLogger())

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 2)
	s.Stop()
}
