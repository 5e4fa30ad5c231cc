package controllers

import (
	"context"
	"sync"
	"time"

	"github.com/amaumene/cinescout/internal/debounce"
	"github.com/amaumene/cinescout/internal/metrics"
	"github.com/amaumene/cinescout/internal/models"
	"github.com/amaumene/cinescout/internal/services/trending"
	"github.com/amaumene/cinescout/internal/utils"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Session is one user's view: a debounced query feeding a search pipeline,
// plus a trending pipeline loaded once at start
type Session struct {
	ID        string
	CreatedAt time.Time

	search    *SearchController
	trending  *TrendingController
	debouncer *debounce.Scheduler
	logger    *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
	loads  sync.WaitGroup

	mu    sync.Mutex
	query string
}

// SessionSnapshot is the state a presentation layer renders
type SessionSnapshot struct {
	ID             string                                  `json:"id"`
	Query          string                                  `json:"query"`
	DebouncedQuery string                                  `json:"debounced_query"`
	Search         models.FetchState[models.MovieSummary]  `json:"search"`
	Trending       models.FetchState[models.TrendingEntry] `json:"trending"`
	CreatedAt      time.Time                               `json:"created_at"`
}

// SessionOptions tunes the pipelines of new sessions
type SessionOptions struct {
	QuietPeriod   time.Duration
	TrendingLimit int
	TTL           time.Duration
	Keyer         *utils.TermKeyer
	Blocklist     *utils.Blocklist
}

// NewSession creates a session; call Start to run its initial fetches
func NewSession(ctx context.Context, id string, catalog Catalog, store trending.Store, opts SessionOptions, logger *logrus.Logger) *Session {
	sessionCtx, cancel := context.WithCancel(ctx)

	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		search:    NewSearchController(catalog, store, opts.Keyer, opts.Blocklist, logger),
		trending:  NewTrendingController(store, opts.TrendingLimit, logger),
		logger:    logger.WithField("session", id),
		ctx:       sessionCtx,
		cancel:    cancel,
	}
	s.debouncer = debounce.New(opts.QuietPeriod, s.onStableQuery)

	return s
}

// Start runs the initial empty-term search and the one-off trending load
func (s *Session) Start() {
	s.logger.Debug("Starting session")

	s.search.Trigger(s.ctx, "")

	s.loads.Add(1)
	go func() {
		defer s.loads.Done()
		s.trending.LoadTrending(s.ctx)
	}()
}

// onStableQuery is called by the debouncer once the query stopped changing
func (s *Session) onStableQuery(term string) {
	s.logger.WithField("term", term).Debug("Query settled")
	s.search.Trigger(s.ctx, term)
}

// SetQuery records the raw input value
func (s *Session) SetQuery(query string) {
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()

	s.debouncer.Set(query)
}

// Snapshot returns the current state of both pipelines
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	query := s.query
	s.mu.Unlock()

	return SessionSnapshot{
		ID:             s.ID,
		Query:          query,
		DebouncedQuery: s.debouncer.Value(),
		Search:         s.search.State(),
		Trending:       s.trending.State(),
		CreatedAt:      s.CreatedAt,
	}
}

// Wait blocks until in-flight fetches and trending increments are done
func (s *Session) Wait() {
	s.loads.Wait()
	s.search.Wait()
}

// Close stops the debouncer and cancels in-flight fetches.
// Background trending increments are left to finish.
func (s *Session) Close() {
	s.debouncer.Stop()
	s.search.Cancel()
	s.cancel()
	s.logger.Debug("Session closed")
}

// SessionManager creates sessions and expires idle ones
type SessionManager struct {
	ctx      context.Context
	catalog  Catalog
	store    trending.Store
	opts     SessionOptions
	sessions *cache.Cache
	logger   *logrus.Logger
}

// NewSessionManager creates a session manager. Expired sessions are
// removed by DeleteExpired, which the scheduler runs periodically.
func NewSessionManager(ctx context.Context, catalog Catalog, store trending.Store, opts SessionOptions, logger *logrus.Logger) *SessionManager {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}

	sessions := cache.New(opts.TTL, 0)
	sessions.OnEvicted(func(id string, value interface{}) {
		value.(*Session).Close()
		metrics.ActiveSessions.Dec()
		logger.WithField("session", id).Debug("Session evicted")
	})

	return &SessionManager{
		ctx:      ctx,
		catalog:  catalog,
		store:    store,
		opts:     opts,
		sessions: sessions,
		logger:   logger,
	}
}

// Create starts a new session
func (m *SessionManager) Create() *Session {
	session := NewSession(m.ctx, uuid.NewString(), m.catalog, m.store, m.opts, m.logger)
	m.sessions.SetDefault(session.ID, session)
	metrics.ActiveSessions.Inc()

	session.Start()
	m.logger.WithField("session", session.ID).Info("Session created")

	return session
}

// Get returns a live session and extends its lifetime.
// Replace fails once the entry expired or was evicted, so a closed
// session is never put back.
func (m *SessionManager) Get(id string) (*Session, bool) {
	value, ok := m.sessions.Get(id)
	if !ok {
		return nil, false
	}
	session := value.(*Session)
	if err := m.sessions.Replace(id, session, cache.DefaultExpiration); err != nil {
		return nil, false
	}
	return session, true
}

// Delete closes and removes a session
func (m *SessionManager) Delete(id string) bool {
	if _, ok := m.sessions.Get(id); !ok {
		return false
	}
	m.sessions.Delete(id)
	return true
}

// Count returns the number of live sessions
func (m *SessionManager) Count() int {
	return m.sessions.ItemCount()
}

// DeleteExpired evicts sessions idle for longer than the TTL
func (m *SessionManager) DeleteExpired() int {
	before := m.sessions.ItemCount()
	m.sessions.DeleteExpired()
	return before - m.sessions.ItemCount()
}

// Shutdown closes every session and waits for background work
func (m *SessionManager) Shutdown() {
	items := m.sessions.Items()
	for _, item := range items {
		session := item.Object.(*Session)
		session.Close()
		session.Wait()
	}
	m.sessions.Flush()
	metrics.ActiveSessions.Set(0)
	m.logger.WithField("count", len(items)).Info("Sessions shut down")
}
