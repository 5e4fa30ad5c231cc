package controllers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/amaumene/cinescout/internal/metrics"
	"github.com/amaumene/cinescout/internal/models"
	"github.com/amaumene/cinescout/internal/services/tmdb"
	"github.com/amaumene/cinescout/internal/services/trending"
	"github.com/amaumene/cinescout/internal/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// User-facing messages of the search pipeline
const (
	MessageFetchFailed     = "Failed to fetch movies."
	MessageTransportFailed = "Error fetching movies. Please try again later."
)

const incrementTimeout = 10 * time.Second

var errNoResponse = errors.New("catalog returned no response")

// Catalog is the movie catalog queried by the search pipeline
type Catalog interface {
	SearchMovies(ctx context.Context, query string) (*tmdb.Response, error)
	DiscoverMovies(ctx context.Context) (*tmdb.Response, error)
	PosterURL(posterPath string) string
}

// SearchController owns the search pipeline state of one session.
// Each run takes a sequence number; an outcome that settles after a newer
// run was issued is discarded, so the latest issued query always wins.
type SearchController struct {
	catalog   Catalog
	store     trending.Store
	keyer     *utils.TermKeyer
	blocklist *utils.Blocklist
	tracer    trace.Tracer
	logger    *logrus.Logger

	mu     sync.Mutex
	state  models.FetchState[models.MovieSummary]
	seq    uint64
	term   string
	cancel context.CancelFunc

	runs       sync.WaitGroup
	increments sync.WaitGroup
}

// searchRequest is one issued run of the pipeline
type searchRequest struct {
	ctx    context.Context
	cancel context.CancelFunc
	seq    uint64
	term   string
}

// NewSearchController creates a new search controller
func NewSearchController(catalog Catalog, store trending.Store, keyer *utils.TermKeyer, blocklist *utils.Blocklist, logger *logrus.Logger) *SearchController {
	return &SearchController{
		catalog:   catalog,
		store:     store,
		keyer:     keyer,
		blocklist: blocklist,
		tracer:    otel.Tracer("github.com/amaumene/cinescout/internal/controllers"),
		logger:    logger,
		state:     models.IdleState[models.MovieSummary](),
	}
}

// RunSearch runs the pipeline for term and blocks until it settles.
// It returns the pipeline state afterwards, which belongs to a newer run if
// this one was superseded meanwhile.
func (c *SearchController) RunSearch(ctx context.Context, term string) models.FetchState[models.MovieSummary] {
	req := c.begin(ctx, term)
	c.execute(req)
	return c.State()
}

// Trigger starts the pipeline for term without waiting for it to settle.
// The loading transition happens before Trigger returns.
func (c *SearchController) Trigger(ctx context.Context, term string) {
	req := c.begin(ctx, term)
	go c.execute(req)
}

// begin issues a new run: cancels the in-flight one and enters loading
func (c *SearchController) begin(ctx context.Context, term string) searchRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	reqCtx, cancel := context.WithCancel(ctx)
	c.seq++
	c.term = term
	c.cancel = cancel
	c.state = c.state.Loading()
	c.runs.Add(1)

	return searchRequest{ctx: reqCtx, cancel: cancel, seq: c.seq, term: term}
}

// execute fetches and settles one run
func (c *SearchController) execute(req searchRequest) {
	defer c.runs.Done()
	defer req.cancel()

	ctx, span := c.tracer.Start(req.ctx, "search.run", trace.WithAttributes(
		attribute.String("search.term", req.term),
		attribute.Int64("search.seq", int64(req.seq)),
	))
	defer span.End()

	logger := c.logger.WithFields(logrus.Fields{
		"term": req.term,
		"seq":  req.seq,
	})

	resp, err := c.fetch(ctx, req.term)
	if err == nil && resp == nil {
		err = errNoResponse
	}

	c.mu.Lock()
	if req.seq != c.seq {
		c.mu.Unlock()
		metrics.SearchesTotal.WithLabelValues("stale").Inc()
		span.SetAttributes(attribute.String("search.outcome", "stale"))
		logger.Debug("Discarding stale search outcome")
		return
	}

	switch {
	case err != nil:
		c.state = c.state.Fail(MessageTransportFailed)
	case resp.Failed():
		message := resp.Message()
		if message == "" {
			message = MessageFetchFailed
		}
		c.state = c.state.Fail(message)
	default:
		c.state = c.state.Succeed(resp.Results)
	}
	state := c.state
	c.mu.Unlock()

	metrics.SearchesTotal.WithLabelValues(string(state.Phase)).Inc()
	span.SetAttributes(
		attribute.String("search.outcome", string(state.Phase)),
		attribute.Int("search.results", len(state.Results)),
	)
	if state.Phase == models.PhaseError {
		span.SetStatus(codes.Error, state.Error)
	}

	if err != nil {
		logger.WithError(err).Error("Error fetching movies")
		return
	}
	if state.Phase == models.PhaseError {
		logger.WithField("message", state.Error).Warn("Catalog reported a failure")
		return
	}

	logger.WithField("count", len(state.Results)).Debug("Search completed")

	if req.term != "" && len(state.Results) > 0 {
		c.recordSearch(req.term, state.Results[0])
	}
}

// fetch picks the endpoint: free-text search for a term, popularity discover otherwise
func (c *SearchController) fetch(ctx context.Context, term string) (*tmdb.Response, error) {
	if term != "" {
		return c.catalog.SearchMovies(ctx, term)
	}
	return c.catalog.DiscoverMovies(ctx)
}

// recordSearch increments the trending counter of term in the background.
// Failures are logged only; they never reach the search state.
func (c *SearchController) recordSearch(term string, first models.MovieSummary) {
	logger := c.logger.WithField("term", term)

	if blocked, match := c.blocklist.IsBlocked(term); blocked {
		metrics.TrendingIncrementsTotal.WithLabelValues("blocked").Inc()
		logger.WithField("match", match).Debug("Search term blocklisted, not counted")
		return
	}

	key := c.keyer.Key(term)
	if key == "" {
		return
	}

	rep := models.Representative{
		MovieID:   first.ID,
		Title:     first.Title,
		PosterURL: c.catalog.PosterURL(first.PosterPath),
	}

	c.increments.Add(1)
	go func() {
		defer c.increments.Done()

		ctx, cancel := context.WithTimeout(context.Background(), incrementTimeout)
		defer cancel()

		if err := c.store.IncrementCount(ctx, key, rep); err != nil {
			metrics.TrendingIncrementsTotal.WithLabelValues("error").Inc()
			logger.WithError(err).Error("Failed to update search count")
			return
		}
		metrics.TrendingIncrementsTotal.WithLabelValues("ok").Inc()
		logger.WithField("key", key).Debug("Search count updated")
	}()
}

// State returns a copy of the current pipeline state
func (c *SearchController) State() models.FetchState[models.MovieSummary] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Term returns the term of the most recently issued run
func (c *SearchController) Term() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.term
}

// Cancel aborts the in-flight run, if any
func (c *SearchController) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Wait blocks until every issued run has settled and every background
// trending increment has finished
func (c *SearchController) Wait() {
	c.runs.Wait()
	c.increments.Wait()
}
