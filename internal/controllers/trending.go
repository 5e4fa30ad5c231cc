package controllers

import (
	"context"
	"sync"

	"github.com/amaumene/cinescout/internal/models"
	"github.com/amaumene/cinescout/internal/services/trending"
	"github.com/sirupsen/logrus"
)

// MessageTrendingFailed is shown in the trending slot when the store read fails
const MessageTrendingFailed = "Error fetching trending movies."

// TrendingController loads the trending list of one session.
// The list is read once; search activity does not refresh it.
type TrendingController struct {
	store  trending.Store
	limit  int
	logger *logrus.Logger

	once  sync.Once
	mu    sync.Mutex
	state models.FetchState[models.TrendingEntry]
}

// NewTrendingController creates a new trending controller
func NewTrendingController(store trending.Store, limit int, logger *logrus.Logger) *TrendingController {
	return &TrendingController{
		store:  store,
		limit:  limit,
		logger: logger,
		state:  models.IdleState[models.TrendingEntry](),
	}
}

// LoadTrending reads the top entries from the store. Only the first call
// does any work; later calls return the settled state.
func (c *TrendingController) LoadTrending(ctx context.Context) models.FetchState[models.TrendingEntry] {
	c.once.Do(func() {
		c.load(ctx)
	})
	return c.State()
}

func (c *TrendingController) load(ctx context.Context) {
	c.setState(c.State().Loading())

	entries, err := c.store.TopN(ctx, c.limit)
	if err != nil {
		c.logger.WithError(err).Error("Error fetching trending movies")
		c.setState(c.State().Fail(MessageTrendingFailed))
		return
	}

	c.logger.WithField("count", len(entries)).Debug("Trending movies loaded")
	c.setState(c.State().Succeed(entries))
}

func (c *TrendingController) setState(state models.FetchState[models.TrendingEntry]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// State returns a copy of the current pipeline state
func (c *TrendingController) State() models.FetchState[models.TrendingEntry] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
