// Package trending provides the persistent search-count stores.
package trending

import (
	"context"
	"fmt"

	"github.com/amaumene/cinescout/internal/config"
	"github.com/amaumene/cinescout/internal/models"
	"github.com/sirupsen/logrus"
)

// Store is a persistent keyed counter with a ranked read.
// IncrementCount must be an atomic read-modify-write: concurrent sessions
// increment the same term.
type Store interface {
	IncrementCount(ctx context.Context, term string, rep models.Representative) error
	TopN(ctx context.Context, n int) ([]models.TrendingEntry, error)
	Stats(ctx context.Context) (models.StoreStats, error)
	Close() error
}

var (
	_ Store = (*models.Database)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*SQLStore)(nil)
)

// Open opens the store selected by cfg.StoreDriver
func Open(cfg *config.Config, logger *logrus.Logger) (Store, error) {
	logger.WithField("driver", cfg.StoreDriver).Debug("Opening trending store")

	switch cfg.StoreDriver {
	case models.StoreDriverBolt, "":
		db, err := models.NewDatabase(cfg.DatabaseFile)
		if err != nil {
			return nil, err
		}
		return db, nil
	case models.StoreDriverSQLite:
		store, err := NewSQLStore(cfg.SQLiteFile)
		if err != nil {
			return nil, err
		}
		return store, nil
	case models.StoreDriverRedis:
		store, err := NewRedisStoreWithURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
}
