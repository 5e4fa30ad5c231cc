package trending

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/cinescout/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLStore keeps search counts in a SQL table managed by gorm
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLStore opens (and migrates) a SQLite database at path
func NewSQLStore(path string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_journal_mode=WAL"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.SearchCount{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLStore{db: db, now: time.Now}, nil
}

// IncrementCount inserts the term with count 1 or adds one to its count in a
// single INSERT ... ON CONFLICT statement
func (s *SQLStore) IncrementCount(ctx context.Context, term string, rep models.Representative) error {
	now := s.now()
	record := models.NewSearchCount(term, rep, now)

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "term"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("search_counts.count + 1"),
			"updated_at": now,
		}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to increment search count: %w", err)
	}
	return nil
}

// TopN returns at most n records ordered by count descending, ties by term descending
func (s *SQLStore) TopN(ctx context.Context, n int) ([]models.TrendingEntry, error) {
	if n <= 0 {
		return []models.TrendingEntry{}, nil
	}

	var records []*models.SearchCount
	err := s.db.WithContext(ctx).
		Order("count DESC").
		Order("term DESC").
		Limit(n).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query search counts: %w", err)
	}

	entries := make([]models.TrendingEntry, 0, len(records))
	for i, record := range records {
		entries = append(entries, record.Entry(i+1))
	}
	return entries, nil
}

// Stats counts stored terms and the total number of recorded searches
func (s *SQLStore) Stats(ctx context.Context) (models.StoreStats, error) {
	var terms int64
	if err := s.db.WithContext(ctx).Model(&models.SearchCount{}).Count(&terms).Error; err != nil {
		return models.StoreStats{}, fmt.Errorf("failed to count terms: %w", err)
	}

	var searches int64
	err := s.db.WithContext(ctx).Model(&models.SearchCount{}).
		Select("COALESCE(SUM(count), 0)").
		Scan(&searches).Error
	if err != nil {
		return models.StoreStats{}, fmt.Errorf("failed to sum counts: %w", err)
	}

	return models.StoreStats{Terms: int(terms), Searches: searches}, nil
}

// Close closes the underlying connection pool
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
