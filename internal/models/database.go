package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store holding search counts
type Database struct {
	store *bolthold.Store
	now   func() time.Time
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store, now: time.Now}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Search count operations

// IncrementCount adds one to the counter of term, creating the record with
// the representative snapshot on first use. The read-modify-write runs in a
// single bbolt write transaction, so concurrent increments never lose counts.
func (db *Database) IncrementCount(ctx context.Context, term string, rep Representative) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		var record SearchCount
		err := db.store.TxGet(tx, term, &record)
		if errors.Is(err, bolthold.ErrNotFound) {
			return db.store.TxInsert(tx, term, NewSearchCount(term, rep, db.now()))
		}
		if err != nil {
			return fmt.Errorf("failed to read search count: %w", err)
		}

		record.Term = term
		record.Count++
		record.UpdatedAt = db.now()
		return db.store.TxUpdate(tx, term, &record)
	})
}

// GetSearchCount retrieves the record for a term
func (db *Database) GetSearchCount(term string) (*SearchCount, error) {
	var record SearchCount
	if err := db.store.Get(term, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// TopN returns at most n records ordered by count descending, ties by term descending
func (db *Database) TopN(ctx context.Context, n int) ([]TrendingEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return []TrendingEntry{}, nil
	}

	var records []*SearchCount
	query := (&bolthold.Query{}).SortBy("Count", "Term").Reverse().Limit(n)
	if err := db.store.Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to query search counts: %w", err)
	}

	entries := make([]TrendingEntry, 0, len(records))
	for i, record := range records {
		entries = append(entries, record.Entry(i+1))
	}
	return entries, nil
}

// Stats counts stored terms and the total number of recorded searches
func (db *Database) Stats(ctx context.Context) (StoreStats, error) {
	if err := ctx.Err(); err != nil {
		return StoreStats{}, err
	}

	var records []*SearchCount
	if err := db.store.Find(&records, nil); err != nil {
		return StoreStats{}, fmt.Errorf("failed to list search counts: %w", err)
	}

	stats := StoreStats{Terms: len(records)}
	for _, record := range records {
		stats.Searches += record.Count
	}
	return stats, nil
}
