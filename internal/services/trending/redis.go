package trending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/cinescout/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix    = "cinescout:trending:"
	redisCountsKey    = redisKeyPrefix + "counts"
	redisSnapshotsKey = redisKeyPrefix + "snapshots"
	redisSearchesKey  = redisKeyPrefix + "searches"
)

// redisSnapshot is the JSON value kept per term in the snapshots hash
type redisSnapshot struct {
	MovieID   int64     `json:"movie_id"`
	Title     string    `json:"title"`
	PosterURL string    `json:"poster_url"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisStore keeps counts in a sorted set (term -> count) and the
// representative movie of each term in a hash
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// NewRedisStoreWithURL creates a store from a redis:// URL
func NewRedisStoreWithURL(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts)), nil
}

// IncrementCount bumps the term score and records its snapshot if absent,
// in one MULTI/EXEC transaction
func (s *RedisStore) IncrementCount(ctx context.Context, term string, rep models.Representative) error {
	snapshot, err := json.Marshal(redisSnapshot{
		MovieID:   rep.MovieID,
		Title:     rep.Title,
		PosterURL: rep.PosterURL,
		CreatedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZIncrBy(ctx, redisCountsKey, 1, term)
		pipe.HSetNX(ctx, redisSnapshotsKey, term, snapshot)
		pipe.Incr(ctx, redisSearchesKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to increment search count: %w", err)
	}
	return nil
}

// TopN returns at most n terms by descending count; ZREVRANGE breaks ties by term descending
func (s *RedisStore) TopN(ctx context.Context, n int) ([]models.TrendingEntry, error) {
	if n <= 0 {
		return []models.TrendingEntry{}, nil
	}

	ranked, err := s.client.ZRevRangeWithScores(ctx, redisCountsKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read search counts: %w", err)
	}
	if len(ranked) == 0 {
		return []models.TrendingEntry{}, nil
	}

	terms := make([]string, 0, len(ranked))
	for _, z := range ranked {
		terms = append(terms, z.Member.(string))
	}

	snapshots, err := s.client.HMGet(ctx, redisSnapshotsKey, terms...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}

	entries := make([]models.TrendingEntry, 0, len(ranked))
	for i, z := range ranked {
		entry := models.TrendingEntry{
			Rank:  i + 1,
			Term:  terms[i],
			Count: int64(z.Score),
		}
		if raw, ok := snapshots[i].(string); ok {
			var snap redisSnapshot
			if err := json.Unmarshal([]byte(raw), &snap); err == nil {
				entry.MovieID = snap.MovieID
				entry.Title = snap.Title
				entry.PosterURL = snap.PosterURL
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Stats counts stored terms and the total number of recorded searches
func (s *RedisStore) Stats(ctx context.Context) (models.StoreStats, error) {
	terms, err := s.client.ZCard(ctx, redisCountsKey).Result()
	if err != nil {
		return models.StoreStats{}, fmt.Errorf("failed to count terms: %w", err)
	}

	searches, err := s.client.Get(ctx, redisSearchesKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return models.StoreStats{}, fmt.Errorf("failed to read search total: %w", err)
	}

	return models.StoreStats{Terms: int(terms), Searches: searches}, nil
}

// Ping checks connectivity
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
