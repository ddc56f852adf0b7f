// Package cache keeps the latest derived board in Redis so that a restarted
// process (or a second replica) can serve the last known board before its own
// first poll completes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/venue-conduction-board/internal/model"
)

// BoardStore reads and writes board snapshots.  A nil Redis client turns it
// into a no-op so the board keeps working when Redis is unavailable.
type BoardStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewBoardStore returns a store writing under prefix with the given TTL.
func NewBoardStore(rdb *redis.Client, prefix string, ttl time.Duration) *BoardStore {
	if prefix == "" {
		prefix = "board"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &BoardStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Key returns the Redis key of a venue's board for one day.
func (s *BoardStore) Key(venueID, dateKey string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, venueID, dateKey)
}

// Save stores b.  Statuses are dropped: they belong to the process that owns
// the conduction session.
func (s *BoardStore) Save(ctx context.Context, b model.Board) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	b.Statuses = nil
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}
	return s.rdb.SetEx(ctx, s.Key(b.VenueID, b.DateKey), payload, s.ttl).Err()
}

// Load returns the stored board of a venue for one day.  The second result
// is false on a cache miss.
func (s *BoardStore) Load(ctx context.Context, venueID, dateKey string) (model.Board, bool, error) {
	if s == nil || s.rdb == nil {
		return model.Board{}, false, nil
	}
	bs, err := s.rdb.Get(ctx, s.Key(venueID, dateKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Board{}, false, nil
	}
	if err != nil {
		return model.Board{}, false, err
	}
	var b model.Board
	if err := json.Unmarshal(bs, &b); err != nil {
		return model.Board{}, false, fmt.Errorf("unmarshal board: %w", err)
	}
	return b, true, nil
}
