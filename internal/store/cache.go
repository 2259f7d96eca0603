package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"chatcore/internal/models"
	"chatcore/internal/redis"
)

// The listing cache is a read-side optimization only. Correctness comes from
// a version counter: every conversation mutation bumps it before the
// mutating call returns, and a cached payload is only served while the
// version it was built against is still current. A listing written by a
// reader that raced a mutation carries the older version and is ignored.
// Only the default-limit listing is cached; ad-hoc limits always hit the
// database.
const (
	listingKey    = "chatcore:conversations:recent"
	listingVerKey = "chatcore:conversations:version"
	listingTTL    = 30 * time.Second
)

type listingEnvelope struct {
	Version       int64                 `json:"version"`
	Conversations []models.Conversation `json:"conversations"`
}

// listingVersion reads the current invalidation counter. A key that has
// never been bumped is version zero; any other failure disables caching for
// the current call.
func (s *Store) listingVersion(ctx context.Context) (int64, bool) {
	raw, err := s.cache.Get(ctx, listingVerKey)
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return 0, true
		}
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// cachedListing returns the cached default-limit listing if it was written
// against the given version.
func (s *Store) cachedListing(ctx context.Context, version int64) ([]models.Conversation, bool) {
	raw, err := s.cache.Get(ctx, listingKey)
	if err != nil {
		return nil, false
	}
	var env listingEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, false
	}
	if env.Version != version {
		// A mutation landed after this payload was built.
		return nil, false
	}
	return env.Conversations, true
}

// storeListing writes the listing stamped with the version observed before
// the database query it came from.
func (s *Store) storeListing(ctx context.Context, version int64, conversations []models.Conversation) {
	raw, err := json.Marshal(listingEnvelope{Version: version, Conversations: conversations})
	if err != nil {
		return
	}
	// A failed write just means the next read hits the database.
	_ = s.cache.Set(ctx, listingKey, raw, listingTTL)
}

func (s *Store) invalidateListing(ctx context.Context) {
	if s.cache == nil {
		return
	}
	// Bump first so an in-flight reader's write is already marked stale by
	// the time the payload is dropped.
	_, _ = s.cache.Incr(ctx, listingVerKey)
	_ = s.cache.Del(ctx, listingKey)
}
