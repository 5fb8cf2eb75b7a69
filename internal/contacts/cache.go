package contacts

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"bookerregistry/internal/booker/models"
)

const keyPrefix = "contacts:"

// CachedLookup serves contact lists from Redis and refills from the upstream
// on a miss. Redis failures fall through to the upstream.
type CachedLookup struct {
	next   Lookup
	redis  redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedLookup wraps next with a Redis cache.
func NewCachedLookup(next Lookup, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachedLookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedLookup{next: next, redis: rdb, ttl: ttl, logger: logger}
}

func (c *CachedLookup) GetContacts(ctx context.Context, prisonerID string) ([]models.Contact, error) {
	key := keyPrefix + prisonerID

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []models.Contact
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt contacts cache entry", "prisoner_id", prisonerID)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "contacts cache read failed", "prisoner_id", prisonerID, "error", err)
	}

	contacts, err := c.next.GetContacts(ctx, prisonerID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(contacts)
	if err == nil {
		err = c.redis.Set(ctx, key, payload, c.ttl).Err()
	}
	if err != nil {
		c.logger.WarnContext(ctx, "contacts cache write failed", "prisoner_id", prisonerID, "error", err)
	}
	return contacts, nil
}

// Invalidate drops the cached list for a prisoner.
func (c *CachedLookup) Invalidate(ctx context.Context, prisonerID string) error {
	return c.redis.Del(ctx, keyPrefix+prisonerID).Err()
}
