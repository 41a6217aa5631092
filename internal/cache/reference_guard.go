package cache

import (
	"context"
	"time"

	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/redis/go-redis/v9"
)

const referenceKeyPrefix = "payment:ref:"

// ReferenceGuard remembers settled payment references in Redis so repeated
// submissions can be turned away before a transaction is opened.
// Key format: payment:ref:<reference>
type ReferenceGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReferenceGuard wraps client. Keys expire after ttl.
func NewReferenceGuard(client *redis.Client, ttl time.Duration) *ReferenceGuard {
	return &ReferenceGuard{client: client, ttl: ttl}
}

// Seen reports whether reference was remembered and has not expired.
func (g *ReferenceGuard) Seen(ctx context.Context, reference string) (bool, error) {
	n, err := g.client.Exists(ctx, referenceKey(reference)).Result()
	if err != nil {
		return false, customError.WrapCacheError(err)
	}
	return n > 0, nil
}

// Remember records reference for the guard's ttl.
func (g *ReferenceGuard) Remember(ctx context.Context, reference string) error {
	if err := g.client.Set(ctx, referenceKey(reference), "1", g.ttl).Err(); err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}

func referenceKey(reference string) string {
	return referenceKeyPrefix + reference
}
