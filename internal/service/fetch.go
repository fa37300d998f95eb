package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"

	"tlgsite/internal/cache"
	apperrors "tlgsite/internal/errors"
)

// DefaultCacheTTL is used when a service is built with a zero TTL.
const DefaultCacheTTL = 30 * time.Second

// readList runs a list read. An unavailable backend is "no data": an empty slice and no
// error. Any other failure is logged and returned alongside an empty slice so pages can
// tell an empty collection from a failed read.
func readList[T any](op string, load func() ([]T, error)) ([]T, error) {
	items, err := load()
	switch {
	case err == nil:
		if items == nil {
			items = []T{}
		}
		return items, nil
	case errors.Is(err, apperrors.ErrUnavailable):
		return []T{}, nil
	default:
		log.Errorf("%s: %v", op, err)
		return []T{}, fmt.Errorf("%s: %w", op, err)
	}
}

// cached is the cache-aside read used by every fetcher. Failed loads are never cached.
func cached[T any](ctx context.Context, c *cache.Client, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var out T
	if c.GetJSON(ctx, key, &out) {
		return out, nil
	}
	out, err := load()
	if err != nil {
		return out, err
	}
	_ = c.SetJSON(ctx, key, out, ttl)
	return out, nil
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultCacheTTL
	}
	return ttl
}
