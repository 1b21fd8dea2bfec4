package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/directory"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "directory:"

type directoryCacheImpl struct {
	client *goredis.Client
	next   directory.Repository
	ttl    time.Duration
}

// NewDirectoryCache serves directory snapshots from Redis, loading them from next on a miss.
// Cache failures are logged and never fail a lookup.
func NewDirectoryCache(client *goredis.Client, next directory.Repository, ttl time.Duration) directory.Repository {
	return &directoryCacheImpl{client: client, next: next, ttl: ttl}
}

// ListEntries implements directory.Repository.
func (c *directoryCacheImpl) ListEntries(ctx context.Context, company string) ([]directory.Entry, error) {
	key := cacheKey(company)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entries []directory.Entry
		if err := json.Unmarshal(raw, &entries); err == nil {
			return entries, nil
		}
		slog.WarnContext(ctx, "discarding corrupt directory snapshot", "key", key)
	case !errors.Is(err, goredis.Nil):
		slog.WarnContext(ctx, "directory cache unavailable", "key", key, "error", err)
	}

	entries, err := c.next.ListEntries(ctx, company)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return entries, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "failed to cache directory snapshot", "key", key, "error", err)
	}

	return entries, nil
}

// Invalidate drops the cached snapshot of a company.
func Invalidate(ctx context.Context, client *goredis.Client, company string) error {
	return client.Del(ctx, cacheKey(company)).Err()
}

func cacheKey(company string) string {
	return keyPrefix + strings.ToLower(strings.Join(strings.Fields(company), "-"))
}

// NewClient opens a Redis client and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
