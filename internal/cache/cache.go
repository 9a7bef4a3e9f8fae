// Package cache keeps rendered JSON views in Redis, keyed by the logical path
// that the revalidation signal names.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Views stores rendered views. A path may hold several variants, such as one
// per list tab or one per user.
//
// Get reports a hit and the path's current generation. A caller that misses
// renders the view and passes that generation to Set; Set stores nothing if
// the path was revalidated in between, so a render started before a change
// never outlives it.
type Views interface {
	Get(ctx context.Context, path, variant string, dst any) (bool, int64)
	Set(ctx context.Context, path, variant string, gen int64, v any)
}

// Nop never hits and never stores.
type Nop struct{}

func (Nop) Get(context.Context, string, string, any) (bool, int64) { return false, 0 }
func (Nop) Set(context.Context, string, string, int64, any)        {}

// noGeneration is returned by Get when the generation could not be read.
// Set ignores it.
const noGeneration int64 = -1

var errStale = errors.New("view revalidated while rendering")

// ViewCache keeps one Redis hash per path. Revalidating a path deletes the
// whole hash, so every variant is dropped at once, and bumps the path's
// generation counter.
type ViewCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

func NewViewCache(rdb *redis.Client, prefix string, ttl time.Duration, log *zap.Logger) *ViewCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ViewCache{rdb: rdb, prefix: prefix, ttl: ttl, log: log.Named("cache")}
}

func (c *ViewCache) key(path string) string {
	return c.prefix + ":" + path
}

func (c *ViewCache) genKey(path string) string {
	return c.prefix + ":gen:" + path
}

// Channel is the pub/sub channel revalidated paths are announced on.
func (c *ViewCache) Channel() string {
	return c.prefix + ":revalidate"
}

func (c *ViewCache) Get(ctx context.Context, path, variant string, dst any) (bool, int64) {
	pipe := c.rdb.Pipeline()
	view := pipe.HGet(ctx, c.key(path), variant)
	genCmd := pipe.Get(ctx, c.genKey(path))
	_, _ = pipe.Exec(ctx)

	gen, err := genCmd.Int64()
	switch {
	case errors.Is(err, redis.Nil):
		gen = 0
	case err != nil:
		c.log.Warn("view cache read failed", zap.String("path", path), zap.Error(err))
		return false, noGeneration
	}

	bs, err := view.Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("view cache read failed", zap.String("path", path), zap.Error(err))
		}
		return false, gen
	}
	if err := json.Unmarshal(bs, dst); err != nil {
		c.log.Warn("view cache entry unreadable", zap.String("path", path), zap.Error(err))
		return false, gen
	}
	return true, gen
}

// Set stores v unless the path's generation has moved past gen.
func (c *ViewCache) Set(ctx context.Context, path, variant string, gen int64, v any) {
	if gen < 0 {
		return
	}
	bs, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("view cache encode failed", zap.String("path", path), zap.Error(err))
		return
	}

	key, genKey := c.key(path), c.genKey(path)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, variant, bs)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		c.log.Debug("stale view not stored", zap.String("path", path), zap.String("variant", variant))
	default:
		c.log.Warn("view cache write failed", zap.String("path", path), zap.Error(err))
	}
}

// Revalidate drops the cached views of every path, bumps their generations
// and announces them.
func (c *ViewCache) Revalidate(ctx context.Context, paths ...string) {
	if len(paths) == 0 {
		return
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, p := range paths {
			pipe.Del(ctx, c.key(p))
			pipe.Incr(ctx, c.genKey(p))
		}
		return nil
	})
	if err != nil {
		c.log.Warn("view cache invalidation failed", zap.Strings("paths", paths), zap.Error(err))
	}
	for _, p := range paths {
		if err := c.rdb.Publish(ctx, c.Channel(), p).Err(); err != nil {
			c.log.Warn("revalidation publish failed", zap.String("path", p), zap.Error(err))
		}
	}
}

// Options configures NewRedisClient.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings Redis. Callers fall back to Nop when it
// fails.
func NewRedisClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}
