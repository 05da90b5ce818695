// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go provides a Valkey-backed cache for rendered public pages.
// Every cached page belongs to an owner (an entity or a kind listing) and
// is recorded in the owner's index set, so a publish can drop all pages of
// an entity without knowing the slugs it was cached under.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"mentorocms/internal/models"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached pages.
	pageKeyPrefix = "page:"

	// indexKeyPrefix is the prefix of the per-owner sets of page keys.
	indexKeyPrefix = "page-index:"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache manages public page caching in Valkey.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get retrieves a cached page. The boolean is false on a miss.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("page cache hit", "key", key)
	return val, true
}

// Set stores a page under key and records it in owner's index.
func (pc *PageCache) Set(ctx context.Context, owner, key string, body []byte) {
	idx := indexKeyPrefix + owner
	_, err := pc.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, pageKeyPrefix+key, body, pc.ttl)
		p.SAdd(ctx, idx, pageKeyPrefix+key)
		p.Expire(ctx, idx, pc.ttl)
		return nil
	})
	if err != nil {
		slog.Warn("page cache set error", "key", key, "owner", owner, "error", err)
	}
}

// InvalidateOwner removes every page recorded for owner.
func (pc *PageCache) InvalidateOwner(ctx context.Context, owner string) {
	idx := indexKeyPrefix + owner
	keys, err := pc.client.SMembers(ctx, idx).Result()
	if err != nil {
		slog.Warn("page cache index error", "owner", owner, "error", err)
		return
	}
	if err := pc.client.Del(ctx, append(keys, idx)...).Err(); err != nil {
		slog.Warn("page cache invalidate error", "owner", owner, "error", err)
		return
	}
	slog.Debug("page cache invalidated", "owner", owner, "pages", len(keys))
}

// InvalidateEntity drops the entity's detail pages in every language and
// the listings of its kind.
func (pc *PageCache) InvalidateEntity(ctx context.Context, kind models.ContentKind, id uuid.UUID) {
	pc.InvalidateOwner(ctx, EntityOwner(id))
	pc.InvalidateOwner(ctx, ListOwner(kind))
}

// InvalidateAll removes all cached pages and indexes by scanning for the
// prefixes.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	var deleted int
	for _, prefix := range []string{pageKeyPrefix, indexKeyPrefix} {
		var cursor uint64
		for {
			keys, nextCursor, err := pc.client.Scan(ctx, cursor, prefix+"*", 100).Result()
			if err != nil {
				slog.Warn("page cache scan error", "error", err)
				return
			}
			if len(keys) > 0 {
				if err := pc.client.Del(ctx, keys...).Err(); err != nil {
					slog.Warn("page cache bulk delete error", "error", err)
				}
				deleted += len(keys)
			}
			cursor = nextCursor
			if cursor == 0 {
				break
			}
		}
	}
	if deleted > 0 {
		slog.Info("page cache fully cleared", "deleted", deleted)
	}
}

// EntityOwner is the owner of an entity's detail pages.
func EntityOwner(id uuid.UUID) string {
	return "entity:" + id.String()
}

// ListOwner is the owner of a kind's listing pages.
func ListOwner(kind models.ContentKind) string {
	return "list:" + string(kind)
}

// EntityKey returns the cache key of an entity detail page.
func EntityKey(kind models.ContentKind, lang, slug string) string {
	return string(kind) + ":" + lang + ":" + slug
}

// ListKey returns the cache key of a kind listing in lang.
func ListKey(kind models.ContentKind, lang string) string {
	return string(kind) + ":" + lang + ":_list"
}
