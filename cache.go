package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"
)

// responseCache holds encoded public GET responses keyed by cacheKey.
type responseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
	Flush(ctx context.Context)
}

type memoryCache struct {
	c *cache.Cache
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	return &memoryCache{c: cache.New(ttl, 2*ttl)}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	if data, found := m.c.Get(key); found {
		return data.([]byte), true
	}
	return nil, false
}

func (m *memoryCache) Set(_ context.Context, key string, body []byte) {
	m.c.Set(key, body, cache.DefaultExpiration)
}

func (m *memoryCache) Flush(context.Context) {
	m.c.Flush()
}

const redisKeyPrefix = "portfolio:cache:"

// redisCache shares cached responses between instances. Redis failures
// degrade to cache misses.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisCache(ctx context.Context, url string, ttl time.Duration) (*redisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Println("Successfully connected to Redis")
	return &redisCache{client: client, ttl: ttl}, nil
}

func (rc *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := rc.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Redis get %s: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

func (rc *redisCache) Set(ctx context.Context, key string, body []byte) {
	if err := rc.client.Set(ctx, redisKeyPrefix+key, body, rc.ttl).Err(); err != nil {
		log.Printf("Redis set %s: %v", key, err)
	}
}

func (rc *redisCache) Flush(ctx context.Context) {
	iter := rc.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("Redis scan: %v", err)
	}
	if len(keys) == 0 {
		return
	}
	if err := rc.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("Redis flush: %v", err)
	}
}

func (rc *redisCache) Close() error {
	return rc.client.Close()
}

// cacheKey is the request path plus the first value of each parameter the
// route reads, so unrelated query strings share one entry.
func cacheKey(u *url.URL, params []string) string {
	query := u.Query()
	kept := url.Values{}
	for _, p := range params {
		if query.Has(p) {
			kept.Set(p, query.Get(p))
		}
	}
	if len(kept) == 0 {
		return u.EscapedPath()
	}
	return u.EscapedPath() + "?" + kept.Encode()
}

// cachedJSON serves a public read from the cache, filling it from fetch on a
// miss. Failed fetches are never cached.
func (s *Server) cachedJSON(w http.ResponseWriter, r *http.Request, params []string, fetch func() (any, error)) {
	key := cacheKey(r.URL, params)
	if body, ok := s.cache.Get(r.Context(), key); ok {
		w.Header().Set("X-Cache", "HIT")
		writeRaw(w, http.StatusOK, body)
		return
	}

	data, err := fetch()
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		writeError(w, err)
		return
	}
	s.cache.Set(r.Context(), key, buf.Bytes())
	w.Header().Set("X-Cache", "MISS")
	writeRaw(w, http.StatusOK, buf.Bytes())
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// afterWrite runs after every committed admin write.
func (s *Server) afterWrite(ctx context.Context) {
	s.cache.Flush(ctx)
	go s.triggerRevalidation()
}
