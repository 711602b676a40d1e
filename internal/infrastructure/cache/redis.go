package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"NewsClassifier/internal/ports"
)

const keyPrefix = "newsclassifier:response:"

// ErrMiss is returned by a Store that holds no value for the key.
var ErrMiss = errors.New("cache miss")

// Store is the key-value surface the response cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisStore adapts a go-redis client to Store.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore parses url and checks the connection.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Get returns ErrMiss for absent keys.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return value, err
}

// Set stores value with an expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Gateway answers repeated prompts from the store and forwards misses to the wrapped
// gateway. Store failures only cost the cache, never the call.
type Gateway struct {
	next   ports.ModelGateway
	store  Store
	model  string
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.ModelGateway = (*Gateway)(nil)

// NewGateway wraps next. model is part of the key so switching models invalidates entries.
func NewGateway(next ports.ModelGateway, store Store, model string, ttl time.Duration, log *slog.Logger) *Gateway {
	return &Gateway{next: next, store: store, model: model, ttl: ttl, logger: log}
}

// Call returns a cached answer or delegates and stores a successful one.
func (g *Gateway) Call(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	key := g.key(prompt, opts)

	cached, err := g.store.Get(ctx, key)
	switch {
	case err == nil:
		g.debug("response cache hit", "key", key)
		return cached, nil
	case !errors.Is(err, ErrMiss):
		g.warn("response cache read failed", "error", err)
	}

	raw, err := g.next.Call(ctx, prompt, opts)
	if err != nil {
		return "", err
	}

	if err := g.store.Set(ctx, key, raw, g.ttl); err != nil {
		g.warn("response cache write failed", "error", err)
	}
	return raw, nil
}

func (g *Gateway) key(prompt string, opts ports.GenerateOptions) string {
	h := sha256.New()
	for _, part := range []string{
		g.model,
		strconv.FormatFloat(opts.Temperature, 'g', -1, 64),
		strconv.FormatFloat(opts.TopP, 'g', -1, 64),
		strconv.Itoa(opts.MaxTokens),
		prompt,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (g *Gateway) debug(msg string, args ...interface{}) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}

func (g *Gateway) warn(msg string, args ...interface{}) {
	if g.logger != nil {
		g.logger.Warn(msg, args...)
	}
}
