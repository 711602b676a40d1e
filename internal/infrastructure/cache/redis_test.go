package cache

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"NewsClassifier/internal/ports"
)

type memoryStore struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	failGet error
	failSet error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return "", m.failGet
	}
	v, ok := m.values[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return m.failSet
	}
	m.values[key] = value
	m.ttls[key] = ttl
	return nil
}

type countingGateway struct {
	calls  int
	answer string
	err    error
}

func (c *countingGateway) Call(context.Context, string, ports.GenerateOptions) (string, error) {
	c.calls++
	return c.answer, c.err
}

func TestGatewayReusesAnswers(t *testing.T) {
	t.Parallel()

	next := &countingGateway{answer: "6"}
	store := newMemoryStore()
	gw := NewGateway(next, store, "llama2", time.Hour, nil)
	opts := ports.GenerateOptions{Temperature: 0.1, TopP: 0.9}

	for i := 0; i < 3; i++ {
		got, err := gw.Call(context.Background(), "prompt", opts)
		if err != nil || got != "6" {
			t.Fatalf("call %d: got %q, %v", i, got, err)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected a single upstream call, got %d", next.calls)
	}
	for key, ttl := range store.ttls {
		if !strings.HasPrefix(key, keyPrefix) || ttl != time.Hour {
			t.Fatalf("unexpected entry %s ttl=%v", key, ttl)
		}
	}

	if _, err := gw.Call(context.Background(), "prompt", ports.GenerateOptions{Temperature: 0.7, TopP: 0.9}); err != nil {
		t.Fatalf("call: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("different options must miss the cache")
	}
}

func TestGatewayDoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("exhausted")
	next := &countingGateway{err: boom}
	store := newMemoryStore()
	gw := NewGateway(next, store, "llama2", time.Hour, nil)

	if _, err := gw.Call(context.Background(), "p", ports.GenerateOptions{}); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(store.values) != 0 {
		t.Fatalf("failures must not be cached")
	}
}

func TestGatewayIgnoresStoreErrors(t *testing.T) {
	t.Parallel()

	next := &countingGateway{answer: "2"}
	store := newMemoryStore()
	store.failGet = errors.New("connection refused")
	store.failSet = errors.New("connection refused")
	gw := NewGateway(next, store, "llama2", time.Hour, nil)

	got, err := gw.Call(context.Background(), "p", ports.GenerateOptions{})
	if err != nil || got != "2" {
		t.Fatalf("store outage must not fail the call: %q %v", got, err)
	}
}

func TestKeyDependsOnModel(t *testing.T) {
	t.Parallel()

	a := NewGateway(nil, nil, "llama2", 0, nil).key("p", ports.GenerateOptions{})
	b := NewGateway(nil, nil, "mistral", 0, nil).key("p", ports.GenerateOptions{})
	if a == b {
		t.Fatalf("keys must differ across models")
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("NEWS_CLASSIFIER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("NEWS_CLASSIFIER_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	store, err := NewRedisStore(ctx, url)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer store.Close()

	key := keyPrefix + "test-" + time.Now().Format(time.RFC3339Nano)
	if _, err := store.Get(ctx, key); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := store.Set(ctx, key, "3", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, err := store.Get(ctx, key); err != nil || got != "3" {
		t.Fatalf("get: %q %v", got, err)
	}
}
