package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"NewsClassifier/internal/config"
	"NewsClassifier/internal/ports"
)

type flakyCompleter struct {
	failures int
	answer   string
	calls    int
}

func (f *flakyCompleter) Name() string { return "flaky" }

func (f *flakyCompleter) Complete(_ context.Context, _ string, _ ports.GenerateOptions) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", fmt.Errorf("connection refused (call %d)", f.calls)
	}
	return f.answer, nil
}

func newTestGateway(c ports.Completer, attempts int, delay time.Duration, backoff string) (*Gateway, *[]time.Duration) {
	g := NewGateway(c, config.ModelConfig{MaxAttempts: attempts, RetryDelay: delay, RetryBackoff: backoff}, nil)
	var waits []time.Duration
	g.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return g, &waits
}

func TestGatewaySuccessIffFailuresBelowAttempts(t *testing.T) {
	t.Parallel()

	for attempts := 1; attempts <= 4; attempts++ {
		for failures := 0; failures <= 5; failures++ {
			c := &flakyCompleter{failures: failures, answer: "4"}
			g, waits := newTestGateway(c, attempts, time.Second, "constant")

			text, err := g.Call(context.Background(), "prompt", ports.GenerateOptions{})
			wantSuccess := failures < attempts
			if (err == nil) != wantSuccess {
				t.Fatalf("attempts=%d failures=%d: success=%v, want %v (err=%v)", attempts, failures, err == nil, wantSuccess, err)
			}

			wantCalls := failures + 1
			if !wantSuccess {
				wantCalls = attempts
			}
			if c.calls != wantCalls {
				t.Fatalf("attempts=%d failures=%d: expected %d calls, got %d", attempts, failures, wantCalls, c.calls)
			}
			if len(*waits) != wantCalls-1 {
				t.Fatalf("attempts=%d failures=%d: expected %d waits, got %d", attempts, failures, wantCalls-1, len(*waits))
			}
			if wantSuccess && text != "4" {
				t.Fatalf("unexpected text %q", text)
			}
		}
	}
}

func TestGatewayExhaustedError(t *testing.T) {
	t.Parallel()

	c := &flakyCompleter{failures: 10}
	g, _ := newTestGateway(c, 3, time.Millisecond, "constant")

	_, err := g.Call(context.Background(), "prompt", ports.GenerateOptions{})
	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("expected ErrAttemptsExhausted, got %v", err)
	}
	if want := "connection refused (call 3)"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected last attempt error %q in %q", want, err.Error())
	}
}

func TestGatewayBackoffPolicies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		backoff string
		delay   time.Duration
		want    []time.Duration
	}{
		{"constant", 2 * time.Second, []time.Duration{2 * time.Second, 2 * time.Second, 2 * time.Second}},
		{"exponential", time.Second, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}},
		{"constant", 0, []time.Duration{0, 0, 0}},
	}

	for _, tt := range tests {
		c := &flakyCompleter{failures: 10}
		g, waits := newTestGateway(c, 4, tt.delay, tt.backoff)
		_, _ = g.Call(context.Background(), "prompt", ports.GenerateOptions{})

		if len(*waits) != len(tt.want) {
			t.Fatalf("%s/%v: expected %d waits, got %v", tt.backoff, tt.delay, len(tt.want), *waits)
		}
		for i := range tt.want {
			if (*waits)[i] != tt.want[i] {
				t.Fatalf("%s/%v: wait %d = %v, want %v", tt.backoff, tt.delay, i, (*waits)[i], tt.want[i])
			}
		}
	}
}

func TestGatewayStopsWhenContextCancelledDuringWait(t *testing.T) {
	t.Parallel()

	c := &flakyCompleter{failures: 10}
	g := NewGateway(c, config.ModelConfig{MaxAttempts: 5, RetryDelay: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := g.Call(ctx, "prompt", ports.GenerateOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("expected a single attempt before cancellation, got %d", c.calls)
	}
}

func TestGatewayFreshPolicyPerCall(t *testing.T) {
	t.Parallel()

	c := &flakyCompleter{failures: 2, answer: "ok"}
	g, _ := newTestGateway(c, 3, time.Millisecond, "constant")

	if _, err := g.Call(context.Background(), "p", ports.GenerateOptions{}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	c.calls = 0
	if _, err := g.Call(context.Background(), "p", ports.GenerateOptions{}); err != nil {
		t.Fatalf("second call should get its own attempt budget: %v", err)
	}
}
