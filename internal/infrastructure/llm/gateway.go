package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"NewsClassifier/internal/config"
	"NewsClassifier/internal/ports"
)

var (
	// ErrAttemptsExhausted is returned once every attempt of a call has failed.
	ErrAttemptsExhausted = errors.New("model attempts exhausted")
	// ErrMalformedResponse marks a reachable endpoint that answered without usable text.
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrEndpointUnreachable is the setup-time failure of Verify.
	ErrEndpointUnreachable = errors.New("model endpoint unreachable")
)

// Verifier is implemented by completers that can check their endpoint before a batch.
type Verifier interface {
	Verify(ctx context.Context) error
}

// Gateway drives a Completer through a bounded sequence of attempts.
type Gateway struct {
	completer   ports.Completer
	maxAttempts int
	delay       time.Duration
	exponential bool
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

var _ ports.ModelGateway = (*Gateway)(nil)

// NewGateway builds a gateway from the model configuration.
func NewGateway(completer ports.Completer, cfg config.ModelConfig, log *slog.Logger) *Gateway {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Gateway{
		completer:   completer,
		maxAttempts: attempts,
		delay:       cfg.RetryDelay,
		exponential: cfg.RetryBackoff == "exponential",
		logger:      log,
		sleep:       sleepContext,
	}
}

// phase is the state of one Call.
type phase int

const (
	phaseAttempt phase = iota
	phaseWait
	phaseSucceeded
	phaseExhausted
)

type callState struct {
	phase   phase
	attempt int
	delay   time.Duration
	text    string
	lastErr error
}

// Call returns the first successful answer. Per-attempt cutoffs come from opts.Timeout;
// ctx only bounds the whole call, including waits between attempts.
func (g *Gateway) Call(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	policy := g.newPolicy()
	st := callState{phase: phaseAttempt, attempt: 1}

	for {
		switch st.phase {
		case phaseAttempt:
			text, err := g.attempt(ctx, prompt, opts)
			if err == nil {
				st.text = text
				st.phase = phaseSucceeded
				continue
			}
			st.lastErr = err
			g.warn("model attempt failed", "attempt", st.attempt, "max_attempts", g.maxAttempts, "error", err)

			delay, stop := policy.Next()
			if stop {
				st.phase = phaseExhausted
				continue
			}
			st.delay = delay
			st.phase = phaseWait

		case phaseWait:
			if err := g.sleep(ctx, st.delay); err != nil {
				return "", fmt.Errorf("wait before attempt %d: %w", st.attempt+1, err)
			}
			st.attempt++
			st.phase = phaseAttempt

		case phaseSucceeded:
			return st.text, nil

		case phaseExhausted:
			return "", fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, st.attempt, st.lastErr)
		}
	}
}

// Verify checks the endpoint when the completer supports it.
func (g *Gateway) Verify(ctx context.Context) error {
	v, ok := g.completer.(Verifier)
	if !ok {
		return nil
	}
	return v.Verify(ctx)
}

func (g *Gateway) attempt(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	attemptCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	return g.completer.Complete(attemptCtx, prompt, opts)
}

// newPolicy returns a fresh backoff per call; go-retry backoffs are stateful.
func (g *Gateway) newPolicy() retry.Backoff {
	var base retry.Backoff
	switch {
	case g.delay <= 0:
		base = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	case g.exponential:
		base = retry.NewExponential(g.delay)
	default:
		base = retry.NewConstant(g.delay)
	}
	return retry.WithMaxRetries(uint64(g.maxAttempts-1), base)
}

func (g *Gateway) warn(msg string, args ...interface{}) {
	if g.logger != nil {
		g.logger.Warn(msg, args...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
