package backend

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettings configures a circuit breaker
type BreakerSettings struct {
	// Failures is the number of consecutive transient failures that open
	// the circuit
	Failures uint32
	// Cooldown is how long the circuit stays open before a probe request
	Cooldown time.Duration
	Logf     func(format string, args ...any)
}

// Breaker stops calling a struggling backend for a while. Only transient
// failures count against it; permanent errors mean the service answered.
type Breaker struct {
	next     Translator
	cb       *gobreaker.CircuitBreaker
	cooldown time.Duration

	mu       sync.Mutex
	openedAt time.Time
}

// halfOpenWait is the retry hint while the single probe request is running
const halfOpenWait = 250 * time.Millisecond

// NewBreaker wraps next in a circuit breaker
func NewBreaker(name string, next Translator, s BreakerSettings) *Breaker {
	if s.Failures == 0 {
		s.Failures = 5
	}
	if s.Cooldown <= 0 {
		s.Cooldown = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.Failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransient(err)
		},
	}

	b := &Breaker{next: next, cooldown: s.Cooldown}
	settings.OnStateChange = func(name string, from, to gobreaker.State) {
		if to == gobreaker.StateOpen {
			b.mu.Lock()
			b.openedAt = time.Now()
			b.mu.Unlock()
		}
		if s.Logf != nil {
			s.Logf("Circuit breaker %s: %s -> %s", name, from, to)
		}
	}
	b.cb = gobreaker.NewCircuitBreaker(settings)

	return b
}

// Translate forwards to the wrapped backend unless the circuit is open
func (b *Breaker) Translate(ctx context.Context, text, sourceLocale, targetLocale string) (string, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Translate(ctx, text, sourceLocale, targetLocale)
	})
	if errors.Is(err, gobreaker.ErrOpenState) {
		return "", Transient(err, b.remaining())
	}
	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", Transient(err, halfOpenWait)
	}
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// remaining returns how long the open circuit stays open
func (b *Breaker) remaining() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d := time.Until(b.openedAt.Add(b.cooldown)); d > 0 {
		return d
	}
	return halfOpenWait
}

// IsRejected reports whether err comes from a breaker that refused the call
// without contacting the backend
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// State returns the current circuit state name
func (b *Breaker) State() string {
	return b.cb.State().String()
}
