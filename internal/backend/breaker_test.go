package backend

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestBreakerOpensOnTransientFailures(t *testing.T) {
	var calls atomic.Int32
	failing := TranslatorFunc(func(ctx context.Context, text, src, tgt string) (string, error) {
		calls.Add(1)
		return "", Transient(errors.New("overloaded"), 0)
	})

	b := NewBreaker("test", failing, BreakerSettings{Failures: 2, Cooldown: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := b.Translate(ctx, "Hello", "en", "fr"); !IsTransient(err) {
			t.Fatalf("Call %d: expected transient error, got %v", i, err)
		}
	}
	if b.State() != "open" {
		t.Fatalf("State = %s, want open", b.State())
	}

	_, err := b.Translate(ctx, "Hello", "en", "fr")
	if !IsTransient(err) {
		t.Errorf("Open circuit should report a transient error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("Backend called %d times, want 2", calls.Load())
	}
}

func TestBreakerIgnoresPermanentFailures(t *testing.T) {
	rejecting := TranslatorFunc(func(ctx context.Context, text, src, tgt string) (string, error) {
		return "", Permanent(errors.New("bad request"))
	})

	b := NewBreaker("test", rejecting, BreakerSettings{Failures: 1})
	for i := 0; i < 3; i++ {
		_, err := b.Translate(context.Background(), "Hello", "en", "fr")
		var perm *PermanentError
		if !errors.As(err, &perm) {
			t.Fatalf("Expected PermanentError, got %v", err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("State = %s, want closed", b.State())
	}
}

func TestBreakerPassesResult(t *testing.T) {
	var logged []string
	ok := TranslatorFunc(func(ctx context.Context, text, src, tgt string) (string, error) {
		return "Bonjour", nil
	})
	b := NewBreaker("test", ok, BreakerSettings{Logf: func(format string, args ...any) {
		logged = append(logged, format)
	}})

	got, err := b.Translate(context.Background(), "Hello", "en", "fr")
	if err != nil || got != "Bonjour" {
		t.Errorf("Translate = %q, %v", got, err)
	}
	if len(logged) != 0 {
		t.Errorf("No state change expected, got %v", logged)
	}
}

func TestBreakerOpenRejectionCarriesCooldown(t *testing.T) {
	failing := TranslatorFunc(func(ctx context.Context, text, src, tgt string) (string, error) {
		return "", Transient(errors.New("503"), 0)
	})
	b := NewBreaker("test", failing, BreakerSettings{Failures: 1, Cooldown: time.Minute})
	ctx := context.Background()

	_, err := b.Translate(ctx, "Hello", "en", "fr")
	if IsRejected(err) {
		t.Fatalf("Backend failure reported as a rejection: %v", err)
	}

	_, err = b.Translate(ctx, "Hello", "en", "fr")
	if !IsRejected(err) {
		t.Fatalf("Expected open circuit rejection, got %v", err)
	}
	if d := RetryAfter(err); d < 50*time.Second || d > time.Minute {
		t.Errorf("RetryAfter = %v, want the remaining cooldown", d)
	}
}
