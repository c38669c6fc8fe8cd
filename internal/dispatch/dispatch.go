package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"codeberg.org/snonux/sheettrans/internal/backend"
	"codeberg.org/snonux/sheettrans/internal/cache"
	"codeberg.org/snonux/sheettrans/internal/extract"
	"codeberg.org/snonux/sheettrans/internal/shield"
)

// Config controls concurrency, pacing and retries
type Config struct {
	// Concurrency is the number of simultaneous backend calls
	Concurrency int
	// Rate is the sustained request rate per second; zero or less means
	// unlimited
	Rate  float64
	Burst int
	// MaxAttempts bounds the calls made for one unit
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// CallTimeout bounds one backend call. Calls keep running after the
	// run is cancelled until they finish or time out.
	CallTimeout time.Duration

	OnProgress func(Progress)
	Logf       func(format string, args ...any)
}

// DefaultConfig returns the default dispatcher settings
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		Rate:        2,
		Burst:       4,
		MaxAttempts: 3,
		BaseBackoff: 500 * time.Millisecond,
		MaxBackoff:  30 * time.Second,
		CallTimeout: 60 * time.Second,
	}
}

// Progress is reported after each item reaches a terminal state
type Progress struct {
	Done  int
	Total int
	Item  *WorkItem
}

// Result holds every WorkItem of a run in input order
type Result struct {
	Items []*WorkItem

	Succeeded int
	Failed    int
	Cancelled int
	Calls     int
}

// Resolved maps unit keys to translations for every succeeded item
func (r *Result) Resolved() map[string]string {
	out := make(map[string]string, r.Succeeded)
	for _, item := range r.Items {
		if item.State == StateSucceeded {
			out[item.Unit.Key()] = item.Result
		}
	}
	return out
}

// Unresolved returns the items that ended without a translation
func (r *Result) Unresolved() []*WorkItem {
	var out []*WorkItem
	for _, item := range r.Items {
		if item.State != StateSucceeded {
			out = append(out, item)
		}
	}
	return out
}

// Dispatcher translates units through a backend
type Dispatcher struct {
	backend backend.Translator
	shield  *shield.Shield
	cache   *cache.Cache
	cfg     Config

	limiter *rate.Limiter
	pause   cooldown

	mu    sync.Mutex
	done  int
	calls int
}

// New creates a dispatcher. A nil cache disables caching of results.
func New(tr backend.Translator, sh *shield.Shield, c *cache.Cache, cfg Config) *Dispatcher {
	defaults := DefaultConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaults.Concurrency
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = defaults.BaseBackoff
	}
	if cfg.MaxBackoff < cfg.BaseBackoff {
		cfg.MaxBackoff = max(defaults.MaxBackoff, cfg.BaseBackoff)
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaults.CallTimeout
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Logf == nil {
		cfg.Logf = func(string, ...any) {}
	}

	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}

	return &Dispatcher{
		backend: tr,
		shield:  sh,
		cache:   c,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.Burst),
	}
}

// Run translates units and blocks until every item is terminal. Units must
// be unique by key, as produced by the extractor. Cancelling ctx stops new
// backend calls; items that never got a result end Cancelled.
func (d *Dispatcher) Run(ctx context.Context, units []*extract.Unit) *Result {
	d.mu.Lock()
	d.done = 0
	d.calls = 0
	d.mu.Unlock()

	items := make([]*WorkItem, len(units))
	queue := make(chan *WorkItem, len(units))
	for i, u := range units {
		items[i] = newWorkItem(u)
		queue <- items[i]
	}
	close(queue)

	var g errgroup.Group
	workers := min(d.cfg.Concurrency, max(len(items), 1))
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for item := range queue {
				d.process(ctx, item)
				d.report(item, len(items))
			}
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{Items: items, Calls: d.calls}
	for _, item := range items {
		switch item.State {
		case StateSucceeded:
			result.Succeeded++
		case StateFailed:
			result.Failed++
		case StateCancelled:
			result.Cancelled++
		}
	}
	return result
}

func (d *Dispatcher) process(ctx context.Context, item *WorkItem) {
	unit := item.Unit

	var sh shield.Shielded
	masked := unit.Text
	if d.shield != nil {
		var err error
		if sh, err = d.shield.Shield(unit.Text); err != nil {
			// Collision: send the text raw and flag it for audit
			item.Unprotected = true
			d.cfg.Logf("Warning: %v, sending it unprotected", err)
		} else {
			masked = sh.Masked
		}
	}

	for {
		if err := d.waitTurn(ctx); err != nil {
			item.LastErr = err
			item.moveTo(StateCancelled)
			return
		}

		item.moveTo(StateInFlight)
		translation, err := d.call(ctx, masked, unit)
		if !backend.IsRejected(err) {
			// A call refused by the circuit breaker never reached the backend
			item.Attempts++
		}
		if err == nil && !item.Unprotected {
			translation, err = shield.Unshield(sh, translation)
		}

		if err == nil {
			item.Result = translation
			item.LastErr = nil
			item.moveTo(StateSucceeded)
			d.store(ctx, unit, translation)
			return
		}

		item.LastErr = err
		if !retryable(err) || item.Attempts >= d.cfg.MaxAttempts {
			item.moveTo(StateFailed)
			d.cfg.Logf("Warning: giving up on %q (%s) after %d attempt(s): %v",
				unit.Text, unit.TargetLocale, item.Attempts, err)
			return
		}

		if delay := backend.RetryAfter(err); delay > 0 {
			d.pause.pause(delay)
		}
		item.moveTo(StateRetryScheduled)
		if err := sleep(ctx, d.backoff(item.Attempts)); err != nil {
			item.moveTo(StateCancelled)
			return
		}
	}
}

// waitTurn blocks until the shared cooldown is over and the rate limiter
// grants a token
func (d *Dispatcher) waitTurn(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.pause.wait(ctx); err != nil {
		return err
	}
	return d.limiter.Wait(ctx)
}

// call runs one backend request detached from run cancellation but bounded
// by the call timeout
func (d *Dispatcher) call(ctx context.Context, text string, unit *extract.Unit) (string, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.CallTimeout)
	defer cancel()

	out, err := d.backend.Translate(callCtx, text, unit.SourceLocale, unit.TargetLocale)
	if !backend.IsRejected(err) {
		d.mu.Lock()
		d.calls++
		d.mu.Unlock()
	}
	if err != nil {
		return "", fmt.Errorf("translating to %s: %w", unit.TargetLocale, err)
	}
	return out, nil
}

func (d *Dispatcher) store(ctx context.Context, unit *extract.Unit, translation string) {
	if d.cache == nil {
		return
	}
	key := cache.Key{
		SourceLocale: unit.SourceLocale,
		TargetLocale: unit.TargetLocale,
		Signature:    unit.Signature,
		Text:         unit.Text,
	}
	// The cache warns and degrades on its own
	_ = d.cache.Put(context.WithoutCancel(ctx), key, translation)
}

func (d *Dispatcher) report(item *WorkItem, total int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.done++
	if d.cfg.OnProgress != nil {
		d.cfg.OnProgress(Progress{Done: d.done, Total: total, Item: item})
	}
}

// backoff returns the delay before the next attempt: exponential in the
// attempt number, capped, with jitter over its upper half
func (d *Dispatcher) backoff(attempt int) time.Duration {
	delay := d.cfg.BaseBackoff
	for i := 1; i < attempt && delay < d.cfg.MaxBackoff; i++ {
		delay *= 2
	}
	delay = min(delay, d.cfg.MaxBackoff)
	half := delay / 2
	return half + time.Duration(rand.Int64N(int64(half)+1))
}

func retryable(err error) bool {
	if errors.Is(err, shield.ErrTokenMismatch) {
		return false
	}
	return backend.IsTransient(err)
}
