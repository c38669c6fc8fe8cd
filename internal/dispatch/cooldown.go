package dispatch

import (
	"context"
	"sync"
	"time"
)

// cooldown is a pause shared by all workers. When the backend asks for a
// delay every worker holds off new calls until it has passed.
type cooldown struct {
	mu    sync.Mutex
	until time.Time
}

func (c *cooldown) pause(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if end := time.Now().Add(d); end.After(c.until) {
		c.until = end
	}
}

func (c *cooldown) remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Until(c.until)
}

// wait blocks until the pause is over or ctx is done
func (c *cooldown) wait(ctx context.Context) error {
	for {
		remaining := c.remaining()
		if remaining <= 0 {
			return nil
		}
		if err := sleep(ctx, min(remaining, 100*time.Millisecond)); err != nil {
			return err
		}
	}
}

// sleep waits for d unless ctx ends first
func sleep(ctx context.Context, d time.Duration) error {
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
