package cache

import (
	"context"
	"sync"
	"time"
)

// Key identifies one cached translation
type Key struct {
	SourceLocale string `yaml:"source"`
	TargetLocale string `yaml:"target"`
	Signature    string `yaml:"signature"`
	Text         string `yaml:"text"`
}

// Entry is a cached translation together with its key
type Entry struct {
	Key         `yaml:",inline"`
	Translation string    `yaml:"translation"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

// Logf receives warnings
type Logf func(format string, args ...any)

// Cache is the in-memory translation cache with optional write-through
// persistence.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]Entry

	locks keyLocks

	storeMu sync.Mutex
	store   Store
	logf    Logf

	now func() time.Time
}

// New creates a cache backed by store. A nil store keeps the cache in memory.
func New(store Store, logf Logf) *Cache {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Cache{
		entries: make(map[Key]Entry),
		locks:   keyLocks{m: make(map[Key]*keyLock)},
		store:   store,
		logf:    logf,
		now:     time.Now,
	}
}

// Load reads all persisted entries into memory. On failure the store is
// detached and the cache continues memory-only; the returned *IOError is for
// reporting only.
func (c *Cache) Load(ctx context.Context) error {
	store := c.currentStore()
	if store == nil {
		return nil
	}

	entries, err := store.Load(ctx)
	if err != nil {
		ioErr := &IOError{Op: "load", Err: err}
		c.detach(store, "Warning: %v, continuing without persistent cache", ioErr)
		return ioErr
	}

	c.mu.Lock()
	for _, e := range entries {
		c.entries[e.Key] = e
	}
	c.mu.Unlock()

	return nil
}

// Get returns the cached translation for key
func (c *Cache) Get(key Key) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.Translation, ok
}

// Put stores translation under key. Re-putting the same translation is a
// no-op; a different translation overwrites. A persistence failure is
// reported once and the cache carries on in memory.
func (c *Cache) Put(ctx context.Context, key Key, translation string) error {
	l := c.locks.lock(key)
	defer c.locks.unlock(key, l)

	c.mu.RLock()
	existing, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && existing.Translation == translation {
		return nil
	}

	entry := Entry{Key: key, Translation: translation, UpdatedAt: c.now().UTC()}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	store := c.currentStore()
	if store == nil {
		return nil
	}
	if err := store.Put(ctx, entry); err != nil {
		ioErr := &IOError{Op: "put", Err: err}
		c.detach(store, "Warning: %v, further translations are kept in memory only", ioErr)
		return ioErr
	}
	return nil
}

// Len returns the number of entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Persistent reports whether a store is still attached
func (c *Cache) Persistent() bool {
	return c.currentStore() != nil
}

// Close flushes and closes the store
func (c *Cache) Close() error {
	c.storeMu.Lock()
	store := c.store
	c.store = nil
	c.storeMu.Unlock()

	if store == nil {
		return nil
	}
	if err := store.Close(); err != nil {
		return &IOError{Op: "close", Err: err}
	}
	return nil
}

func (c *Cache) currentStore() Store {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()
	return c.store
}

// detach drops store if it is still attached. Only the caller that drops it
// logs the warning.
func (c *Cache) detach(store Store, warning string, cause error) {
	c.storeMu.Lock()
	if c.store != store {
		c.storeMu.Unlock()
		return
	}
	c.store = nil
	c.storeMu.Unlock()

	c.logf(warning, cause)
	if err := store.Close(); err != nil {
		c.logf("Warning: failed to close cache store: %v", err)
	}
}

// keyLocks serializes writers per key. Locks are reference counted and
// dropped when the last holder releases them.
type keyLocks struct {
	mu sync.Mutex
	m  map[Key]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func (k *keyLocks) lock(key Key) *keyLock {
	k.mu.Lock()
	l, ok := k.m[key]
	if !ok {
		l = &keyLock{}
		k.m[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return l
}

func (k *keyLocks) unlock(key Key, l *keyLock) {
	l.Unlock()

	k.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(k.m, key)
	}
	k.mu.Unlock()
}
