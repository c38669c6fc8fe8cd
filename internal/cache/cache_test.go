package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

type fakeStore struct {
	mu      sync.Mutex
	loaded  []Entry
	puts    []Entry
	loadErr error
	putErr  error
	closed  bool
	// entered and release, when set, hold every Put until released
	entered chan struct{}
	release chan struct{}
}

func (f *fakeStore) Load(ctx context.Context) ([]Entry, error) {
	return f.loaded, f.loadErr
}

func (f *fakeStore) Put(ctx context.Context, e Entry) error {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.puts = append(f.puts, e)
	return nil
}

func (f *fakeStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type warnings struct {
	mu    sync.Mutex
	lines []string
}

func (w *warnings) logf(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

func (w *warnings) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.lines)
}

var helloKey = Key{SourceLocale: "en", TargetLocale: "fr", Signature: "sig", Text: "Hello"}

func TestCacheGetPut(t *testing.T) {
	ctx := context.Background()
	c := New(nil, nil)

	if _, ok := c.Get(helloKey); ok {
		t.Fatal("Expected miss on empty cache")
	}
	if err := c.Put(ctx, helloKey, "Bonjour"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if got, ok := c.Get(helloKey); !ok || got != "Bonjour" {
		t.Errorf("Get = %q, %v", got, ok)
	}

	other := helloKey
	other.Signature = "other"
	if _, ok := c.Get(other); ok {
		t.Error("Different signature must not hit")
	}

	if err := c.Put(ctx, helloKey, "Salut"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if got, _ := c.Get(helloKey); got != "Salut" {
		t.Errorf("Overwrite failed, got %q", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCacheIdenticalPutIsNoop(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	c := New(store, nil)

	for i := 0; i < 3; i++ {
		if err := c.Put(ctx, helloKey, "Bonjour"); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if len(store.puts) != 1 {
		t.Errorf("Expected one store write, got %d", len(store.puts))
	}
}

func TestCacheLoad(t *testing.T) {
	store := &fakeStore{loaded: []Entry{{Key: helloKey, Translation: "Bonjour"}}}
	c := New(store, nil)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got, ok := c.Get(helloKey); !ok || got != "Bonjour" {
		t.Errorf("Get after Load = %q, %v", got, ok)
	}
	if !c.Persistent() {
		t.Error("Store should stay attached")
	}
}

func TestCacheLoadFailureFallsBackToMemory(t *testing.T) {
	w := &warnings{}
	store := &fakeStore{loadErr: errors.New("disk on fire")}
	c := New(store, w.logf)

	err := c.Load(context.Background())
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "load" {
		t.Fatalf("Expected load IOError, got %v", err)
	}
	if c.Persistent() {
		t.Error("Store should be detached after load failure")
	}
	if w.count() != 1 {
		t.Errorf("Expected one warning, got %d", w.count())
	}

	if err := c.Put(context.Background(), helloKey, "Bonjour"); err != nil {
		t.Errorf("Memory-only put failed: %v", err)
	}
	if _, ok := c.Get(helloKey); !ok {
		t.Error("Memory-only cache lost the entry")
	}
}

func TestCachePutFailureWarnsOnce(t *testing.T) {
	ctx := context.Background()
	w := &warnings{}
	store := &fakeStore{putErr: errors.New("read-only")}
	c := New(store, w.logf)

	err := c.Put(ctx, helloKey, "Bonjour")
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Expected IOError, got %v", err)
	}
	if !store.closed {
		t.Error("Failed store should be closed")
	}

	second := helloKey
	second.Text = "Bye"
	if err := c.Put(ctx, second, "Au revoir"); err != nil {
		t.Errorf("Second put should succeed in memory, got %v", err)
	}
	if w.count() != 1 {
		t.Errorf("Expected exactly one warning, got %d", w.count())
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestCacheConcurrentPutFailuresWarnOnce(t *testing.T) {
	ctx := context.Background()
	w := &warnings{}
	store := &fakeStore{
		putErr:  errors.New("disk full"),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := New(store, w.logf)

	second := helloKey
	second.Text = "Bye"

	errs := make(chan error, 2)
	for _, key := range []Key{helloKey, second} {
		go func(key Key) {
			errs <- c.Put(ctx, key, "x")
		}(key)
	}

	// Both writers are inside the failing store before either returns
	<-store.entered
	<-store.entered
	close(store.release)

	for i := 0; i < 2; i++ {
		var ioErr *IOError
		if err := <-errs; !errors.As(err, &ioErr) {
			t.Errorf("Expected IOError, got %v", err)
		}
	}
	if w.count() != 1 {
		t.Errorf("Expected exactly one warning, got %d: %v", w.count(), w.lines)
	}
	if c.Persistent() {
		t.Error("Store should be detached")
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	c := New(store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := helloKey
			key.Text = fmt.Sprintf("text %d", i%5)
			_ = c.Put(ctx, key, "same")
			c.Get(key)
		}(i)
	}
	wg.Wait()

	if c.Len() != 5 {
		t.Errorf("Len = %d, want 5", c.Len())
	}
	if len(store.puts) != 5 {
		t.Errorf("Expected 5 store writes, got %d", len(store.puts))
	}
	if len(c.locks.m) != 0 {
		t.Errorf("Key locks leaked: %d", len(c.locks.m))
	}
}

func TestCacheClose(t *testing.T) {
	store := &fakeStore{}
	c := New(store, nil)
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !store.closed {
		t.Error("Store not closed")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}
