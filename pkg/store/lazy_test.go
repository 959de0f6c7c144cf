package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-training/oauth-callback/pkg/core"
)

type closingStore struct {
	*MemoryStore
	closed int
}

func (c *closingStore) Close() error {
	c.closed++
	return nil
}

func TestLazy_BuildsOnce(t *testing.T) {
	builds := 0
	lazy := NewLazy(func(ctx context.Context) (core.Store, error) {
		builds++
		return NewMemoryStore(), nil
	})

	ctx := context.Background()
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := lazy.Get(ctx); err != nil {
				t.Errorf("Get() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if builds != 1 {
		t.Errorf("build called %d times, want 1", builds)
	}
}

func TestLazy_RetriesAfterFailure(t *testing.T) {
	errBoom := errors.New("boom")
	calls := 0
	lazy := NewLazy(func(ctx context.Context) (core.Store, error) {
		calls++
		if calls == 1 {
			return nil, errBoom
		}
		return NewMemoryStore(), nil
	})

	ctx := context.Background()
	if _, err := lazy.Get(ctx); !errors.Is(err, errBoom) {
		t.Fatalf("first Get() error = %v, want %v", err, errBoom)
	}
	s, err := lazy.Get(ctx)
	if err != nil || s == nil {
		t.Fatalf("second Get() = %v, %v; want store", s, err)
	}
	if calls != 2 {
		t.Errorf("build called %d times, want 2", calls)
	}
}

func TestLazy_Close(t *testing.T) {
	cs := &closingStore{MemoryStore: NewMemoryStore()}
	lazy := NewLazy(func(ctx context.Context) (core.Store, error) {
		return cs, nil
	})

	// Closing before first use is a no-op.
	if err := lazy.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := lazy.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := lazy.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if cs.closed != 1 {
		t.Errorf("closed %d times, want 1", cs.closed)
	}
}
