package store

import (
	"context"
	"sync"

	"github.com/go-training/oauth-callback/pkg/core"
)

// BuildFunc constructs a store.
type BuildFunc func(ctx context.Context) (core.Store, error)

// Lazy is a process-wide store handle built on first use and reused afterwards.
// A failed build is not cached; the next Get tries again.
type Lazy struct {
	mu    sync.Mutex
	build BuildFunc
	store core.Store
}

// NewLazy returns a handle that builds its store with build.
func NewLazy(build BuildFunc) *Lazy {
	return &Lazy{build: build}
}

// NewLazyFromConfig returns a handle backed by a Factory for config.
func NewLazyFromConfig(config Config) *Lazy {
	return NewLazy(NewFactory(config).Create)
}

// Get returns the shared store, building it if needed.
func (l *Lazy) Get(ctx context.Context) (core.Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		return l.store, nil
	}
	s, err := l.build(ctx)
	if err != nil {
		return nil, err
	}
	l.store = s
	return s, nil
}

// Close releases the store if it was built and holds a connection.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.store
	l.store = nil
	switch c := s.(type) {
	case interface{ Close() error }:
		return c.Close()
	case interface{ Close() }:
		c.Close()
	}
	return nil
}
