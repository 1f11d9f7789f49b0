package inference

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Model is a lazily loaded remote model. Load runs at most once
// successfully; a failed load is retried on the next Ensure.
type Model struct {
	name  string
	load  func(ctx context.Context) error
	mu    sync.Mutex
	ready atomic.Bool
}

func NewModel(name string, load func(ctx context.Context) error) *Model {
	return &Model{name: name, load: load}
}

// Ensure loads the model if it is not ready yet.
func (m *Model) Ensure(ctx context.Context) error {
	if m.ready.Load() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ready.Load() {
		return nil
	}

	if err := m.load(ctx); err != nil {
		return fmt.Errorf("load model %s: %w", m.name, err)
	}
	m.ready.Store(true)
	return nil
}

// Ready reports whether a load has succeeded. It never triggers one.
func (m *Model) Ready() bool {
	return m.ready.Load()
}
