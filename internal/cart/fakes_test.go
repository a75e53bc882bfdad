package cart

import (
	"context"
	"sync"
)

// memStore is a durable store double with failure and latency injection.
type memStore struct {
	mu     sync.Mutex
	data   map[string]string
	ops    []Op
	setErr error
	getErr error

	// when set, Set signals entered and waits for gate or ctx
	entered chan struct{}
	gate    chan struct{}
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}}
}

func (m *memStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	entered, gate := m.entered, m.gate
	m.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, OpSet)
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, OpDelete)
	delete(m.data, key)
	return nil
}

func (m *memStore) value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memStore) setFailure(err error) {
	m.mu.Lock()
	m.setErr = err
	m.mu.Unlock()
}

// recordingSink captures snapshots synchronously.
type recordingSink struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recordingSink) Submit(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

func (r *recordingSink) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}
