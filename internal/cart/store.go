package cart

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Op is the durable write a snapshot asks for.
type Op string

const (
	OpSet    Op = "set"
	OpDelete Op = "delete"
)

// Snapshot is the complete cart as of one accepted transition.
type Snapshot struct {
	Seq   uint64
	Op    Op
	Items []Item
}

// Submitter receives snapshots after each persisted transition. Submit must not
// block.
type Submitter interface {
	Submit(snap Snapshot)
}

// Store owns the cart state. Dispatch is the only way to change it.
type Store struct {
	mu      sync.Mutex
	state   State
	seq     uint64
	sink    Submitter
	logg    *logger.Logger
	metrics *metrics.PersistenceMetrics
}

// StoreParams wires a Store.
type StoreParams struct {
	Sink    Submitter
	Logger  *logger.Logger
	Metrics *metrics.PersistenceMetrics
}

// NewStore returns an empty cart. A nil sink keeps the cart in memory only.
func NewStore(params StoreParams) *Store {
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		state:   State{items: []Item{}},
		sink:    params.Sink,
		logg:    logg,
		metrics: params.Metrics,
	}
}

// Dispatch applies action and returns the resulting state. Dispatches are
// serialized, and snapshots reach the sink in the same order as the
// transitions that produced them.
func (s *Store) Dispatch(ctx context.Context, action Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, action)
	s.metrics.IncDispatch(string(action.Kind))

	if action.Persisted() && s.sink != nil {
		s.seq++
		s.sink.Submit(Snapshot{Seq: s.seq, Op: action.op(), Items: s.state.Items()})
	}

	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"action": string(action.Kind),
		"lines":  s.state.Len(),
		"seq":    s.seq,
	}), "cart.dispatch")

	return s.state
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Items returns a copy of the current lines.
func (s *Store) Items() []Item {
	return s.State().Items()
}

// Total is the current cart total.
func (s *Store) Total() decimal.Decimal {
	return s.State().Total()
}

// Len is the current number of lines.
func (s *Store) Len() int {
	return s.State().Len()
}
