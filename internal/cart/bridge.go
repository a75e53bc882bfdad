package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

// DefaultKey is the durable key the cart lives under.
const DefaultKey = "cart"

// Writer is the write side of the durable store.
type Writer interface {
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// WriteResult is the outcome of writing one snapshot.
type WriteResult struct {
	Seq      uint64
	Op       Op
	Err      error
	Duration time.Duration
}

// BridgeParams wires a Bridge.
type BridgeParams struct {
	Store        Writer
	Key          string
	Logger       *logger.Logger
	Metrics      *metrics.PersistenceMetrics
	WriteTimeout time.Duration
	OnResult     func(WriteResult)
}

// Bridge writes cart snapshots to the durable store in the background. Only the
// newest unwritten snapshot is kept: every snapshot is the full cart, so an
// older pending one has nothing the newer one lacks.
type Bridge struct {
	store        Writer
	key          string
	logg         *logger.Logger
	metrics      *metrics.PersistenceMetrics
	writeTimeout time.Duration
	onResult     func(WriteResult)

	mu      sync.Mutex
	pending *Snapshot
	wake    chan struct{}

	// held across take+write so Run and Flush never reorder snapshots
	writeMu sync.Mutex
}

// NewBridge validates params and returns an idle bridge. Call Run to start
// writing.
func NewBridge(params BridgeParams) (*Bridge, error) {
	if params.Store == nil {
		return nil, errors.New("durable store required")
	}
	key := params.Key
	if key == "" {
		key = DefaultKey
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Bridge{
		store:        params.Store,
		key:          key,
		logg:         logg,
		metrics:      params.Metrics,
		writeTimeout: params.WriteTimeout,
		onResult:     params.OnResult,
		wake:         make(chan struct{}, 1),
	}, nil
}

// Submit queues snap, replacing any snapshot not yet written. It never blocks.
func (b *Bridge) Submit(snap Snapshot) {
	b.mu.Lock()
	if b.pending != nil {
		b.metrics.IncCoalesced()
	}
	b.pending = &snap
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Run writes snapshots until ctx is done. A write already started when ctx
// ends finishes under its own timeout; anything still pending is left for
// Flush.
func (b *Bridge) Run(ctx context.Context) error {
	writeCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.wake:
			b.drain(writeCtx)
		}
	}
}

// Flush writes the pending snapshot, if any, and reports its error.
func (b *Bridge) Flush(ctx context.Context) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	snap := b.take()
	if snap == nil {
		return nil
	}
	return b.write(ctx, *snap).Err
}

// Pending reports whether a snapshot is waiting to be written.
func (b *Bridge) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending != nil
}

func (b *Bridge) drain(ctx context.Context) {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	for {
		snap := b.take()
		if snap == nil {
			return
		}
		b.write(ctx, *snap)
	}
}

func (b *Bridge) take() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := b.pending
	b.pending = nil
	return snap
}

func (b *Bridge) write(ctx context.Context, snap Snapshot) WriteResult {
	if b.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.writeTimeout)
		defer cancel()
	}

	start := time.Now()
	err := b.apply(ctx, snap)
	res := WriteResult{Seq: snap.Seq, Op: snap.Op, Err: err, Duration: time.Since(start)}

	b.metrics.ObserveWrite(string(snap.Op), res.Duration, err)

	logCtx := b.logg.WithFields(ctx, map[string]any{
		"seq":         snap.Seq,
		"op":          string(snap.Op),
		"key":         b.key,
		"lines":       len(snap.Items),
		"duration_ms": res.Duration.Milliseconds(),
	})
	if err != nil {
		b.logg.Error(logCtx, "cart.persist.failed", err)
	} else {
		b.logg.Debug(logCtx, "cart.persist.ok")
	}

	if b.onResult != nil {
		b.onResult(res)
	}
	return res
}

func (b *Bridge) apply(ctx context.Context, snap Snapshot) error {
	if snap.Op == OpDelete {
		return b.store.Delete(ctx, b.key)
	}
	payload, err := EncodeItems(snap.Items)
	if err != nil {
		return err
	}
	return b.store.Set(ctx, b.key, payload)
}
