package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bridgeHarness struct {
	store   *memStore
	bridge  *Bridge
	cart    *Store
	results chan WriteResult
	metrics *metrics.PersistenceMetrics
	reg     *prometheus.Registry
}

func newBridgeHarness(t *testing.T, timeout time.Duration) *bridgeHarness {
	t.Helper()
	h := &bridgeHarness{
		store:   newMemStore(),
		results: make(chan WriteResult, 64),
		reg:     prometheus.NewRegistry(),
	}
	h.metrics = metrics.NewPersistenceMetrics(h.reg)
	bridge, err := NewBridge(BridgeParams{
		Store:        h.store,
		Metrics:      h.metrics,
		WriteTimeout: timeout,
		OnResult:     func(r WriteResult) { h.results <- r },
	})
	require.NoError(t, err)
	h.bridge = bridge
	h.cart = NewStore(StoreParams{Sink: bridge, Metrics: h.metrics})
	return h
}

func (h *bridgeHarness) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.bridge.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func (h *bridgeHarness) waitFor(t *testing.T, seq uint64) WriteResult {
	t.Helper()
	for {
		select {
		case r := <-h.results:
			if r.Seq == seq {
				return r
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for write seq=%d", seq)
		}
	}
}

func TestNewBridgeRequiresStore(t *testing.T) {
	_, err := NewBridge(BridgeParams{})
	require.Error(t, err)
}

func TestBridgePersistsLatestSnapshot(t *testing.T) {
	h := newBridgeHarness(t, time.Second)
	h.start(t)
	ctx := context.Background()

	h.cart.Dispatch(ctx, AddToCart(milk()))
	h.cart.Dispatch(ctx, AddToCart(Item{ID: "b", Price: ParsePrice("₹39")}))
	h.cart.Dispatch(ctx, AddToCart(milk()))

	res := h.waitFor(t, 3)
	require.NoError(t, res.Err)

	raw, ok := h.store.value(DefaultKey)
	require.True(t, ok)
	items, err := DecodeItems(raw)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, ItemID("1"), items[0].ID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "₹39", items[1].Price.Label())
}

func TestBridgeCoalescesWhileWriteInFlight(t *testing.T) {
	h := newBridgeHarness(t, time.Second)
	h.store.entered = make(chan struct{}, 8)
	h.store.gate = make(chan struct{})
	h.start(t)
	ctx := context.Background()

	h.cart.Dispatch(ctx, AddToCart(Item{ID: "a"}))
	<-h.store.entered // seq 1 is being written

	h.cart.Dispatch(ctx, AddToCart(Item{ID: "b"}))
	h.cart.Dispatch(ctx, AddToCart(Item{ID: "c"}))
	close(h.store.gate)

	first := h.waitFor(t, 1)
	require.NoError(t, first.Err)
	last := h.waitFor(t, 3)
	require.NoError(t, last.Err)

	raw, _ := h.store.value(DefaultKey)
	items, err := DecodeItems(raw)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	assert.Equal(t, float64(1), gatheredCounter(t, h.reg, "cart_persist_coalesced_total"))
}

func TestBridgeClearDeletesKey(t *testing.T) {
	h := newBridgeHarness(t, time.Second)
	h.start(t)
	ctx := context.Background()

	h.cart.Dispatch(ctx, AddToCart(milk()))
	h.waitFor(t, 1)
	h.cart.Dispatch(ctx, ClearCart())
	res := h.waitFor(t, 2)

	assert.Equal(t, OpDelete, res.Op)
	_, ok := h.store.value(DefaultKey)
	assert.False(t, ok, "clear must remove the durable key")
}

func TestBridgeFailureDoesNotTouchState(t *testing.T) {
	h := newBridgeHarness(t, time.Second)
	h.start(t)
	ctx := context.Background()

	boom := errors.New("disk full")
	h.store.setFailure(boom)
	h.cart.Dispatch(ctx, AddToCart(milk()))
	res := h.waitFor(t, 1)
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, 1, h.cart.Len(), "in-memory state stays authoritative")

	// the next mutation heals the durable copy
	h.store.setFailure(nil)
	h.cart.Dispatch(ctx, AddToCart(milk()))
	require.NoError(t, h.waitFor(t, 2).Err)

	raw, ok := h.store.value(DefaultKey)
	require.True(t, ok)
	items, err := DecodeItems(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestBridgeWriteTimeout(t *testing.T) {
	h := newBridgeHarness(t, 20*time.Millisecond)
	h.store.gate = make(chan struct{}) // never released
	h.start(t)

	h.cart.Dispatch(context.Background(), AddToCart(milk()))
	res := h.waitFor(t, 1)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestBridgeFlushWritesPending(t *testing.T) {
	h := newBridgeHarness(t, time.Second)
	ctx := context.Background()

	// no worker running: snapshots stay pending until flushed
	h.cart.Dispatch(ctx, AddToCart(milk()))
	h.cart.Dispatch(ctx, AddToCart(milk()))
	require.True(t, h.bridge.Pending())

	require.NoError(t, h.bridge.Flush(ctx))
	assert.False(t, h.bridge.Pending())

	raw, ok := h.store.value(DefaultKey)
	require.True(t, ok)
	items, err := DecodeItems(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, items[0].Quantity)

	// nothing left to write
	require.NoError(t, h.bridge.Flush(ctx))
	h.store.mu.Lock()
	assert.Len(t, h.store.ops, 1)
	h.store.mu.Unlock()
}

func TestBridgeFlushReportsError(t *testing.T) {
	h := newBridgeHarness(t, time.Second)
	h.store.setFailure(errors.New("read-only"))

	h.cart.Dispatch(context.Background(), AddToCart(milk()))
	assert.Error(t, h.bridge.Flush(context.Background()))
}

func gatheredCounter(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name && len(mf.GetMetric()) == 1 {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
