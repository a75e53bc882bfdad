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

func newTestHydrator(t *testing.T, reader Reader, store *Store, m *metrics.PersistenceMetrics) *Hydrator {
	t.Helper()
	h, err := NewHydrator(HydratorParams{Reader: reader, Store: store, Metrics: m, ReadTimeout: time.Second})
	require.NoError(t, err)
	return h
}

func TestNewHydratorRequiresCollaborators(t *testing.T) {
	_, err := NewHydrator(HydratorParams{Store: NewStore(StoreParams{})})
	require.Error(t, err)
	_, err = NewHydrator(HydratorParams{Reader: newMemStore()})
	require.Error(t, err)
}

func TestHydrateLoadsPersistedCart(t *testing.T) {
	durable := newMemStore()
	durable.data[DefaultKey] = `[{"id":1,"name":"Milk","price":65,"quantity":2},{"id":"b","price":"₹39","quantity":1}]`
	sink := &recordingSink{}
	store := NewStore(StoreParams{Sink: sink})

	res := newTestHydrator(t, durable, store, nil).Hydrate(context.Background())

	require.Equal(t, HydrateLoaded, res.Status)
	require.NoError(t, res.Err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, "169", store.Total().String())
	assert.Empty(t, sink.all(), "hydration must not write back")
}

func TestHydrateAbsentKeyLeavesEmptyCart(t *testing.T) {
	store := NewStore(StoreParams{})
	res := newTestHydrator(t, newMemStore(), store, nil).Hydrate(context.Background())

	assert.Equal(t, HydrateAbsent, res.Status)
	assert.Equal(t, 0, store.Len())
}

func TestHydrateMalformedFallsBackToEmpty(t *testing.T) {
	durable := newMemStore()
	durable.data[DefaultKey] = `{not json`
	store := NewStore(StoreParams{})

	res := newTestHydrator(t, durable, store, nil).Hydrate(context.Background())

	assert.Equal(t, HydrateMalformed, res.Status)
	assert.Error(t, res.Err)
	assert.Equal(t, 0, store.Len())
}

func TestHydrateUnavailableFallsBackToEmpty(t *testing.T) {
	durable := newMemStore()
	durable.getErr = errors.New("connection refused")
	store := NewStore(StoreParams{})

	res := newTestHydrator(t, durable, store, nil).Hydrate(context.Background())

	assert.Equal(t, HydrateUnavailable, res.Status)
	assert.Equal(t, 0, store.Len())
}

func TestHydrateRunsOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewPersistenceMetrics(reg)
	durable := newMemStore()
	durable.data[DefaultKey] = `[{"id":"a","quantity":1}]`
	store := NewStore(StoreParams{})
	h := newTestHydrator(t, durable, store, m)

	first := h.Hydrate(context.Background())
	store.Dispatch(context.Background(), AddToCart(Item{ID: "b"}))
	durable.data[DefaultKey] = `[]`
	second := h.Hydrate(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, 2, store.Len(), "a second call must not reload")
	assert.Equal(t, float64(1), gatheredCounter(t, reg, "cart_hydrations_total"))
}

func TestClearThenRestartYieldsEmptyCart(t *testing.T) {
	ctx := context.Background()
	durable := newMemStore()
	bridge, err := NewBridge(BridgeParams{Store: durable})
	require.NoError(t, err)

	store := NewStore(StoreParams{Sink: bridge})
	store.Dispatch(ctx, AddToCart(milk()))
	store.Dispatch(ctx, AddToCart(Item{ID: "b"}))
	require.NoError(t, bridge.Flush(ctx))
	store.Dispatch(ctx, ClearCart())
	require.NoError(t, bridge.Flush(ctx))

	// simulated restart
	restarted := NewStore(StoreParams{})
	res := newTestHydrator(t, durable, restarted, nil).Hydrate(ctx)

	assert.Equal(t, HydrateAbsent, res.Status)
	assert.Equal(t, 0, restarted.Len())
}

func TestRestartRestoresLastWrittenCart(t *testing.T) {
	ctx := context.Background()
	durable := newMemStore()
	bridge, err := NewBridge(BridgeParams{Store: durable})
	require.NoError(t, err)

	store := NewStore(StoreParams{Sink: bridge})
	store.Dispatch(ctx, AddToCart(milk()))
	store.Dispatch(ctx, AddToCart(milk()))
	store.Dispatch(ctx, AddToCart(Item{ID: "b", Price: ParsePrice("₹39")}))
	require.NoError(t, bridge.Flush(ctx))

	restarted := NewStore(StoreParams{})
	res := newTestHydrator(t, durable, restarted, nil).Hydrate(ctx)

	require.Equal(t, HydrateLoaded, res.Status)
	want, err := EncodeItems(store.Items())
	require.NoError(t, err)
	got, err := EncodeItems(restarted.Items())
	require.NoError(t, err)
	assert.JSONEq(t, want, got)
	assert.Equal(t, "169", restarted.Total().String())
}
