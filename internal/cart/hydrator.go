package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

// Reader is the read side of the durable store.
type Reader interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// HydrateStatus describes how startup hydration ended.
type HydrateStatus string

const (
	HydrateLoaded      HydrateStatus = "loaded"
	HydrateAbsent      HydrateStatus = "absent"
	HydrateMalformed   HydrateStatus = "malformed"
	HydrateUnavailable HydrateStatus = "unavailable"
)

// HydrateResult is the outcome of the startup read.
type HydrateResult struct {
	Status HydrateStatus
	Items  []Item
	Err    error
}

// HydratorParams wires a Hydrator.
type HydratorParams struct {
	Reader      Reader
	Store       *Store
	Key         string
	Logger      *logger.Logger
	Metrics     *metrics.PersistenceMetrics
	ReadTimeout time.Duration
}

// Hydrator restores the persisted cart once per process.
type Hydrator struct {
	reader      Reader
	store       *Store
	key         string
	logg        *logger.Logger
	metrics     *metrics.PersistenceMetrics
	readTimeout time.Duration

	once   sync.Once
	result HydrateResult
}

// NewHydrator validates params.
func NewHydrator(params HydratorParams) (*Hydrator, error) {
	if params.Reader == nil {
		return nil, errors.New("durable store required")
	}
	if params.Store == nil {
		return nil, errors.New("cart store required")
	}
	key := params.Key
	if key == "" {
		key = DefaultKey
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Hydrator{
		reader:      params.Reader,
		store:       params.Store,
		key:         key,
		logg:        logg,
		metrics:     params.Metrics,
		readTimeout: params.ReadTimeout,
	}, nil
}

// Hydrate reads the durable cart and loads it into the store. Only the first
// call does any work; later calls return the same result. Every failure leaves
// the cart empty.
func (h *Hydrator) Hydrate(ctx context.Context) HydrateResult {
	h.once.Do(func() {
		h.result = h.run(ctx)
		h.metrics.IncHydration(string(h.result.Status))
	})
	return h.result
}

func (h *Hydrator) run(ctx context.Context) HydrateResult {
	ctx = h.logg.WithField(ctx, "key", h.key)

	readCtx := ctx
	if h.readTimeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, h.readTimeout)
		defer cancel()
	}

	raw, found, err := h.reader.Get(readCtx, h.key)
	if err != nil {
		h.logg.WarnErr(ctx, "cart.hydrate.unavailable", err)
		return HydrateResult{Status: HydrateUnavailable, Err: err}
	}
	if !found {
		h.logg.Info(ctx, "cart.hydrate.absent")
		return HydrateResult{Status: HydrateAbsent}
	}

	items, err := DecodeItems(raw)
	if err != nil {
		h.logg.WarnErr(ctx, "cart.hydrate.malformed", err)
		return HydrateResult{Status: HydrateMalformed, Err: err}
	}

	state := h.store.Dispatch(ctx, LoadCart(items))
	h.logg.Info(h.logg.WithField(ctx, "lines", state.Len()), "cart.hydrate.loaded")
	return HydrateResult{Status: HydrateLoaded, Items: state.Items()}
}
