package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/internal/storage"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

type harness struct {
	server  *httptest.Server
	durable *storage.MemoryStore
	bridge  *cart.Bridge
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewPersistenceMetrics(reg)
	durable := storage.NewMemoryStore()

	bridge, err := cart.NewBridge(cart.BridgeParams{Store: durable, Metrics: m, WriteTimeout: time.Second})
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	store := cart.NewStore(cart.StoreParams{Sink: bridge, Metrics: m})

	cfg := &config.Config{
		App:   config.AppConfig{Env: config.AppEnvDev},
		Store: config.StoreConfig{Driver: config.DriverMemory, Key: cart.DefaultKey},
	}
	srv := httptest.NewServer(NewRouter(cfg, logger.Nop(), store, durable, reg))
	t.Cleanup(srv.Close)

	return &harness{server: srv, durable: durable, bridge: bridge}
}

func (h *harness) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, h.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := h.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

type cartPayload struct {
	Data struct {
		Lines int    `json:"lines"`
		Units int    `json:"units"`
		Total string `json:"total"`
	} `json:"data"`
}

func decode(t *testing.T, resp *http.Response) cartPayload {
	t.Helper()
	var p cartPayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return p
}

func TestCartRoutesMilkScenario(t *testing.T) {
	h := newHarness(t)
	milk := `{"id":1,"name":"Milk","price":65,"quantity":5}`

	if got := decode(t, h.do(t, http.MethodPost, "/api/v1/cart/items", milk)).Data.Units; got != 1 {
		t.Fatalf("first add: expected 1 unit, got %d", got)
	}
	if got := decode(t, h.do(t, http.MethodPost, "/api/v1/cart/items", milk)).Data.Units; got != 2 {
		t.Fatalf("second add: expected 2 units, got %d", got)
	}
	if got := decode(t, h.do(t, http.MethodPost, "/api/v1/cart/items/1/remove", `{"quantity":1}`)).Data.Units; got != 1 {
		t.Fatalf("remove: expected 1 unit, got %d", got)
	}
	if got := decode(t, h.do(t, http.MethodPost, "/api/v1/cart/items/1/remove", `{"quantity":1}`)).Data.Lines; got != 0 {
		t.Fatalf("second remove: expected empty cart, got %d lines", got)
	}

	if err := h.bridge.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	raw, found, err := h.durable.Get(context.Background(), cart.DefaultKey)
	if err != nil || !found {
		t.Fatalf("expected persisted cart, found=%v err=%v", found, err)
	}
	if raw != "[]" {
		t.Fatalf("expected empty persisted array, got %s", raw)
	}
}

func TestCartRoutesClearDeletesDurableKey(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/v1/cart/items", `{"id":"a","price":"₹39"}`)

	resp := h.do(t, http.MethodDelete, "/api/v1/cart", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	if err := h.bridge.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, found, _ := h.durable.Get(context.Background(), cart.DefaultKey); found {
		t.Fatalf("clear must delete the durable key")
	}
}

func TestCartRoutesTotal(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/v1/cart/items", `{"id":"a","price":49}`)
	h.do(t, http.MethodPost, "/api/v1/cart/items", `{"id":"a","price":49}`)
	h.do(t, http.MethodPost, "/api/v1/cart/items", `{"id":"b","price":"₹39"}`)

	resp := h.do(t, http.MethodGet, "/api/v1/cart", "")
	if got := decode(t, resp).Data.Total; got != "137" {
		t.Fatalf("expected total 137, got %s", got)
	}
}

func TestLoadCartIsNotRoutable(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/api/v1/cart/load", "/api/v1/cart/items/load"} {
		resp := h.do(t, http.MethodPost, path, `[]`)
		if resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected no route, got %d", path, resp.StatusCode)
		}
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		if resp := h.do(t, http.MethodGet, path, ""); resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.StatusCode)
		}
	}

	h.do(t, http.MethodPost, "/api/v1/cart/items", `{"id":"a"}`)
	resp := h.do(t, http.MethodGet, "/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: expected 200 got %d", resp.StatusCode)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(buf.String(), `cart_dispatches_total{action="cart/addToCart"} 1`) {
		t.Fatalf("expected dispatch counter in exposition:\n%s", buf.String())
	}
}
