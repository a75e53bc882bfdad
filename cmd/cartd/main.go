package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-cart/api"
	"github.com/angelmondragon/storefront-cart/api/routes"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/internal/storage"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

const serviceName = "cartd"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "cartd stopped with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	baseCtx := logg.WithFields(context.Background(), map[string]any{
		"env":          cfg.App.Env,
		"store_driver": cfg.Store.Driver,
		"store_key":    cfg.Store.Key,
	})

	durable, err := storage.Open(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, durable.Close())
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	persistMetrics := metrics.NewPersistenceMetrics(reg)

	bridge, err := cart.NewBridge(cart.BridgeParams{
		Store:        durable,
		Key:          cfg.Store.Key,
		Logger:       logg,
		Metrics:      persistMetrics,
		WriteTimeout: cfg.Store.WriteTimeout,
	})
	if err != nil {
		return err
	}

	store := cart.NewStore(cart.StoreParams{
		Sink:    bridge,
		Logger:  logg,
		Metrics: persistMetrics,
	})

	hydrator, err := cart.NewHydrator(cart.HydratorParams{
		Reader:      durable,
		Store:       store,
		Key:         cfg.Store.Key,
		Logger:      logg,
		Metrics:     persistMetrics,
		ReadTimeout: cfg.Store.ReadTimeout,
	})
	if err != nil {
		return err
	}
	hydrated := hydrator.Hydrate(baseCtx)
	logg.Info(logg.WithFields(baseCtx, map[string]any{
		"hydrate_status": string(hydrated.Status),
		"lines":          len(hydrated.Items),
	}), "cart hydrated")

	server := api.NewServer(cfg, routes.NewRouter(cfg, logg, store, durable, reg))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bridge.Run(gctx)
	})

	g.Go(func() error {
		logg.Info(logg.WithField(baseCtx, "addr", server.Addr), "starting cart dispatch surface")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownErr := drain(server, bridge, cfg.Store.FlushTimeout)
		logg.Info(baseCtx, "cart dispatch surface stopped")
		return shutdownErr
	})

	return g.Wait()
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

type flusher interface {
	Flush(ctx context.Context) error
}

// drain stops dispatches before the final flush so nothing lands after it.
// Each step gets its own budget: a slow drain must not cancel the last write.
func drain(server shutdowner, bridge flusher, timeout time.Duration) error {
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()
	err := server.Shutdown(shutdownCtx)

	flushCtx, cancelFlush := context.WithTimeout(context.Background(), timeout)
	defer cancelFlush()
	return multierr.Append(err, bridge.Flush(flushCtx))
}
