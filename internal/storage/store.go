package storage

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/migrate"
	pkgredis "github.com/angelmondragon/storefront-cart/pkg/redis"
	"go.uber.org/multierr"
)

// Store is a string key/value store. Get reports found=false for a missing
// key; backend failures come back as DEPENDENCY_ERROR.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the store selected by cfg.Store.Driver. SQL backends are
// migrated before they are returned.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	ctx = logg.WithField(ctx, "store_driver", cfg.Store.Driver)

	switch cfg.Store.Driver {
	case config.DriverMemory:
		logg.Warn(ctx, "using in-memory cart store; the cart will not survive restarts")
		return NewMemoryStore(), nil

	case config.DriverRedis:
		client, err := pkgredis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, wrapBackend(err, "connect redis")
		}
		return NewRedisStore(client), nil

	case config.DriverSQLite, config.DriverPostgres:
		client, err := db.New(ctx, cfg.Store.Driver, cfg.DB, logg)
		if err != nil {
			return nil, wrapBackend(err, "connect database")
		}
		if err := migrate.MaybeRun(ctx, cfg, logg, client); err != nil {
			return nil, multierr.Append(wrapBackend(err, "migrate database"), client.Close())
		}
		return NewSQLStore(client), nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func wrapBackend(err error, op string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
