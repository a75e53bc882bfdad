package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "CART"

	EnvAppEnv      = "CART_APP_ENV"
	EnvPort        = "CART_APP_PORT"
	EnvLogLevel    = "CART_LOG_LEVEL"
	EnvLogFormat   = "CART_LOG_FORMAT"
	EnvStoreDriver = "CART_STORE_DRIVER"
	EnvStoreKey    = "CART_STORE_KEY"
	EnvDBDSN       = "CART_DB_DSN"
	EnvDBHost      = "CART_DB_HOST"
	EnvDBUser      = "CART_DB_USER"
	EnvDBName      = "CART_DB_NAME"
	EnvSQLitePath  = "CART_SQLITE_PATH"
	EnvRedisURL    = "CART_REDIS_URL"
	EnvRedisAddr   = "CART_REDIS_ADDR"
	EnvAutoMigrate = "CART_AUTO_MIGRATE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Store        StoreConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.normalize(); err != nil {
		return nil, err
	}
	switch cfg.Store.Driver {
	case DriverPostgres:
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	case DriverRedis:
		if cfg.Redis.URL == "" && cfg.Redis.Address == "" {
			return nil, fmt.Errorf("either %s or %s is required for the redis store", EnvRedisURL, EnvRedisAddr)
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CART_APP_ENV" default:"dev"`
	Port         string `envconfig:"CART_APP_PORT" default:"8787"`
	LogLevel     string `envconfig:"CART_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"CART_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"CART_LOG_WARN_STACK" default:"false"`

	// browser shells (Expo web) calling the dispatch surface
	CORSOrigins []string `envconfig:"CART_CORS_ORIGINS" default:"http://localhost:8081,http://localhost:19006"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StoreConfig selects and tunes the durable store that backs the cart.
type StoreConfig struct {
	Driver       string        `envconfig:"CART_STORE_DRIVER" default:"sqlite"`
	Key          string        `envconfig:"CART_STORE_KEY" default:"cart"`
	ReadTimeout  time.Duration `envconfig:"CART_STORE_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"CART_STORE_WRITE_TIMEOUT" default:"3s"`
	FlushTimeout time.Duration `envconfig:"CART_STORE_FLUSH_TIMEOUT" default:"5s"`
}

// IsSQL reports whether the configured driver is served by the gorm-backed store.
func (s StoreConfig) IsSQL() bool {
	return s.Driver == DriverSQLite || s.Driver == DriverPostgres
}

func (s *StoreConfig) normalize() error {
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	switch s.Driver {
	case DriverMemory, DriverRedis, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%s must be one of memory, redis, sqlite, postgres; got %q", EnvStoreDriver, s.Driver)
	}
	s.Key = strings.TrimSpace(s.Key)
	if s.Key == "" {
		return fmt.Errorf("%s must not be empty", EnvStoreKey)
	}
	return nil
}

type DBConfig struct {
	DSN        string `envconfig:"CART_DB_DSN"`
	SQLitePath string `envconfig:"CART_SQLITE_PATH" default:"cart.db"`

	LegacyHost     string `envconfig:"CART_DB_HOST"`
	LegacyPort     int    `envconfig:"CART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CART_DB_USER"`
	LegacyPassword string `envconfig:"CART_DB_PASSWORD"`
	LegacyName     string `envconfig:"CART_DB_NAME"`
	LegacySSLMode  string `envconfig:"CART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CART_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"CART_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"CART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CART_REDIS_URL"`
	Address      string        `envconfig:"CART_REDIS_ADDR"`
	Password     string        `envconfig:"CART_REDIS_PASSWORD"`
	DB           int           `envconfig:"CART_REDIS_DB" default:"0"`
	Namespace    string        `envconfig:"CART_REDIS_NAMESPACE" default:"storefront"`
	PoolSize     int           `envconfig:"CART_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"CART_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"CART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CART_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"CART_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CART_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
