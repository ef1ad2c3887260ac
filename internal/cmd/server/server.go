// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package server parses kvstore flags, wires the service and runs it.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luxfi/kvcache/api"
	entrypoint "github.com/luxfi/kvcache/internal/platform/cmd"
	"github.com/luxfi/kvcache/keylock"
	"github.com/luxfi/kvcache/metercacher"
	"github.com/luxfi/kvcache/pool"
	"github.com/luxfi/kvcache/service"
	"github.com/luxfi/kvcache/store"
)

const metricsNamespace = "kvstore"

// Config holds kvstore command configuration.
type Config struct {
	Addr     string `env:"KVSTORE_ADDR"      envDefault:":8000"`
	DBDriver string `env:"KVSTORE_DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"KVSTORE_DB_DSN"    envDefault:"kvstore.db"`

	PoolSize           int           `env:"KVSTORE_POOL_SIZE"            envDefault:"20"`
	PoolAcquireTimeout time.Duration `env:"KVSTORE_POOL_ACQUIRE_TIMEOUT" envDefault:"0s"`
	PoolCreateRetries  int           `env:"KVSTORE_POOL_CREATE_RETRIES"  envDefault:"3"`

	CacheCapacity  int `env:"KVSTORE_CACHE_CAPACITY"   envDefault:"1000"`
	Workers        int `env:"KVSTORE_WORKERS"          envDefault:"8"`
	KeyLockStripes int `env:"KVSTORE_KEY_LOCK_STRIPES" envDefault:"256"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "database driver: sqlite or pgx")
	fs.StringVar(&cfg.DBDSN, "db-dsn", cfg.DBDSN, "database DSN (a file path for sqlite)")
	fs.IntVar(&cfg.PoolSize, "pool-size", cfg.PoolSize, "number of pooled database connections")
	fs.DurationVar(&cfg.PoolAcquireTimeout, "pool-acquire-timeout", cfg.PoolAcquireTimeout, "how long a request waits for a free connection; 0 fails immediately")
	fs.IntVar(&cfg.PoolCreateRetries, "pool-create-retries", cfg.PoolCreateRetries, "retries per connection at startup")
	fs.IntVar(&cfg.CacheCapacity, "cache-capacity", cfg.CacheCapacity, "maximum number of cached entries")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "maximum concurrent connections served")
	fs.IntVar(&cfg.KeyLockStripes, "key-lock-stripes", cfg.KeyLockStripes, "number of per-key lock stripes")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	var errs []error
	if c.PoolSize <= 0 {
		errs = append(errs, fmt.Errorf("pool size must be positive, got %d", c.PoolSize))
	}
	if c.PoolAcquireTimeout < 0 {
		errs = append(errs, fmt.Errorf("pool acquire timeout must not be negative, got %s", c.PoolAcquireTimeout))
	}
	if c.PoolCreateRetries < 0 {
		errs = append(errs, fmt.Errorf("pool create retries must not be negative, got %d", c.PoolCreateRetries))
	}
	if c.CacheCapacity <= 0 {
		errs = append(errs, fmt.Errorf("cache capacity must be positive, got %d", c.CacheCapacity))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.KeyLockStripes <= 0 {
		errs = append(errs, fmt.Errorf("key lock stripes must be positive, got %d", c.KeyLockStripes))
	}
	return errors.Join(errs...)
}

// App is a fully wired kvstore process.
type App struct {
	DB       *store.DB
	Pool     *pool.Pool[store.Handle]
	Service  *service.Service
	Server   *api.Server
	Registry *prometheus.Registry
}

// New opens the database, fills the connection pool, ensures the table
// exists and wires the cache, service and HTTP server.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	db, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	handles, err := pool.New[store.Handle](ctx, cfg.PoolSize, db.Handle, closeHandle,
		pool.WithAcquireTimeout(cfg.PoolAcquireTimeout),
		pool.WithCreateRetries(cfg.PoolCreateRetries),
		pool.WithRegisterer(metricsNamespace, reg),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("fill connection pool: %w", err)
	}
	app := &App{DB: db, Pool: handles, Registry: reg}

	cache, err := metercacher.NewLRU[string, string](metricsNamespace+"_cache", reg, cfg.CacheCapacity)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("register cache metrics: %w", err)
	}
	svc, err := service.New(cache, handles,
		service.WithKeyLocker(keylock.New(cfg.KeyLockStripes)),
		service.WithRegisterer(metricsNamespace, reg),
	)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Service = svc

	metrics := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	app.Server = api.NewServer(cfg.Addr, cfg.Workers, api.NewHandler(svc, metrics))

	log.Printf("kvstore ready: driver=%s pool=%d cache=%d acquire_timeout=%s",
		db.Driver(), cfg.PoolSize, cfg.CacheCapacity, cfg.PoolAcquireTimeout)
	return app, nil
}

// Close releases the pool and the database.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Pool != nil {
		errs = append(errs, a.Pool.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

// Run starts the kvstore HTTP API and blocks until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		app, err := New(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				log.Printf("close kvstore: %v", err)
			}
		}()
		return app.Server.ListenAndServe(ctx)
	})
}

func closeHandle(h store.Handle) error {
	return h.Close()
}
