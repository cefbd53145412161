// Package app wires a cart session from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/cartstate/internal/cart"
	"github.com/nikolayk812/cartstate/internal/client"
	"github.com/nikolayk812/cartstate/internal/config"
	"github.com/nikolayk812/cartstate/internal/notify"
	"github.com/nikolayk812/cartstate/internal/port"
	"github.com/nikolayk812/cartstate/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

type App struct {
	Engine  *cart.Engine
	Session *cart.Session

	logger  *zap.Logger
	closers []func() error
}

// New builds the store, the API client and the engine. A nil notifier logs notifications.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, notifier port.Notifier) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cfg.Validate: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewLogger(logger)
	}

	a := &App{logger: logger}
	defer func() {
		if err != nil {
			err = errors.Join(err, a.Close())
		}
	}()

	store, err := a.newStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("a.newStore: %w", err)
	}

	unit, err := currency.ParseISO(cfg.CatalogCurrency)
	if err != nil {
		return nil, fmt.Errorf("currency[%s] is not valid: %w", cfg.CatalogCurrency, err)
	}

	api, err := client.New(cfg.APIBaseURL,
		client.WithTimeout(cfg.APITimeout),
		client.WithCurrency(unit),
	)
	if err != nil {
		return nil, fmt.Errorf("client.New: %w", err)
	}

	policy, err := cart.ParseSnapshotPolicy(cfg.SnapshotPolicy)
	if err != nil {
		return nil, fmt.Errorf("cart.ParseSnapshotPolicy: %w", err)
	}

	a.Engine, err = cart.NewEngine(ctx, api, api, store,
		cart.WithKey(cfg.CartKey),
		cart.WithSnapshotPolicy(policy),
		cart.WithLogger(logger.Named("cart")),
	)
	if err != nil {
		return nil, fmt.Errorf("cart.NewEngine: %w", err)
	}

	a.Session = cart.NewSession(a.Engine, notifier)

	logger.Info("cart session ready",
		zap.String("store", cfg.Store),
		zap.String("api", cfg.APIBaseURL),
	)

	return a, nil
}

func (a *App) newStore(ctx context.Context, cfg config.Config) (port.SnapshotStore, error) {
	switch cfg.Store {
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, rdb.Close)

		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("rdb.Ping: %w", err)
		}

		return repository.NewRedis(rdb, cfg.RedisTTL), nil

	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})

		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("pool.Ping: %w", err)
		}

		return repository.NewCart(pool), nil

	default:
		return repository.NewMemory(), nil
	}
}

// Close releases store connections. The persisted snapshot stays in the store.
func (a *App) Close() error {
	var errs []error

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	return errors.Join(errs...)
}
