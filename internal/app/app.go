package app

import (
	"context"

	"github.com/nimasrn/baki-ledger/internal/config"
	"github.com/nimasrn/baki-ledger/internal/feed"
	"github.com/nimasrn/baki-ledger/internal/idempotency"
	"github.com/nimasrn/baki-ledger/internal/reconcile"
	"github.com/nimasrn/baki-ledger/internal/repository"
	"github.com/nimasrn/baki-ledger/internal/services"
	"github.com/nimasrn/baki-ledger/pkg/db"
	"github.com/nimasrn/baki-ledger/pkg/logger"
	"github.com/nimasrn/baki-ledger/pkg/redis"
	"github.com/pkg/errors"
)

// App is the wired ledger shared by the binaries.
type App struct {
	DB    *db.DB
	Redis redis.RedisAdapter

	Customers    *repository.CustomerRepository
	Transactions *repository.TransactionRepository
	Reports      *repository.ReportRepository

	Balances *services.BalanceService
	Identity *services.IdentityService
	Ledger   *services.LedgerService
	Report   *services.ReportService

	Guard *idempotency.Guard
	Feed  *feed.Feed
}

// Open connects the store, applies migrations and builds the services. Redis
// is optional: without REDIS_ADDR the ledger runs with no idempotency guard
// and no change feed.
func Open(ctx context.Context, c *config.Config) (*App, error) {
	policy, err := services.ParseRenamePolicy(c.RenamePolicy)
	if err != nil {
		return nil, err
	}

	store, err := db.Open(c.DBConfig())
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "migrate store")
	}

	a := &App{DB: store}
	a.Customers = repository.NewCustomerRepository(store)
	a.Transactions = repository.NewTransactionRepository(store)
	a.Reports = repository.NewReportRepository(store)

	if c.RedisAddr != "" {
		adapter, err := redis.NewRedisAdapter("default", c.RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{c.RedisAddr},
			ClientName: c.AppName,
			DB:         c.RedisDatabase,
			Username:   c.RedisUsername,
			Password:   c.RedisPassword,
		})
		if err != nil {
			_ = store.Close()
			return nil, errors.Wrap(err, "connect redis")
		}
		a.Redis = adapter

		idem := idempotency.DefaultConfig()
		if ttl := c.IdempotencyTTL(); ttl > 0 {
			idem.DoneTTL = ttl
		}
		a.Guard = idempotency.NewGuard(adapter, idem)

		a.Feed, err = feed.New(adapter, feed.Config{Stream: c.FeedStream, MaxLen: c.FeedMaxLen})
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	} else {
		logger.Warn("REDIS_ADDR is empty, running without idempotency guard and change feed")
	}

	a.Balances = services.NewBalanceService(a.Customers, a.Transactions)
	a.Identity = services.NewIdentityService(a.Customers, a.Transactions, a.Balances, policy)
	a.Ledger = services.NewLedgerService(a.Customers, a.Transactions, a.Identity, a.Balances, a.guard(), a.events())
	a.Report = services.NewReportService(a.Reports, a.Customers, c.RecentWindow())
	return a, nil
}

// guard and events hand the services an untyped nil when redis is off, so
// their nil checks hold.
func (a *App) guard() services.IdempotencyGuard {
	if a.Guard == nil {
		return nil
	}
	return a.Guard
}

func (a *App) events() services.EventPublisher {
	if a.Feed == nil {
		return nil
	}
	return a.Feed
}

func (a *App) Reconciler(workers int) *reconcile.Reconciler {
	return reconcile.NewReconciler(a.Customers, a.Report, a.Balances, workers)
}

func (a *App) Close() error {
	var firstErr error
	if a.Redis != nil {
		firstErr = a.Redis.Close()
	}
	if err := a.DB.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
