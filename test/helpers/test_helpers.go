package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/baki-ledger/pkg/db"
	"github.com/nimasrn/baki-ledger/pkg/logger"
	"github.com/nimasrn/baki-ledger/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// SetupTestDB opens a private in-memory SQLite ledger with the production
// migrations applied. It is closed when the test ends.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	conn, err := db.Open(db.Config{Driver: db.DriverSQLite, SQLitePath: db.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.Migrate(context.Background()))
	return conn
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	t.Helper()

	mr := miniredis.RunT(t)
	adapter, err := redis.NewRedisAdapter(t.Name(), "test:", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	return mr, adapter
}

// InsertCustomer writes a customer row directly, bypassing identity
// resolution and the balance aggregator.
func InsertCustomer(t *testing.T, conn *db.DB, name string, totalCredit int64) int64 {
	t.Helper()

	ctx := context.Background()
	err := conn.Write(ctx).Exec("INSERT INTO customers (name, total_credit) VALUES (?, ?)", name, totalCredit).Error
	require.NoError(t, err)

	var id int64
	require.NoError(t, conn.Read(ctx).Raw("SELECT id FROM customers WHERE name = ?", name).Row().Scan(&id))
	return id
}

// InsertTransaction writes a transaction row directly without touching the
// owner's cached balance.
func InsertTransaction(t *testing.T, conn *db.DB, customerID int64, itemName string, price, paid int64, date time.Time) int64 {
	t.Helper()

	ctx := context.Background()
	err := conn.Write(ctx).Exec(
		"INSERT INTO transactions (customer_id, item_name, item_price, amount_paid, credit, date) VALUES (?, ?, ?, ?, ?, ?)",
		customerID, itemName, price, paid, price-paid, date.UnixMilli(),
	).Error
	require.NoError(t, err)

	var id int64
	require.NoError(t, conn.Read(ctx).Raw("SELECT MAX(id) FROM transactions").Row().Scan(&id))
	return id
}

// Balance reads the cached total_credit of a customer.
func Balance(t *testing.T, conn *db.DB, customerID int64) int64 {
	t.Helper()

	var total int64
	require.NoError(t, conn.Read(context.Background()).Raw("SELECT total_credit FROM customers WHERE id = ?", customerID).Row().Scan(&total))
	return total
}

// ObserveLogs captures package logger entries at level and above until the
// test ends.
func ObserveLogs(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()

	core, logs := observer.New(level)
	t.Cleanup(logger.Replace(zap.New(core)))
	return logs
}
