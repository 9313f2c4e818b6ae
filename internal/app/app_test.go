package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/baki-ledger/internal/config"
	"github.com/nimasrn/baki-ledger/internal/model"
	"github.com/nimasrn/baki-ledger/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64p(v int64) *int64 { return &v }

func memoryConfig() *config.Config {
	return &config.Config{
		AppName:           "baki-test",
		DBDriver:          db.DriverSQLite,
		SQLitePath:        db.MemoryPath,
		RenamePolicy:      "reject",
		RecentWindowHours: 168,
		FeedStream:        "ledger:events",
		ReconcileWorkers:  2,
	}
}

func TestOpen_WithoutRedis(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, memoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Nil(t, a.Guard)
	assert.Nil(t, a.Feed)

	tx, err := a.Ledger.AddTransaction(ctx, model.TransactionCreateRequest{
		CustomerName:   "Asha",
		ItemName:       "rice",
		ItemPrice:      int64p(100),
		AmountPaid:     int64p(40),
		IdempotencyKey: "ignored-without-redis",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(60), tx.Credit)

	report, err := a.Reconciler(2).Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Customers)
	assert.Empty(t, report.Drifts)
}

func TestOpen_WithRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	c := memoryConfig()
	c.RedisAddr = mr.Addr()
	c.RedisUniversalKeyPrefix = "app:"
	c.FeedMaxLen = 10

	a, err := Open(ctx, c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NotNil(t, a.Guard)
	require.NotNil(t, a.Feed)

	req := model.TransactionCreateRequest{
		CustomerName:   "Ravi",
		ItemName:       "sugar",
		ItemPrice:      int64p(50),
		AmountPaid:     int64p(0),
		IdempotencyKey: "form-1",
	}
	first, err := a.Ledger.AddTransaction(ctx, req)
	require.NoError(t, err)
	second, err := a.Ledger.AddTransaction(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	n, err := a.Feed.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOpen_BadPolicy(t *testing.T) {
	c := memoryConfig()
	c.RenamePolicy = "sometimes"
	_, err := Open(context.Background(), c)
	assert.Error(t, err)
}

func TestOpen_UnreachableRedis(t *testing.T) {
	c := memoryConfig()
	c.RedisAddr = "127.0.0.1:1"
	_, err := Open(context.Background(), c)
	assert.Error(t, err)
}
