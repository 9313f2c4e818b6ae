package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/baki-ledger/internal/model"
	"github.com/nimasrn/baki-ledger/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRepository_EmptyLedger(t *testing.T) {
	conn := helpers.SetupTestDB(t)
	repo := NewReportRepository(conn)
	ctx := context.Background()

	total, err := repo.TotalOutstanding(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	top, err := repo.TopCustomer(ctx)
	require.NoError(t, err)
	assert.Nil(t, top)

	oldest, err := repo.OldestOpenCredit(ctx)
	require.NoError(t, err)
	assert.Nil(t, oldest)

	frequent, err := repo.MostFrequentCustomer(ctx)
	require.NoError(t, err)
	assert.Nil(t, frequent)

	list, err := repo.ListTransactions(ctx, model.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	drifts, err := repo.Audit(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestReportRepository_Projections(t *testing.T) {
	conn := helpers.SetupTestDB(t)
	repo := NewReportRepository(conn)
	ctx := context.Background()

	asha := helpers.InsertCustomer(t, conn, "asha", 200)
	ravi := helpers.InsertCustomer(t, conn, "ravi", 340)
	helpers.InsertCustomer(t, conn, "gopal", 0)

	day := 24 * time.Hour
	// settled in full: not an open credit even though it is the oldest
	helpers.InsertTransaction(t, conn, asha, "oil", 200, 200, fixedTime.Add(-10*day))
	oldestOpen := helpers.InsertTransaction(t, conn, ravi, "flour", 300, 0, fixedTime.Add(-5*day))
	helpers.InsertTransaction(t, conn, asha, "rice", 500, 300, fixedTime.Add(-1*day))
	helpers.InsertTransaction(t, conn, asha, "soap", 40, 40, fixedTime)
	helpers.InsertTransaction(t, conn, ravi, "tea", 40, 0, fixedTime)

	t.Run("total outstanding", func(t *testing.T) {
		total, err := repo.TotalOutstanding(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(540), total)
	})

	t.Run("top customer", func(t *testing.T) {
		top, err := repo.TopCustomer(ctx)
		require.NoError(t, err)
		require.NotNil(t, top)
		assert.Equal(t, ravi, top.ID)
		assert.Equal(t, int64(340), top.TotalCredit)
	})

	t.Run("oldest open credit skips settled transactions", func(t *testing.T) {
		oldest, err := repo.OldestOpenCredit(ctx)
		require.NoError(t, err)
		require.NotNil(t, oldest)
		assert.Equal(t, oldestOpen, oldest.TransactionID)
		assert.Equal(t, "ravi", oldest.CustomerName)
		assert.Equal(t, int64(300), oldest.Credit)
		assert.True(t, fixedTime.Add(-5*day).Equal(oldest.Date))
	})

	t.Run("most frequent customer", func(t *testing.T) {
		frequent, err := repo.MostFrequentCustomer(ctx)
		require.NoError(t, err)
		require.NotNil(t, frequent)
		assert.Equal(t, asha, frequent.CustomerID)
		assert.Equal(t, int64(3), frequent.Count)
	})

	t.Run("all transactions newest first", func(t *testing.T) {
		list, err := repo.ListTransactions(ctx, model.TransactionFilter{})
		require.NoError(t, err)
		require.Len(t, list, 5)
		for i := 1; i < len(list); i++ {
			assert.False(t, list[i].Date.After(list[i-1].Date))
		}
		assert.Equal(t, "oil", list[4].ItemName)
		assert.Equal(t, "Asha", list[4].CustomerDisplayName)
	})

	t.Run("since is exclusive", func(t *testing.T) {
		since := fixedTime.Add(-1 * day)
		list, err := repo.ListTransactions(ctx, model.TransactionFilter{Since: &since})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("per customer", func(t *testing.T) {
		list, err := repo.ListTransactions(ctx, model.TransactionFilter{CustomerID: &ravi})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "tea", list[0].ItemName)
		assert.Equal(t, "flour", list[1].ItemName)
	})

	t.Run("audit finds drifted balances", func(t *testing.T) {
		drifts, err := repo.Audit(ctx)
		require.NoError(t, err)
		require.Len(t, drifts, 0)

		require.NoError(t, conn.Write(ctx).Exec("UPDATE customers SET total_credit = 1 WHERE id = ?", asha).Error)
		drifts, err = repo.Audit(ctx)
		require.NoError(t, err)
		require.Len(t, drifts, 1)
		assert.Equal(t, asha, drifts[0].CustomerID)
		assert.Equal(t, int64(1), drifts[0].Cached)
		assert.Equal(t, int64(200), drifts[0].Actual)
	})
}
