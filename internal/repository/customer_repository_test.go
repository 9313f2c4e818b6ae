package repository

import (
	"context"
	"testing"

	"github.com/nimasrn/baki-ledger/internal/model"
	"github.com/nimasrn/baki-ledger/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCustomerRepository_Create(t *testing.T) {
	conn := helpers.SetupTestDB(t)
	repo := NewCustomerRepository(conn)
	ctx := context.Background()

	t.Run("assigns id and zero balance", func(t *testing.T) {
		created, err := repo.Create(ctx, &model.Customer{Name: "asha", TotalCredit: 999})
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "asha", created.Name)
		assert.Equal(t, "Asha", created.DisplayName)
		assert.Equal(t, int64(0), created.TotalCredit)
	})

	t.Run("duplicate name is a storage error", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.Customer{Name: "ravi kumar"})
		require.NoError(t, err)

		_, err = repo.Create(ctx, &model.Customer{Name: "ravi kumar"})
		assert.ErrorIs(t, err, model.ErrStorage)
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})
}

func TestCustomerRepository_Lookup(t *testing.T) {
	conn := helpers.SetupTestDB(t)
	repo := NewCustomerRepository(conn)
	ctx := context.Background()

	id := helpers.InsertCustomer(t, conn, "meena", 120)

	t.Run("get by id", func(t *testing.T) {
		c, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "meena", c.Name)
		assert.Equal(t, int64(120), c.TotalCredit)
	})

	t.Run("get unknown id", func(t *testing.T) {
		_, err := repo.Get(ctx, 999)
		assert.ErrorIs(t, err, model.ErrNotFound)

		var nf *model.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "customer", nf.Entity)
		assert.Equal(t, int64(999), nf.ID)
	})

	t.Run("find by canonical name", func(t *testing.T) {
		c, err := repo.FindByName(ctx, "meena")
		require.NoError(t, err)
		assert.Equal(t, id, c.ID)
	})

	t.Run("find unknown name", func(t *testing.T) {
		_, err := repo.FindByName(ctx, "nobody")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestCustomerRepository_List(t *testing.T) {
	conn := helpers.SetupTestDB(t)
	repo := NewCustomerRepository(conn)
	ctx := context.Background()

	helpers.InsertCustomer(t, conn, "asha", 200)
	helpers.InsertCustomer(t, conn, "ravi kumar", 500)
	helpers.InsertCustomer(t, conn, "gopal", -50)
	helpers.InsertCustomer(t, conn, "100%_pure", 0)

	t.Run("ordered by balance descending", func(t *testing.T) {
		list, err := repo.List(ctx, model.CustomerFilter{})
		require.NoError(t, err)
		require.Len(t, list, 4)
		assert.Equal(t, "ravi kumar", list[0].Name)
		assert.Equal(t, "asha", list[1].Name)
		assert.Equal(t, "100%_pure", list[2].Name)
		assert.Equal(t, "gopal", list[3].Name)
	})

	t.Run("search is case and space insensitive", func(t *testing.T) {
		list, err := repo.List(ctx, model.CustomerFilter{Query: "  RAVI  "})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Ravi Kumar", list[0].DisplayName)
	})

	t.Run("wildcards are matched literally", func(t *testing.T) {
		list, err := repo.List(ctx, model.CustomerFilter{Query: "%_"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "100%_pure", list[0].Name)
	})

	t.Run("limit", func(t *testing.T) {
		list, err := repo.List(ctx, model.CustomerFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("ids", func(t *testing.T) {
		ids, err := repo.ListIDs(ctx)
		require.NoError(t, err)
		assert.Len(t, ids, 4)
	})
}

func TestCustomerRepository_Mutations(t *testing.T) {
	conn := helpers.SetupTestDB(t)
	repo := NewCustomerRepository(conn)
	ctx := context.Background()

	id := helpers.InsertCustomer(t, conn, "asha", 0)
	helpers.InsertCustomer(t, conn, "ravi", 0)

	t.Run("rename", func(t *testing.T) {
		require.NoError(t, repo.Rename(ctx, id, "asha devi"))
		c, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "asha devi", c.Name)
	})

	t.Run("rename onto existing name violates uniqueness", func(t *testing.T) {
		err := repo.Rename(ctx, id, "ravi")
		assert.ErrorIs(t, err, model.ErrStorage)
	})

	t.Run("rename unknown customer", func(t *testing.T) {
		err := repo.Rename(ctx, 999, "x")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("update balance", func(t *testing.T) {
		require.NoError(t, repo.UpdateBalance(ctx, id, -75))
		assert.Equal(t, int64(-75), helpers.Balance(t, conn, id))

		// same value again still matches the row
		require.NoError(t, repo.UpdateBalance(ctx, id, -75))
	})

	t.Run("update balance of unknown customer", func(t *testing.T) {
		assert.ErrorIs(t, repo.UpdateBalance(ctx, 999, 1), model.ErrNotFound)
	})

	t.Run("delete with transactions is rejected by the foreign key", func(t *testing.T) {
		helpers.InsertTransaction(t, conn, id, "rice", 10, 0, fixedTime)
		err := repo.Delete(ctx, id)
		assert.ErrorIs(t, err, model.ErrStorage)

		_, getErr := repo.Get(ctx, id)
		assert.NoError(t, getErr)
	})

	t.Run("delete unknown customer", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, 999), model.ErrNotFound)
	})
}
