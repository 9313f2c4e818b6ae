package repository

import (
	"context"

	"github.com/nimasrn/baki-ledger/internal/model"
	"github.com/nimasrn/baki-ledger/pkg/db"
)

// TransactionRepository only inserts and deletes rows; an existing
// transaction's amounts are never updated.
type TransactionRepository struct {
	*db.DB
}

func NewTransactionRepository(conn *db.DB) *TransactionRepository {
	return &TransactionRepository{
		conn,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(txn)
	entity.ID = 0

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, translate("insert transaction", err, nil)
	}

	created, err := toTransactionModel(entity)
	if err != nil {
		return nil, translate("insert transaction", err, nil)
	}
	return created, nil
}

func (r *TransactionRepository) Get(ctx context.Context, id int64) (*model.Transaction, error) {
	var entity TransactionEntity
	err := r.Read(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		return nil, translate("get transaction", err, transactionNotFound(id))
	}
	txn, err := toTransactionModel(&entity)
	if err != nil {
		return nil, translate("get transaction", err, nil)
	}
	return txn, nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).
		Where("id = ?", id).
		Delete(&TransactionEntity{})
	if result.Error != nil {
		return translate("delete transaction", result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return transactionNotFound(id)
	}
	return nil
}

// DeleteByCustomer removes every transaction owned by the customer and
// reports how many rows went.
func (r *TransactionRepository) DeleteByCustomer(ctx context.Context, customerID int64) (int64, error) {
	result := r.Write(ctx).
		Where("customer_id = ?", customerID).
		Delete(&TransactionEntity{})
	if result.Error != nil {
		return 0, translate("delete customer transactions", result.Error, nil)
	}
	return result.RowsAffected, nil
}

// Reassign moves ownership of all transactions from one customer to another.
// Amounts and credit are left as recorded.
func (r *TransactionRepository) Reassign(ctx context.Context, fromCustomerID, toCustomerID int64) (int64, error) {
	result := r.Write(ctx).
		Model(&TransactionEntity{}).
		Where("customer_id = ?", fromCustomerID).
		Update("customer_id", toCustomerID)
	if result.Error != nil {
		return 0, translate("reassign transactions", result.Error, nil)
	}
	return result.RowsAffected, nil
}

// SumCredit is Σ credit over the customer's transactions, zero when none remain.
func (r *TransactionRepository) SumCredit(ctx context.Context, customerID int64) (int64, error) {
	var total int64
	err := r.Read(ctx).
		Model(&TransactionEntity{}).
		Select("COALESCE(SUM(credit), 0)").
		Where("customer_id = ?", customerID).
		Row().
		Scan(&total)
	if err != nil {
		return 0, translate("sum customer credit", err, nil)
	}
	return total, nil
}
