package services

import (
	"context"

	"github.com/nimasrn/baki-ledger/internal/model"
)

type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) (*model.Customer, error)
	Get(ctx context.Context, id int64) (*model.Customer, error)
	FindByName(ctx context.Context, canonical string) (*model.Customer, error)
	List(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, error)
	ListIDs(ctx context.Context) ([]int64, error)
	Rename(ctx context.Context, id int64, canonical string) error
	UpdateBalance(ctx context.Context, id int64, total int64) error
	Delete(ctx context.Context, id int64) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	Get(ctx context.Context, id int64) (*model.Transaction, error)
	Delete(ctx context.Context, id int64) error
	DeleteByCustomer(ctx context.Context, customerID int64) (int64, error)
	Reassign(ctx context.Context, fromCustomerID, toCustomerID int64) (int64, error)
	SumCredit(ctx context.Context, customerID int64) (int64, error)
}

type ReportRepository interface {
	TotalOutstanding(ctx context.Context) (int64, error)
	TopCustomer(ctx context.Context) (*model.Customer, error)
	OldestOpenCredit(ctx context.Context) (*model.OpenCredit, error)
	MostFrequentCustomer(ctx context.Context) (*model.CustomerFrequency, error)
	ListTransactions(ctx context.Context, f model.TransactionFilter) ([]*model.TransactionView, error)
	Audit(ctx context.Context) ([]*model.BalanceDrift, error)
	WithinReadTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
