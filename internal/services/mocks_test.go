package services

import (
	"context"

	"github.com/nimasrn/baki-ledger/internal/feed"
	"github.com/nimasrn/baki-ledger/internal/idempotency"
	"github.com/nimasrn/baki-ledger/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Get(ctx context.Context, id int64) (*model.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByName(ctx context.Context, canonical string) (*model.Customer, error) {
	args := m.Called(ctx, canonical)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockCustomerRepository) Rename(ctx context.Context, id int64, canonical string) error {
	return m.Called(ctx, id, canonical).Error(0)
}

func (m *MockCustomerRepository) UpdateBalance(ctx context.Context, id int64, total int64) error {
	return m.Called(ctx, id, total).Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// WithinTransaction runs fn directly; an error configured on the mock
// short-circuits as if the transaction could not begin.
func (m *MockCustomerRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Get(ctx context.Context, id int64) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTransactionRepository) DeleteByCustomer(ctx context.Context, customerID int64) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) Reassign(ctx context.Context, fromCustomerID, toCustomerID int64) (int64, error) {
	args := m.Called(ctx, fromCustomerID, toCustomerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) SumCredit(ctx context.Context, customerID int64) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) Lookup(ctx context.Context, key string) (idempotency.Record, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(idempotency.Record), args.Bool(1), args.Error(2)
}

func (m *MockGuard) Acquire(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockGuard) Complete(ctx context.Context, key string, rec idempotency.Record) error {
	return m.Called(ctx, key, rec).Error(0)
}

func (m *MockGuard) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockGuard) Forget(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, typ feed.EventType, customerID, transactionID int64, data interface{}) (string, error) {
	args := m.Called(ctx, typ, customerID, transactionID, data)
	return args.String(0), args.Error(1)
}
