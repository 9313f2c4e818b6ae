package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nimasrn/baki-ledger/internal/feed"
	"github.com/nimasrn/baki-ledger/internal/idempotency"
	"github.com/nimasrn/baki-ledger/internal/model"
	"github.com/nimasrn/baki-ledger/pkg/logger"
	"github.com/nimasrn/baki-ledger/pkg/prom"
)

type IdempotencyGuard interface {
	Lookup(ctx context.Context, key string) (idempotency.Record, bool, error)
	Acquire(ctx context.Context, key string) error
	Complete(ctx context.Context, key string, rec idempotency.Record) error
	Release(ctx context.Context, key string) error
	Forget(ctx context.Context, key string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, typ feed.EventType, customerID, transactionID int64, data interface{}) (string, error)
}

// LedgerService is the write side of the ledger. Every mutation runs in one
// store transaction together with the balance recompute it requires.
type LedgerService struct {
	customerRepo    CustomerRepository
	transactionRepo TransactionRepository
	identity        *IdentityService
	balances        *BalanceService
	guard           IdempotencyGuard
	events          EventPublisher
	now             func() time.Time
}

// NewLedgerService wires the recorder. guard and events are optional; pass
// nil to run without duplicate-submit protection or a change feed.
func NewLedgerService(customerRepo CustomerRepository, transactionRepo TransactionRepository, identity *IdentityService, balances *BalanceService, guard IdempotencyGuard, events EventPublisher) *LedgerService {
	return &LedgerService{
		customerRepo:    customerRepo,
		transactionRepo: transactionRepo,
		identity:        identity,
		balances:        balances,
		guard:           guard,
		events:          events,
		now:             time.Now,
	}
}

func (s *LedgerService) AddTransaction(ctx context.Context, p model.TransactionCreateRequest) (*model.Transaction, error) {
	start := time.Now()
	txn, err := s.addTransaction(ctx, p)
	prom.ObserveOperation("add_transaction", start, err)
	return txn, err
}

func (s *LedgerService) addTransaction(ctx context.Context, p model.TransactionCreateRequest) (*model.Transaction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(p.IdempotencyKey)
	if key != "" && s.guard != nil {
		existing, err := s.replay(ctx, key)
		if err != nil || existing != nil {
			return existing, err
		}
		if err := s.guard.Acquire(ctx, key); err != nil {
			if errors.Is(err, idempotency.ErrInFlight) {
				return nil, &model.ValidationError{Field: "idempotency_key", Reason: "submission already in progress", Err: model.ErrDuplicateSubmit}
			}
			logger.Warn("idempotency guard unavailable, recording without it", "key", key, "error", err)
			key = ""
		} else {
			// another request may have completed the key between lookup and lock
			existing, err := s.replay(ctx, key)
			if err != nil || existing != nil {
				s.release(ctx, key)
				return existing, err
			}
		}
	} else {
		key = ""
	}

	date := p.Date
	if date.IsZero() {
		date = s.now()
	}
	var note *string
	if n := strings.TrimSpace(p.Note); n != "" {
		note = &n
	}

	var created *model.Transaction
	var total int64
	err := s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		customerID, err := s.identity.Resolve(ctx, p.CustomerName)
		if err != nil {
			return err
		}

		created, err = s.transactionRepo.Create(ctx, &model.Transaction{
			CustomerID: customerID,
			ItemName:   strings.TrimSpace(p.ItemName),
			ItemPrice:  *p.ItemPrice,
			AmountPaid: *p.AmountPaid,
			Credit:     *p.ItemPrice - *p.AmountPaid,
			Note:       note,
			Date:       date,
		})
		if err != nil {
			return err
		}

		total, err = s.balances.Recompute(ctx, customerID)
		return err
	})
	if err != nil {
		if key != "" {
			s.release(ctx, key)
		}
		logger.Error("failed to record transaction", "customer_name", p.CustomerName, "error", err)
		return nil, err
	}

	if key != "" {
		rec := idempotency.Record{TransactionID: created.ID, Fingerprint: fingerprint(created)}
		if err := s.guard.Complete(ctx, key, rec); err != nil {
			logger.Warn("failed to record idempotency key", "key", key, "transaction_id", created.ID, "error", err)
		}
	}
	s.publish(ctx, feed.TransactionAdded, created.CustomerID, created.ID, created)
	logger.Info("transaction recorded",
		"transaction_id", created.ID,
		"customer_id", created.CustomerID,
		"credit", created.Credit,
		"total_credit", total)

	return created, nil
}

// replay returns the transaction an earlier request with the same key
// recorded, or nil when the key is new.
func (s *LedgerService) replay(ctx context.Context, key string) (*model.Transaction, error) {
	rec, found, err := s.guard.Lookup(ctx, key)
	if err != nil {
		logger.Warn("idempotency lookup failed", "key", key, "error", err)
		return nil, nil
	}
	if !found {
		return nil, nil
	}

	existing, err := s.transactionRepo.Get(ctx, rec.TransactionID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	if existing == nil || fingerprint(existing) != rec.Fingerprint {
		// the original was deleted and its id may since belong to another row
		if err := s.guard.Forget(ctx, key); err != nil {
			logger.Warn("failed to forget idempotency key", "key", key, "error", err)
		}
		return nil, nil
	}
	logger.Info("duplicate submission replayed", "key", key, "transaction_id", existing.ID)
	return existing, nil
}

func (s *LedgerService) release(ctx context.Context, key string) {
	if err := s.guard.Release(ctx, key); err != nil {
		logger.Warn("failed to release idempotency key", "key", key, "error", err)
	}
}

// fingerprint identifies a recorded transaction by content. The owner is left
// out because a merge rename moves transactions between customers.
func fingerprint(t *model.Transaction) string {
	return fmt.Sprintf("%d|%d|%d|%s", t.Date.UnixMilli(), t.ItemPrice, t.AmountPaid, t.ItemName)
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	start := time.Now()
	var deleted *model.Transaction
	var total int64
	err := s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.transactionRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.transactionRepo.Delete(ctx, id); err != nil {
			return err
		}
		total, err = s.balances.Recompute(ctx, txn.CustomerID)
		if err != nil {
			return err
		}
		deleted = txn
		return nil
	})
	prom.ObserveOperation("delete_transaction", start, err)
	if err != nil {
		logger.Error("failed to delete transaction", "transaction_id", id, "error", err)
		return err
	}

	s.publish(ctx, feed.TransactionDeleted, deleted.CustomerID, deleted.ID, deleted)
	logger.Info("transaction deleted",
		"transaction_id", id,
		"customer_id", deleted.CustomerID,
		"total_credit", total)
	return nil
}

// RenameCustomer applies the configured collision policy. The returned
// customer is the one that owns the name afterwards.
func (s *LedgerService) RenameCustomer(ctx context.Context, id int64, newName string) (*model.Customer, error) {
	start := time.Now()
	survivor, err := s.identity.Rename(ctx, id, newName)
	prom.ObserveOperation("rename_customer", start, err)
	if err != nil {
		if !errors.Is(err, model.ErrValidation) {
			logger.Error("failed to rename customer", "customer_id", id, "error", err)
		}
		return nil, err
	}

	if survivor.ID != id {
		s.publish(ctx, feed.CustomerMerged, survivor.ID, 0, map[string]interface{}{
			"merged_customer_id": id,
			"name":               survivor.Name,
			"total_credit":       survivor.TotalCredit,
		})
		logger.Info("customer merged", "customer_id", id, "into_customer_id", survivor.ID, "total_credit", survivor.TotalCredit)
		return survivor, nil
	}

	s.publish(ctx, feed.CustomerRenamed, survivor.ID, 0, survivor)
	logger.Info("customer renamed", "customer_id", id, "name", survivor.Name)
	return survivor, nil
}

// DeleteCustomer removes the customer together with all of its
// transactions and reports how many transactions went with it.
func (s *LedgerService) DeleteCustomer(ctx context.Context, id int64) (int64, error) {
	start := time.Now()
	var removed int64
	var customer *model.Customer
	err := s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		customer, err = s.customerRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		removed, err = s.transactionRepo.DeleteByCustomer(ctx, id)
		if err != nil {
			return err
		}
		return s.customerRepo.Delete(ctx, id)
	})
	prom.ObserveOperation("delete_customer", start, err)
	if err != nil {
		logger.Error("failed to delete customer", "customer_id", id, "error", err)
		return 0, err
	}

	s.publish(ctx, feed.CustomerDeleted, id, 0, map[string]interface{}{
		"name":                 customer.Name,
		"removed_transactions": removed,
	})
	logger.Info("customer deleted", "customer_id", id, "removed_transactions", removed)
	return removed, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	return s.transactionRepo.Get(ctx, id)
}

func (s *LedgerService) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	return s.customerRepo.Get(ctx, id)
}

func (s *LedgerService) publish(ctx context.Context, typ feed.EventType, customerID, transactionID int64, data interface{}) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Publish(ctx, typ, customerID, transactionID, data); err != nil {
		logger.Warn("failed to publish ledger event", "type", typ, "customer_id", customerID, "error", err)
	}
}
