package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimasrn/baki-ledger/internal/model"
)

type RenamePolicy string

const (
	// RenameReject refuses a rename onto a name owned by another customer.
	RenameReject RenamePolicy = "reject"
	// RenameMerge folds the renamed customer into the one already holding the name.
	RenameMerge RenamePolicy = "merge"
)

func ParseRenamePolicy(s string) (RenamePolicy, error) {
	switch RenamePolicy(s) {
	case RenameReject, "":
		return RenameReject, nil
	case RenameMerge:
		return RenameMerge, nil
	}
	return "", fmt.Errorf("unknown rename policy %q", s)
}

// IdentityService maps free-text names onto exactly one customer per
// canonical name.
type IdentityService struct {
	customerRepo    CustomerRepository
	transactionRepo TransactionRepository
	balances        *BalanceService
	policy          RenamePolicy
}

func NewIdentityService(customerRepo CustomerRepository, transactionRepo TransactionRepository, balances *BalanceService, policy RenamePolicy) *IdentityService {
	if policy == "" {
		policy = RenameReject
	}
	return &IdentityService{
		customerRepo:    customerRepo,
		transactionRepo: transactionRepo,
		balances:        balances,
		policy:          policy,
	}
}

func (s *IdentityService) Policy() RenamePolicy {
	return s.policy
}

// Resolve returns the id of the customer owning the canonical form of raw,
// creating the customer with a zero balance when none exists.
func (s *IdentityService) Resolve(ctx context.Context, raw string) (int64, error) {
	name := model.CanonicalName(raw)
	if name == "" {
		return 0, model.NewValidationError("customer_name", "is required")
	}

	var id int64
	err := s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.customerRepo.FindByName(ctx, name)
		if err == nil {
			id = existing.ID
			return nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return err
		}

		created, err := s.customerRepo.Create(ctx, &model.Customer{Name: name})
		if err != nil {
			return err
		}
		id = created.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Rename gives the customer a new canonical name and returns the customer
// that owns it afterwards. Under RenameMerge that is the other customer when
// the name was taken; the renamed customer no longer exists.
func (s *IdentityService) Rename(ctx context.Context, id int64, raw string) (*model.Customer, error) {
	name := model.CanonicalName(raw)
	if name == "" {
		return nil, model.NewValidationError("name", "is required")
	}

	var survivor *model.Customer
	err := s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.customerRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if current.Name == name {
			survivor = current
			return nil
		}

		holder, err := s.customerRepo.FindByName(ctx, name)
		if errors.Is(err, model.ErrNotFound) {
			if err := s.customerRepo.Rename(ctx, id, name); err != nil {
				return err
			}
			survivor, err = s.customerRepo.Get(ctx, id)
			return err
		}
		if err != nil {
			return err
		}

		if s.policy != RenameMerge {
			return &model.ValidationError{Field: "name", Reason: fmt.Sprintf("%q already belongs to customer %d", name, holder.ID), Err: model.ErrNameTaken}
		}

		// ownership moves, amounts stay as recorded
		if _, err := s.transactionRepo.Reassign(ctx, id, holder.ID); err != nil {
			return err
		}
		if err := s.customerRepo.Delete(ctx, id); err != nil {
			return err
		}
		if _, err := s.balances.Recompute(ctx, holder.ID); err != nil {
			return err
		}
		survivor, err = s.customerRepo.Get(ctx, holder.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return survivor, nil
}
