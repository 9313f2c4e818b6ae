package services

import (
	"context"
)

// BalanceService keeps customers.total_credit equal to the sum of the
// customer's transaction credits.
type BalanceService struct {
	customerRepo    CustomerRepository
	transactionRepo TransactionRepository
}

func NewBalanceService(customerRepo CustomerRepository, transactionRepo TransactionRepository) *BalanceService {
	return &BalanceService{
		customerRepo:    customerRepo,
		transactionRepo: transactionRepo,
	}
}

// Recompute sums the customer's credits and stores the result. It joins the
// caller's transaction when there is one, so the write it guards and the new
// balance commit together.
func (s *BalanceService) Recompute(ctx context.Context, customerID int64) (int64, error) {
	var total int64
	err := s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		sum, err := s.transactionRepo.SumCredit(ctx, customerID)
		if err != nil {
			return err
		}
		if err := s.customerRepo.UpdateBalance(ctx, customerID, sum); err != nil {
			return err
		}
		total = sum
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
