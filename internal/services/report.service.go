package services

import (
	"context"
	"time"

	"github.com/nimasrn/baki-ledger/internal/model"
	"github.com/nimasrn/baki-ledger/pkg/prom"
)

const DefaultRecentWindow = 7 * 24 * time.Hour

// ReportService serves the read-only projections. Nothing here writes.
type ReportService struct {
	reportRepo   ReportRepository
	customerRepo CustomerRepository
	recentWindow time.Duration
	now          func() time.Time
}

func NewReportService(reportRepo ReportRepository, customerRepo CustomerRepository, recentWindow time.Duration) *ReportService {
	if recentWindow <= 0 {
		recentWindow = DefaultRecentWindow
	}
	return &ReportService{
		reportRepo:   reportRepo,
		customerRepo: customerRepo,
		recentWindow: recentWindow,
		now:          time.Now,
	}
}

// Dashboard reads all four figures from one snapshot.
func (s *ReportService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{}
	err := s.reportRepo.WithinReadTransaction(ctx, func(ctx context.Context) error {
		var err error
		if stats.TotalOutstanding, err = s.reportRepo.TotalOutstanding(ctx); err != nil {
			return err
		}
		if stats.TopCustomer, err = s.reportRepo.TopCustomer(ctx); err != nil {
			return err
		}
		if stats.OldestOpenCredit, err = s.reportRepo.OldestOpenCredit(ctx); err != nil {
			return err
		}
		stats.MostFrequentCustomer, err = s.reportRepo.MostFrequentCustomer(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	prom.SetOutstandingCredit(stats.TotalOutstanding)
	return stats, nil
}

// ListCustomersByBalanceDesc lists customers, highest balance first. A
// non-empty query keeps only names containing it.
func (s *ReportService) ListCustomersByBalanceDesc(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, error) {
	return s.customerRepo.List(ctx, f)
}

func (s *ReportService) ListTransactions(ctx context.Context, f model.TransactionFilter) ([]*model.TransactionView, error) {
	return s.reportRepo.ListTransactions(ctx, f)
}

// ListRecentTransactions returns transactions dated after now-window. A
// non-positive window uses the configured default.
func (s *ReportService) ListRecentTransactions(ctx context.Context, window time.Duration) ([]*model.TransactionView, error) {
	if window <= 0 {
		window = s.recentWindow
	}
	since := s.now().Add(-window)
	return s.reportRepo.ListTransactions(ctx, model.TransactionFilter{Since: &since})
}

// CustomerLedger is the customer's own transactions, newest first.
func (s *ReportService) CustomerLedger(ctx context.Context, customerID int64) ([]*model.TransactionView, error) {
	var views []*model.TransactionView
	err := s.reportRepo.WithinReadTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.customerRepo.Get(ctx, customerID); err != nil {
			return err
		}
		var err error
		views, err = s.reportRepo.ListTransactions(ctx, model.TransactionFilter{CustomerID: &customerID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// Audit lists customers whose cached balance disagrees with their transactions.
func (s *ReportService) Audit(ctx context.Context) ([]*model.BalanceDrift, error) {
	return s.reportRepo.Audit(ctx)
}
