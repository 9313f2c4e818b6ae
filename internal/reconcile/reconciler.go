package reconcile

import (
	"context"
	"sync"

	"github.com/nimasrn/baki-ledger/internal/model"
	"github.com/nimasrn/baki-ledger/pkg/logger"
	"github.com/nimasrn/baki-ledger/pkg/prom"
	"github.com/nimasrn/baki-ledger/pkg/worker"
)

type CustomerLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

type Auditor interface {
	Audit(ctx context.Context) ([]*model.BalanceDrift, error)
}

type BalanceRecomputer interface {
	Recompute(ctx context.Context, customerID int64) (int64, error)
}

type Report struct {
	Customers int
	// Drifts are the balances that disagreed before the run.
	Drifts []*model.BalanceDrift
	// Failed maps customer id to the recompute error.
	Failed map[int64]error
}

// Reconciler rebuilds every cached customer balance from the transaction
// rows. Each customer is recomputed in its own store transaction.
type Reconciler struct {
	customers CustomerLister
	auditor   Auditor
	balances  BalanceRecomputer
	workers   int
}

func NewReconciler(customers CustomerLister, auditor Auditor, balances BalanceRecomputer, workers int) *Reconciler {
	if workers < 1 {
		workers = 1
	}
	return &Reconciler{
		customers: customers,
		auditor:   auditor,
		balances:  balances,
		workers:   workers,
	}
}

// Run audits the ledger and, unless dryRun is set, recomputes every customer.
func (r *Reconciler) Run(ctx context.Context, dryRun bool) (*Report, error) {
	drifts, err := r.auditor.Audit(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := r.customers.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Customers: len(ids),
		Drifts:    drifts,
		Failed:    make(map[int64]error),
	}
	prom.AddReconcileDrifts(len(drifts))
	logger.Info("reconcile audit finished", "customers", len(ids), "drifts", len(drifts))
	if dryRun || len(ids) == 0 {
		return report, nil
	}

	var mu sync.Mutex
	pool := worker.NewWorkerManager(r.workers*2, r.workers)
	pool.SetWorker(func(ctx context.Context, _ int, job interface{}) {
		id := job.(int64)
		if _, err := r.balances.Recompute(ctx, id); err != nil {
			logger.Error("recompute failed", "customer_id", id, "error", err)
			mu.Lock()
			report.Failed[id] = err
			mu.Unlock()
		}
	})
	if err := pool.Start(ctx); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := pool.Enqueue(ctx, id); err != nil {
			pool.Drain()
			return report, err
		}
	}
	pool.Drain()

	logger.Info("reconcile finished", "customers", len(ids), "failed", len(report.Failed))
	return report, nil
}
