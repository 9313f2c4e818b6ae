package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/nimasrn/baki-ledger/internal/model"
	xhttp "github.com/nimasrn/baki-ledger/pkg/http"
)

type ReportService interface {
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
	ListCustomersByBalanceDesc(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, error)
	ListTransactions(ctx context.Context, f model.TransactionFilter) ([]*model.TransactionView, error)
	ListRecentTransactions(ctx context.Context, window time.Duration) ([]*model.TransactionView, error)
	CustomerLedger(ctx context.Context, customerID int64) ([]*model.TransactionView, error)
}

type ReportHandler struct {
	svc ReportService
}

func RegisterReportRoutes(g *xhttp.Group, h *ReportHandler) {
	g.GET("/dashboard", h.Dashboard)
	g.GET("/customers", h.ListCustomers)
	g.GET("/customers/{id}/transactions", h.CustomerLedger)
	g.GET("/transactions", h.ListTransactions)
	g.GET("/recent-transactions", h.ListRecentTransactions)
}

func NewReportHandler(svc ReportService) *ReportHandler {
	return &ReportHandler{
		svc: svc,
	}
}

func (h *ReportHandler) Dashboard(ctx *xhttp.RequestCtx) {
	stats, err := h.svc.Dashboard(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, stats)
}

func (h *ReportHandler) ListCustomers(ctx *xhttp.RequestCtx) {
	f := model.CustomerFilter{Query: query(ctx, "q")}
	var err error
	if f.Limit, err = queryInt(ctx, "limit"); err != nil {
		writeError(ctx, err)
		return
	}
	if f.Offset, err = queryInt(ctx, "offset"); err != nil {
		writeError(ctx, err)
		return
	}

	customers, err := h.svc.ListCustomersByBalanceDesc(ctx, f)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, newList(customers))
}

func (h *ReportHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	var f model.TransactionFilter
	var err error
	if f.Limit, err = queryInt(ctx, "limit"); err != nil {
		writeError(ctx, err)
		return
	}
	if f.Offset, err = queryInt(ctx, "offset"); err != nil {
		writeError(ctx, err)
		return
	}

	views, err := h.svc.ListTransactions(ctx, f)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, newList(views))
}

// ListRecentTransactions takes the window in milliseconds; omitted or zero
// means the configured default.
func (h *ReportHandler) ListRecentTransactions(ctx *xhttp.RequestCtx) {
	var window time.Duration
	if v := query(ctx, "window_ms"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil || ms < 0 {
			writeError(ctx, model.NewValidationError("window_ms", "must be a non-negative integer"))
			return
		}
		window = time.Duration(ms) * time.Millisecond
	}

	views, err := h.svc.ListRecentTransactions(ctx, window)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, newList(views))
}

func (h *ReportHandler) CustomerLedger(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	views, err := h.svc.CustomerLedger(ctx, id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, newList(views))
}
