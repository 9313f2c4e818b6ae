package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nimasrn/baki-ledger/internal/model"
	xhttp "github.com/nimasrn/baki-ledger/pkg/http"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type LedgerService interface {
	AddTransaction(ctx context.Context, p model.TransactionCreateRequest) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	RenameCustomer(ctx context.Context, id int64, newName string) (*model.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) (int64, error)
	GetTransaction(ctx context.Context, id int64) (*model.Transaction, error)
	GetCustomer(ctx context.Context, id int64) (*model.Customer, error)
}

type LedgerHandler struct {
	svc LedgerService
}

func RegisterLedgerRoutes(g *xhttp.Group, h *LedgerHandler) {
	g.POST("/transactions", h.AddTransaction)
	g.GET("/transactions/{id}", h.GetTransaction)
	g.DELETE("/transactions/{id}", h.DeleteTransaction)
	g.GET("/customers/{id}", h.GetCustomer)
	g.PUT("/customers/{id}", h.RenameCustomer)
	g.DELETE("/customers/{id}", h.DeleteCustomer)
}

func NewLedgerHandler(svc LedgerService) *LedgerHandler {
	return &LedgerHandler{
		svc: svc,
	}
}

// Amounts arrive as JSON numbers or as the text typed into the form.
type addTransactionRequest struct {
	CustomerName string          `json:"customer_name"`
	ItemName     string          `json:"item_name"`
	ItemPrice    json.RawMessage `json:"item_price"`
	AmountPaid   json.RawMessage `json:"amount_paid"`
	DateMs       *int64          `json:"date"`
	Note         string          `json:"note"`
}

type renameCustomerRequest struct {
	Name string `json:"name"`
}

type deleteCustomerResponse struct {
	CustomerID          int64 `json:"customer_id"`
	RemovedTransactions int64 `json:"removed_transactions"`
}

func rawAmount(field string, raw json.RawMessage) (*int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, model.NewValidationError(field, "is required")
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, model.NewValidationError(field, "must be a number")
		}
	}
	return model.ParseAmount(field, text)
}

func (h *LedgerHandler) AddTransaction(ctx *xhttp.RequestCtx) {
	var req addTransactionRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, model.NewValidationError("body", "invalid JSON: "+err.Error()))
		return
	}

	price, err := rawAmount("item_price", req.ItemPrice)
	if err != nil {
		writeError(ctx, err)
		return
	}
	paid, err := rawAmount("amount_paid", req.AmountPaid)
	if err != nil {
		writeError(ctx, err)
		return
	}

	p := model.TransactionCreateRequest{
		CustomerName:   req.CustomerName,
		ItemName:       req.ItemName,
		ItemPrice:      price,
		AmountPaid:     paid,
		Note:           req.Note,
		IdempotencyKey: strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderIdempotencyKey))),
	}
	if req.DateMs != nil {
		p.Date = time.UnixMilli(*req.DateMs)
	}

	txn, err := h.svc.AddTransaction(ctx, p)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, txn)
}

func (h *LedgerHandler) GetTransaction(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	txn, err := h.svc.GetTransaction(ctx, id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, txn)
}

func (h *LedgerHandler) DeleteTransaction(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	if err := h.svc.DeleteTransaction(ctx, id); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

func (h *LedgerHandler) GetCustomer(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	c, err := h.svc.GetCustomer(ctx, id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, c)
}

func (h *LedgerHandler) RenameCustomer(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	var req renameCustomerRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, model.NewValidationError("body", "invalid JSON: "+err.Error()))
		return
	}
	c, err := h.svc.RenameCustomer(ctx, id, req.Name)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, c)
}

func (h *LedgerHandler) DeleteCustomer(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	removed, err := h.svc.DeleteCustomer(ctx, id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, deleteCustomerResponse{CustomerID: id, RemovedTransactions: removed})
}
