package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/nimasrn/baki-ledger/internal/model"
	xhttp "github.com/nimasrn/baki-ledger/pkg/http"
	"github.com/nimasrn/baki-ledger/pkg/logger"
)

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items)}
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to encode response", "error", err)
		ctx.Error(xhttp.StatusText(xhttp.StatusInternalServerError), xhttp.StatusInternalServerError)
		return
	}
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

// writeError maps the ledger error taxonomy onto HTTP status codes.
func writeError(ctx *xhttp.RequestCtx, err error) {
	resp := errorResponse{Error: err.Error(), RequestID: xhttp.RequestID(ctx)}
	status := xhttp.StatusInternalServerError

	var vErr *model.ValidationError
	switch {
	case errors.Is(err, model.ErrNameTaken), errors.Is(err, model.ErrDuplicateSubmit):
		status, resp.Kind = xhttp.StatusConflict, "conflict"
	case errors.Is(err, model.ErrValidation):
		status, resp.Kind = xhttp.StatusBadRequest, "validation"
	case errors.Is(err, model.ErrNotFound):
		status, resp.Kind = xhttp.StatusNotFound, "not_found"
	default:
		resp.Kind = "storage"
		logger.Error("request failed", "path", string(ctx.Path()), "error", err, "request_id", resp.RequestID)
	}
	if errors.As(err, &vErr) {
		resp.Field = vErr.Field
	}
	writeJSON(ctx, status, resp)
}

func pathID(ctx *xhttp.RequestCtx, name string) (int64, error) {
	raw, _ := ctx.UserValue(name).(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return strings.TrimSpace(string(ctx.QueryArgs().Peek(key)))
}

func queryInt(ctx *xhttp.RequestCtx, key string) (int, error) {
	v := query(ctx, key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, model.NewValidationError(key, "must be a non-negative integer")
	}
	return n, nil
}
