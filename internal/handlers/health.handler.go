package handlers

import (
	"context"

	xhttp "github.com/nimasrn/baki-ledger/pkg/http"
	"github.com/nimasrn/baki-ledger/pkg/logger"
)

type HealthService interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store HealthService
}

func RegisterHealthRoutes(g *xhttp.Group, h *HealthHandler) {
	g.GET("/health", h.GetHealth)
}

func NewHealthHandler(store HealthService) *HealthHandler {
	return &HealthHandler{
		store: store,
	}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	if err := h.store.Ping(ctx); err != nil {
		logger.Error("health check failed", "error", err)
		writeJSON(ctx, xhttp.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]string{"status": "ok"})
}
