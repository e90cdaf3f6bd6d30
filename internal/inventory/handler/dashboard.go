package handler

import (
	"net/http"

	"github.com/stocktrace/stocktrace-backend/internal/inventory/service"
	"github.com/stocktrace/stocktrace-backend/pkg/httputil"
)

// DashboardHandler serves read-only rollup endpoints
type DashboardHandler struct {
	service *service.InventoryService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *service.InventoryService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Summary handles GET /dashboard/summary
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.SummaryBySKU(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, summaries)
}

// Stats handles GET /dashboard/stats
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, stats)
}
