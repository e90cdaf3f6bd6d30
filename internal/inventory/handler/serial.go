package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/service"
	"github.com/stocktrace/stocktrace-backend/pkg/actor"
	"github.com/stocktrace/stocktrace-backend/pkg/httputil"
)

// SerialHandler serves serial number endpoints
type SerialHandler struct {
	service *service.InventoryService
}

// NewSerialHandler creates a new serial handler
func NewSerialHandler(svc *service.InventoryService) *SerialHandler {
	return &SerialHandler{service: svc}
}

// Assign handles POST /items/{id}/serial
func (h *SerialHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var input service.AssignSerialInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	itemID := chi.URLParam(r, "id")
	if err := h.service.AssignSerialNumber(r.Context(), itemID, &input, actor.FromContext(r.Context())); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// BulkAssign handles POST /batches/{id}/serials/bulk
func (h *SerialHandler) BulkAssign(w http.ResponseWriter, r *http.Request) {
	var input service.BulkAssignInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	batchID := chi.URLParam(r, "id")
	result, err := h.service.BulkAssign(r.Context(), batchID, &input, actor.FromContext(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}

// GetBulkOperation handles GET /bulk-operations/{id}
func (h *SerialHandler) GetBulkOperation(w http.ResponseWriter, r *http.Request) {
	op, err := h.service.GetBulkOperation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, op)
}

// Validate handles GET /serials/{serial}
func (h *SerialHandler) Validate(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ValidateSerialNumber(r.Context(), chi.URLParam(r, "serial"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}

// History handles GET /serials/{serial}/history
func (h *SerialHandler) History(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.GetSerialHistory(r.Context(), chi.URLParam(r, "serial"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, events)
}
