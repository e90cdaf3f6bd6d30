package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/repository"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/service"
	"github.com/stocktrace/stocktrace-backend/pkg/actor"
	"github.com/stocktrace/stocktrace-backend/pkg/httputil"
)

// BatchHandler serves batch endpoints
type BatchHandler struct {
	service *service.InventoryService
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(svc *service.InventoryService) *BatchHandler {
	return &BatchHandler{service: svc}
}

// Create handles POST /batches
func (h *BatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateBatchInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.CreateBatch(r.Context(), &input, actor.FromContext(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, result)
}

// Get handles GET /batches/{id}
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	batch, items, err := h.service.GetBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"batch": batch,
		"items": items,
	})
}

// ListItems handles GET /batches/{id}/items
func (h *BatchHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	_, items, err := h.service.GetBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, items)
}

// List handles GET /batches
func (h *BatchHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	batches, total, err := h.service.ListBatches(r.Context(), page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if batches == nil {
		batches = []*repository.Batch{}
	}
	httputil.JSONWithMeta(w, http.StatusOK, batches, listMeta(page, perPage, total))
}

func listMeta(page, perPage, total int) *httputil.Meta {
	totalPages := total / perPage
	if total%perPage != 0 {
		totalPages++
	}
	return &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      int64(total),
		TotalPages: totalPages,
	}
}

func pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
