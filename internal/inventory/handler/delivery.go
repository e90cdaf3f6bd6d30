package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/repository"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/service"
	"github.com/stocktrace/stocktrace-backend/pkg/actor"
	"github.com/stocktrace/stocktrace-backend/pkg/errors"
	"github.com/stocktrace/stocktrace-backend/pkg/httputil"
)

// DeliveryHandler serves delivery endpoints
type DeliveryHandler struct {
	service *service.InventoryService
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(svc *service.InventoryService) *DeliveryHandler {
	return &DeliveryHandler{service: svc}
}

// Create handles POST /deliveries
func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.DeliverInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.Deliver(r.Context(), &input, actor.FromContext(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, result)
}

// Get handles GET /deliveries/{id}
func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	delivery, err := h.service.GetDelivery(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, delivery)
}

// List handles GET /deliveries
func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	deliveries, total, err := h.service.ListDeliveries(r.Context(), page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if deliveries == nil {
		deliveries = []*repository.Delivery{}
	}
	httputil.JSONWithMeta(w, http.StatusOK, deliveries, listMeta(page, perPage, total))
}

// AvailableItems handles GET /items/available?sku=
func (h *DeliveryHandler) AvailableItems(w http.ResponseWriter, r *http.Request) {
	sku := r.URL.Query().Get("sku")
	if sku == "" {
		httputil.Error(w, errors.Validation(map[string]string{"sku": "is required"}))
		return
	}

	items, err := h.service.GetAvailableItems(r.Context(), sku)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, items)
}
