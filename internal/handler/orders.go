package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/middleware"
	"github.com/sanaol/canteen/internal/service"
	"github.com/sanaol/canteen/internal/tracking"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (tracking.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) (tracking.Buckets, error)
	GetOrder(ctx context.Context, id uuid.UUID) (tracking.Order, error)
	AdvanceStatus(ctx context.Context, id uuid.UUID, rawStatus string) (tracking.Order, error)
	CancelOrder(ctx context.Context, id, userID uuid.UUID) (tracking.Order, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc    OrderServicer
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, logger: nopIfNil(logger)}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside an authenticated subrouter: /orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(middleware.RequireStaff).Patch("/{id}/status", h.UpdateStatus)
	r.Delete("/{id}", h.Cancel)
}

// --- Request types ---

type placeOrderRequest struct {
	PaymentMethod string                  `json:"payment_method"`
	Notes         string                  `json:"notes"`
	Items         []placeOrderItemRequest `json:"items"`
}

type placeOrderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
	Size       string `json:"size"`
	Customize  string `json:"customize"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]service.PlaceOrderItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = service.PlaceOrderItem{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Size:       it.Size,
			Customize:  it.Customize,
		}
	}

	order, err := h.svc.PlaceOrder(r.Context(), service.PlaceOrderRequest{
		UserID:        claims.UserID,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Items:         items,
	})
	if err != nil {
		respondError(w, h.logger, "place order", err)
		return
	}

	writeJSON(w, http.StatusCreated, tracking.NewView(order))
}

// List handles GET /orders: the caller's orders bucketed by lifecycle.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	buckets, err := h.svc.ListOrders(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, h.logger, "list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

// Get handles GET /orders/{id}. Only the owner and staff may see an order.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	id, ok := pathID(w, r, "id", "order")
	if !ok {
		return
	}

	order, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "get order", err)
		return
	}
	if order.UserID != claims.UserID && !middleware.IsStaff(claims) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, tracking.NewView(order))
}

// UpdateStatus handles PATCH /orders/{id}/status (staff only).
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "order")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	order, err := h.svc.AdvanceStatus(r.Context(), id, req.Status)
	if err != nil {
		respondError(w, h.logger, "update order status", err)
		return
	}
	writeJSON(w, http.StatusOK, tracking.NewView(order))
}

// Cancel handles DELETE /orders/{id}: the owner withdraws a pending order.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	id, ok := pathID(w, r, "id", "order")
	if !ok {
		return
	}

	order, err := h.svc.CancelOrder(r.Context(), id, claims.UserID)
	if err != nil {
		respondError(w, h.logger, "cancel order", err)
		return
	}
	writeJSON(w, http.StatusOK, tracking.NewView(order))
}
