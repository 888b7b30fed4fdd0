package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/middleware"
	"github.com/sanaol/canteen/internal/service"
)

// CartServicer defines the service methods needed by cart handlers.
// Satisfied by *service.CartService.
type CartServicer interface {
	Get(ctx context.Context, userID uuid.UUID) (service.Cart, error)
	Replace(ctx context.Context, userID uuid.UUID, items []service.CartItem) (service.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// CartHandler handles the caller's server-side cart.
type CartHandler struct {
	svc    CartServicer
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(svc CartServicer, logger *zap.Logger) *CartHandler {
	return &CartHandler{svc: svc, logger: nopIfNil(logger)}
}

// RegisterRoutes registers cart endpoints under /cart.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Replace)
	r.Delete("/", h.Clear)
}

// Get handles GET /cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	cart, err := h.svc.Get(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, h.logger, "get cart", err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// Replace handles PUT /cart with the full list of lines.
func (h *CartHandler) Replace(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req service.Cart
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.svc.Replace(r.Context(), claims.UserID, req.Items)
	if err != nil {
		respondError(w, h.logger, "replace cart", err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// Clear handles DELETE /cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.svc.Clear(r.Context(), claims.UserID); err != nil {
		respondError(w, h.logger, "clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
