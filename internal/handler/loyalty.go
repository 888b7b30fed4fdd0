package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/loyalty"
	"github.com/sanaol/canteen/internal/middleware"
)

// LoyaltyServicer defines the service methods needed by loyalty handlers.
type LoyaltyServicer interface {
	Points(ctx context.Context, userID uuid.UUID) (int32, error)
	Offers(ctx context.Context) ([]loyalty.Offer, error)
	Redeem(ctx context.Context, userID, offerID uuid.UUID) (loyalty.Redemption, error)
}

// CartClearer empties a user's cart. Satisfied by *service.CartService.
type CartClearer interface {
	Clear(ctx context.Context, userID uuid.UUID) error
}

// LoyaltyHandler handles credit point endpoints.
type LoyaltyHandler struct {
	svc    LoyaltyServicer
	cart   CartClearer
	logger *zap.Logger
}

// NewLoyaltyHandler creates a new LoyaltyHandler.
func NewLoyaltyHandler(svc LoyaltyServicer, cart CartClearer, logger *zap.Logger) *LoyaltyHandler {
	return &LoyaltyHandler{svc: svc, cart: cart, logger: nopIfNil(logger)}
}

// RegisterRoutes registers loyalty endpoints. Expected to be mounted inside
// an authenticated subrouter: /loyalty
func (h *LoyaltyHandler) RegisterRoutes(r chi.Router) {
	r.Get("/points", h.Points)
	r.Get("/offers", h.Offers)
	r.Post("/redeem", h.Redeem)
}

type redeemRequest struct {
	OfferID string `json:"offer_id"`
}

type redeemRejection struct {
	Error           string `json:"error"`
	RemainingPoints int32  `json:"remaining_points"`
}

// Points handles GET /loyalty/points.
func (h *LoyaltyHandler) Points(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	pts, err := h.svc.Points(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, h.logger, "get points", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int32{"points": pts})
}

// Offers handles GET /loyalty/offers.
func (h *LoyaltyHandler) Offers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.svc.Offers(r.Context())
	if err != nil {
		respondError(w, h.logger, "list offers", err)
		return
	}
	writeJSON(w, http.StatusOK, offers)
}

// Redeem handles POST /loyalty/redeem. A successful redemption also clears
// the caller's cart; a failure to clear it is logged, not reported.
func (h *LoyaltyHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req redeemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	offerID, err := uuid.Parse(req.OfferID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid offer_id")
		return
	}

	result, err := h.svc.Redeem(r.Context(), claims.UserID, offerID)
	if err != nil {
		if errors.Is(err, loyalty.ErrInsufficientPoints) {
			writeJSON(w, http.StatusConflict, redeemRejection{
				Error:           err.Error(),
				RemainingPoints: result.RemainingPoints,
			})
			return
		}
		respondError(w, h.logger, "redeem offer", err)
		return
	}

	if err := h.cart.Clear(r.Context(), claims.UserID); err != nil {
		h.logger.Warn("clear cart after redeem", zap.Stringer("user_id", claims.UserID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, result)
}
