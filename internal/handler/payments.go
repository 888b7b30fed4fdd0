package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/catering"
	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/enum"
	"github.com/sanaol/canteen/internal/gateway"
	"github.com/sanaol/canteen/internal/middleware"
	"github.com/sanaol/canteen/internal/orderstatus"
	"github.com/sanaol/canteen/internal/service"
	"github.com/sanaol/canteen/internal/tracking"
)

// PaymentOrders defines the order operations needed by payment handlers.
type PaymentOrders interface {
	GetOrder(ctx context.Context, id uuid.UUID) (tracking.Order, error)
	ConfirmPayment(ctx context.Context, req service.ConfirmOrderPayment) (tracking.Order, error)
}

// PaymentCatering defines the catering operations needed by payment handlers.
type PaymentCatering interface {
	Get(ctx context.Context, id uuid.UUID) (catering.Event, error)
	SettleRemaining(ctx context.Context, req service.SettleCateringPayment) (catering.Event, error)
}

// PaymentHandler starts gateway payments and receives their confirmations.
type PaymentHandler struct {
	orders   PaymentOrders
	catering PaymentCatering
	gw       gateway.Gateway
	logger   *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(orders PaymentOrders, catering PaymentCatering, gw gateway.Gateway, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{orders: orders, catering: catering, gw: gw, logger: nopIfNil(logger)}
}

// RegisterRoutes registers the authenticated payment endpoints under /payments.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/initiate", h.Initiate)
}

// RegisterCallbackRoutes registers the provider callback. It authenticates
// by signature, not bearer token, so it is mounted outside the auth group.
func (h *PaymentHandler) RegisterCallbackRoutes(r chi.Router) {
	r.Post("/payments/confirm", h.Confirm)
}

type initiateRequest struct {
	Target   string `json:"target"`
	TargetID string `json:"target_id"`
	Method   string `json:"method"`
}

// Initiate handles POST /payments/initiate. The amount is never taken from
// the client: orders are charged their total and catering events their
// remaining balance.
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req initiateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target_id")
		return
	}

	var amount decimal.Decimal
	target := strings.ToUpper(strings.TrimSpace(req.Target))
	switch target {
	case enum.PaymentTargetOrder:
		order, err := h.orders.GetOrder(r.Context(), targetID)
		if err != nil {
			respondError(w, h.logger, "get order for payment", err)
			return
		}
		if order.UserID != claims.UserID {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		if order.PaymentStatus == enum.PaymentStatusPaid {
			writeError(w, http.StatusConflict, "order is already paid")
			return
		}
		if orderstatus.Parse(order.Status) == orderstatus.Cancelled {
			writeError(w, http.StatusConflict, "order is cancelled")
			return
		}
		amount = order.Total()

	case enum.PaymentTargetCatering:
		ev, err := h.catering.Get(r.Context(), targetID)
		if err != nil {
			respondError(w, h.logger, "get event for payment", err)
			return
		}
		if ev.UserID != claims.UserID {
			writeError(w, http.StatusNotFound, "catering event not found")
			return
		}
		if ev.Status != enum.CateringStatusPendingPayment {
			writeError(w, http.StatusConflict, "event has no balance to pay")
			return
		}
		amount = ev.RemainingBalance()

	default:
		writeError(w, http.StatusBadRequest, "target must be ORDER or CATERING")
		return
	}

	started, err := h.gw.Initiate(r.Context(), gateway.Payment{
		Target:   target,
		TargetID: targetID,
		Amount:   amount,
		Method:   req.Method,
	})
	if err != nil {
		respondError(w, h.logger, "initiate payment", err)
		return
	}

	h.logger.Info("payment initiated",
		zap.String("target", target),
		zap.Stringer("target_id", targetID),
		zap.String("reference", started.Reference),
		zap.String("amount", started.Amount.StringFixed(2)),
	)
	writeJSON(w, http.StatusOK, started)
}

// Confirm handles POST /payments/confirm from the payment provider.
// Replayed confirmations are idempotent.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var c gateway.Confirmation
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if c.Reference == "" || c.TargetID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "reference and target_id are required")
		return
	}
	if err := h.gw.Verify(c); err != nil {
		h.logger.Warn("rejected payment confirmation", zap.String("reference", c.Reference), zap.Error(err))
		respondError(w, h.logger, "verify payment", err)
		return
	}

	switch strings.ToUpper(c.Target) {
	case enum.PaymentTargetOrder:
		order, err := h.orders.ConfirmPayment(r.Context(), service.ConfirmOrderPayment{
			Reference: c.Reference,
			OrderID:   c.TargetID,
			Method:    c.Method,
			Amount:    c.Amount,
		})
		if err != nil {
			respondError(w, h.logger, "confirm order payment", err)
			return
		}
		writeJSON(w, http.StatusOK, tracking.NewView(order))

	case enum.PaymentTargetCatering:
		ev, err := h.catering.SettleRemaining(r.Context(), service.SettleCateringPayment{
			Reference: c.Reference,
			EventID:   c.TargetID,
			Method:    c.Method,
			Amount:    c.Amount,
		})
		writeSettlement(w, h.logger, ev, err)

	default:
		writeError(w, http.StatusBadRequest, "target must be ORDER or CATERING")
	}
}

// PaymentHistory reads the recorded payments for an order or event.
type PaymentHistory interface {
	ListPaymentsByTarget(ctx context.Context, arg database.ListPaymentsByTargetParams) ([]database.Payment, error)
}

// PaymentHistoryHandler lets staff audit the payments behind an order or event.
type PaymentHistoryHandler struct {
	store  PaymentHistory
	logger *zap.Logger
}

// NewPaymentHistoryHandler creates a new PaymentHistoryHandler.
func NewPaymentHistoryHandler(store PaymentHistory, logger *zap.Logger) *PaymentHistoryHandler {
	return &PaymentHistoryHandler{store: store, logger: nopIfNil(logger)}
}

// RegisterRoutes registers GET /{target}/{id} under /payments for staff.
func (h *PaymentHistoryHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireStaff).Get("/{target}/{id}", h.List)
}

type paymentResponse struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Target    string `json:"target"`
	TargetID  string `json:"target_id"`
	Kind      string `json:"kind,omitempty"`
	Method    string `json:"method"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"created_at"`
}

func toPaymentResponse(p database.Payment) paymentResponse {
	return paymentResponse{
		ID:        p.ID.String(),
		Reference: p.Reference,
		Target:    p.Target,
		TargetID:  p.TargetID.String(),
		Kind:      p.Kind.String,
		Method:    p.Method,
		Amount:    numericToString(p.Amount),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

// numericToString converts pgtype.Numeric to string with 2 decimal places.
func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

// List handles GET /payments/{target}/{id}, oldest first.
func (h *PaymentHistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	target := strings.ToUpper(chi.URLParam(r, "target"))
	if target != enum.PaymentTargetOrder && target != enum.PaymentTargetCatering {
		writeError(w, http.StatusBadRequest, "target must be ORDER or CATERING")
		return
	}
	id, ok := pathID(w, r, "id", "target")
	if !ok {
		return
	}

	payments, err := h.store.ListPaymentsByTarget(r.Context(), database.ListPaymentsByTargetParams{
		Target:   target,
		TargetID: id,
	})
	if err != nil {
		respondError(w, h.logger, "list payments", err)
		return
	}

	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toPaymentResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}
