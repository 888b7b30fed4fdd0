package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/catering"
	"github.com/sanaol/canteen/internal/enum"
	"github.com/sanaol/canteen/internal/middleware"
	"github.com/sanaol/canteen/internal/service"
	"github.com/sanaol/canteen/internal/settlement"
)

// CateringServicer defines the service methods needed by catering handlers.
// Satisfied by *service.CateringService; narrow interface for testability.
type CateringServicer interface {
	Schedule(ctx context.Context, req service.ScheduleCateringRequest) (catering.Event, error)
	List(ctx context.Context, userID uuid.UUID, clientName string) (catering.Buckets, error)
	Get(ctx context.Context, id uuid.UUID) (catering.Event, error)
	SettleRemaining(ctx context.Context, req service.SettleCateringPayment) (catering.Event, error)
	Cancel(ctx context.Context, id, userID uuid.UUID) (catering.Event, error)
}

// CateringHandler handles catering event endpoints.
type CateringHandler struct {
	svc    CateringServicer
	logger *zap.Logger
}

// NewCateringHandler creates a new CateringHandler.
func NewCateringHandler(svc CateringServicer, logger *zap.Logger) *CateringHandler {
	return &CateringHandler{svc: svc, logger: nopIfNil(logger)}
}

// RegisterRoutes registers catering endpoints. Expected to be mounted inside
// an authenticated subrouter: /catering/events
func (h *CateringHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.With(middleware.RequireRole(enum.UserRoleFaculty, enum.UserRoleAdmin)).Post("/", h.Schedule)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/cancel", h.Cancel)
	r.With(middleware.RequireStaff).Post("/{id}/settle", h.Settle)
}

// --- Request / Response types ---

type scheduleRequest struct {
	Name          string              `json:"name"`
	ClientName    string              `json:"client_name"`
	EventDate     string              `json:"event_date"`
	StartTime     string              `json:"start_time"`
	EndTime       string              `json:"end_time"`
	Location      string              `json:"location"`
	GuestCount    int32               `json:"guest_count"`
	ContactName   string              `json:"contact_name"`
	ContactPhone  string              `json:"contact_phone"`
	Notes         string              `json:"notes"`
	MenuItemIDs   []uuid.UUID         `json:"menu_item_ids"`
	Quantities    map[uuid.UUID]int32 `json:"quantities"`
	PaymentMethod string              `json:"payment_method"`
}

type settleRequest struct {
	Reference string          `json:"reference"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
}

type eventResponse struct {
	catering.Event
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

type bucketsResponse struct {
	Upcoming []eventResponse `json:"upcoming"`
	Past     []eventResponse `json:"past"`
}

type settleResponse struct {
	Event   eventResponse `json:"event"`
	Message string        `json:"message"`
}

func toEventResponse(e catering.Event) eventResponse {
	return eventResponse{Event: e, RemainingBalance: e.RemainingBalance()}
}

func toEventResponses(events []catering.Event) []eventResponse {
	out := make([]eventResponse, len(events))
	for i, e := range events {
		out[i] = toEventResponse(e)
	}
	return out
}

// --- Handlers ---

// Schedule handles POST /catering/events (faculty only).
func (h *CateringHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ev, err := h.svc.Schedule(r.Context(), service.ScheduleCateringRequest{
		ScheduleRequest: catering.ScheduleRequest{
			UserID:       claims.UserID,
			Name:         req.Name,
			ClientName:   req.ClientName,
			EventDate:    req.EventDate,
			StartTime:    req.StartTime,
			EndTime:      req.EndTime,
			Location:     req.Location,
			GuestCount:   req.GuestCount,
			ContactName:  req.ContactName,
			ContactPhone: req.ContactPhone,
			Notes:        req.Notes,
			MenuItemIDs:  req.MenuItemIDs,
			Quantities:   req.Quantities,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondError(w, h.logger, "schedule catering", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(ev))
}

// List handles GET /catering/events?client=: the caller's events split into
// upcoming and past.
func (h *CateringHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	b, err := h.svc.List(r.Context(), claims.UserID, r.URL.Query().Get("client"))
	if err != nil {
		respondError(w, h.logger, "list catering events", err)
		return
	}
	writeJSON(w, http.StatusOK, bucketsResponse{
		Upcoming: toEventResponses(b.Upcoming),
		Past:     toEventResponses(b.Past),
	})
}

// Get handles GET /catering/events/{id}. Only the owner and staff may see it.
func (h *CateringHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	id, ok := pathID(w, r, "id", "event")
	if !ok {
		return
	}

	ev, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "get catering event", err)
		return
	}
	if ev.UserID != claims.UserID && !middleware.IsStaff(claims) {
		writeError(w, http.StatusNotFound, "catering event not found")
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(ev))
}

// Settle handles POST /catering/events/{id}/settle: staff record the
// remaining balance paid at the counter. Settling an already settled event
// succeeds and returns its current state.
func (h *CateringHandler) Settle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "event")
	if !ok {
		return
	}

	var req settleRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ev, err := h.svc.SettleRemaining(r.Context(), service.SettleCateringPayment{
		Reference: req.Reference,
		EventID:   id,
		Method:    req.Method,
		Amount:    req.Amount,
	})
	writeSettlement(w, h.logger, ev, err)
}

// writeSettlement reports a settlement attempt. ErrAlreadySettled is an
// idempotent success.
func writeSettlement(w http.ResponseWriter, logger *zap.Logger, ev catering.Event, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, settleResponse{Event: toEventResponse(ev), Message: "payment recorded, event confirmed"})
	case errors.Is(err, settlement.ErrAlreadySettled):
		writeJSON(w, http.StatusOK, settleResponse{Event: toEventResponse(ev), Message: "event is already fully paid"})
	default:
		respondError(w, logger, "settle catering event", err)
	}
}

// Cancel handles POST /catering/events/{id}/cancel.
func (h *CateringHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	id, ok := pathID(w, r, "id", "event")
	if !ok {
		return
	}

	ev, err := h.svc.Cancel(r.Context(), id, claims.UserID)
	if err != nil {
		respondError(w, h.logger, "cancel catering event", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(ev))
}
