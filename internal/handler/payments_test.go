package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/sanaol/canteen/internal/catering"
	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/enum"
	"github.com/sanaol/canteen/internal/gateway"
	"github.com/sanaol/canteen/internal/handler"
	"github.com/sanaol/canteen/internal/middleware"
	"github.com/sanaol/canteen/internal/service"
	"github.com/sanaol/canteen/internal/settlement"
	"github.com/sanaol/canteen/internal/tracking"
)

const gatewaySecret = "gateway-secret"

type mockPaymentOrders struct {
	getFn     func(ctx context.Context, id uuid.UUID) (tracking.Order, error)
	confirmFn func(ctx context.Context, req service.ConfirmOrderPayment) (tracking.Order, error)
}

func (m *mockPaymentOrders) GetOrder(ctx context.Context, id uuid.UUID) (tracking.Order, error) {
	return m.getFn(ctx, id)
}

func (m *mockPaymentOrders) ConfirmPayment(ctx context.Context, req service.ConfirmOrderPayment) (tracking.Order, error) {
	return m.confirmFn(ctx, req)
}

type mockPaymentCatering struct {
	getFn    func(ctx context.Context, id uuid.UUID) (catering.Event, error)
	settleFn func(ctx context.Context, req service.SettleCateringPayment) (catering.Event, error)
}

func (m *mockPaymentCatering) Get(ctx context.Context, id uuid.UUID) (catering.Event, error) {
	return m.getFn(ctx, id)
}

func (m *mockPaymentCatering) SettleRemaining(ctx context.Context, req service.SettleCateringPayment) (catering.Event, error) {
	return m.settleFn(ctx, req)
}

func setupPaymentRouter(orders *mockPaymentOrders, events *mockPaymentCatering) (http.Handler, *gateway.Redirect) {
	gw := gateway.NewRedirect("https://pay.example.com", gatewaySecret)
	h := handler.NewPaymentHandler(orders, events, gw, nil)

	r := chi.NewRouter()
	h.RegisterCallbackRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testSecret))
		r.Route("/payments", h.RegisterRoutes)
	})
	return r, gw
}

func signedConfirmation(gw *gateway.Redirect, target string, id uuid.UUID, amount, method string) gateway.Confirmation {
	ref := uuid.NewString()
	return gateway.Confirmation{
		Reference: ref,
		Target:    target,
		TargetID:  id,
		Amount:    decimal.RequireFromString(amount),
		Method:    method,
		Signature: gw.Sign(ref, target, id, decimal.RequireFromString(amount).StringFixed(2), method),
	}
}

// --- Initiate ---

func TestPaymentInitiate_OrderChargesTotal(t *testing.T) {
	claims := studentClaims()
	order := testOrder(claims.UserID, enum.OrderStatusPending)
	orders := &mockPaymentOrders{
		getFn: func(ctx context.Context, id uuid.UUID) (tracking.Order, error) { return order, nil },
	}
	router, _ := setupPaymentRouter(orders, &mockPaymentCatering{})

	rr := doAuthRequest(t, router, "POST", "/payments/initiate", map[string]string{
		"target": "order", "target_id": order.ID.String(), "method": "gcash",
	}, claims)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["amount"] != "105" || resp["method"] != "GCASH" {
		t.Errorf("initiation: got %v", resp)
	}
	if resp["redirect_url"] == nil || resp["reference"] == nil {
		t.Errorf("expected redirect and reference: %v", resp)
	}
}

func TestPaymentInitiate_CateringChargesRemaining(t *testing.T) {
	claims := facultyClaims()
	ev := testEvent(claims.UserID, "2000.00", "1000.00", settlement.StatusPendingPayment)
	events := &mockPaymentCatering{
		getFn: func(ctx context.Context, id uuid.UUID) (catering.Event, error) { return ev, nil },
	}
	router, _ := setupPaymentRouter(&mockPaymentOrders{}, events)

	rr := doAuthRequest(t, router, "POST", "/payments/initiate", map[string]string{
		"target": "CATERING", "target_id": ev.ID.String(), "method": "MAYA",
	}, claims)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	if resp := decodeResponse(t, rr); resp["amount"] != "1000" {
		t.Errorf("amount: got %v, want remaining balance 1000", resp["amount"])
	}
}

func TestPaymentInitiate_Rejections(t *testing.T) {
	claims := studentClaims()
	paid := testOrder(claims.UserID, enum.OrderStatusReady)
	paid.PaymentStatus = enum.PaymentStatusPaid
	cancelled := testOrder(claims.UserID, enum.OrderStatusCancelled)
	foreign := testOrder(uuid.New(), enum.OrderStatusPending)
	confirmed := testEvent(claims.UserID, "1000", "1000", settlement.StatusConfirmed)

	byID := map[uuid.UUID]tracking.Order{paid.ID: paid, cancelled.ID: cancelled, foreign.ID: foreign}
	orders := &mockPaymentOrders{
		getFn: func(ctx context.Context, id uuid.UUID) (tracking.Order, error) {
			o, ok := byID[id]
			if !ok {
				return tracking.Order{}, service.ErrOrderNotFound
			}
			return o, nil
		},
	}
	events := &mockPaymentCatering{
		getFn: func(ctx context.Context, id uuid.UUID) (catering.Event, error) { return confirmed, nil },
	}
	router, _ := setupPaymentRouter(orders, events)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"already paid", map[string]string{"target": "ORDER", "target_id": paid.ID.String(), "method": "GCASH"}, http.StatusConflict},
		{"cancelled", map[string]string{"target": "ORDER", "target_id": cancelled.ID.String(), "method": "GCASH"}, http.StatusConflict},
		{"not mine", map[string]string{"target": "ORDER", "target_id": foreign.ID.String(), "method": "GCASH"}, http.StatusNotFound},
		{"missing", map[string]string{"target": "ORDER", "target_id": uuid.NewString(), "method": "GCASH"}, http.StatusNotFound},
		{"event settled", map[string]string{"target": "CATERING", "target_id": confirmed.ID.String(), "method": "GCASH"}, http.StatusConflict},
		{"bad target", map[string]string{"target": "TIP", "target_id": uuid.NewString(), "method": "GCASH"}, http.StatusBadRequest},
		{"bad id", map[string]string{"target": "ORDER", "target_id": "x", "method": "GCASH"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doAuthRequest(t, router, "POST", "/payments/initiate", tt.body, claims)
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestPaymentInitiate_UnsupportedMethod(t *testing.T) {
	claims := studentClaims()
	order := testOrder(claims.UserID, enum.OrderStatusPending)
	orders := &mockPaymentOrders{
		getFn: func(ctx context.Context, id uuid.UUID) (tracking.Order, error) { return order, nil },
	}
	router, _ := setupPaymentRouter(orders, &mockPaymentCatering{})

	rr := doAuthRequest(t, router, "POST", "/payments/initiate", map[string]string{
		"target": "ORDER", "target_id": order.ID.String(), "method": "BITCOIN",
	}, claims)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Confirm ---

func TestPaymentConfirm_Order(t *testing.T) {
	orderID := uuid.New()
	var got service.ConfirmOrderPayment
	orders := &mockPaymentOrders{
		confirmFn: func(ctx context.Context, req service.ConfirmOrderPayment) (tracking.Order, error) {
			got = req
			o := testOrder(uuid.New(), enum.OrderStatusPending)
			o.ID = req.OrderID
			o.PaymentStatus = enum.PaymentStatusPaid
			return o, nil
		},
	}
	router, gw := setupPaymentRouter(orders, &mockPaymentCatering{})

	c := signedConfirmation(gw, enum.PaymentTargetOrder, orderID, "105.00", "GCASH")
	rr := postJSON(t, router, "/payments/confirm", c)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	if got.OrderID != orderID || got.Reference != c.Reference || !got.Amount.Equal(dec("105")) {
		t.Errorf("confirm request: got %+v", got)
	}
	if resp := decodeResponse(t, rr); resp["payment_status"] != enum.PaymentStatusPaid {
		t.Errorf("payment_status: got %v", resp["payment_status"])
	}
}

func TestPaymentConfirm_CateringIdempotent(t *testing.T) {
	eventID := uuid.New()
	events := &mockPaymentCatering{
		settleFn: func(ctx context.Context, req service.SettleCateringPayment) (catering.Event, error) {
			ev := testEvent(uuid.New(), "2000", "2000", settlement.StatusConfirmed)
			ev.ID = req.EventID
			return ev, settlement.ErrAlreadySettled
		},
	}
	router, gw := setupPaymentRouter(&mockPaymentOrders{}, events)

	rr := postJSON(t, router, "/payments/confirm", signedConfirmation(gw, enum.PaymentTargetCatering, eventID, "1000.00", "MAYA"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	if resp := decodeResponse(t, rr); resp["message"] != "event is already fully paid" {
		t.Errorf("message: got %v", resp["message"])
	}
}

func TestPaymentConfirm_BadSignature(t *testing.T) {
	orders := &mockPaymentOrders{
		confirmFn: func(ctx context.Context, req service.ConfirmOrderPayment) (tracking.Order, error) {
			t.Fatal("unsigned confirmation must not reach the service")
			return tracking.Order{}, nil
		},
	}
	router, gw := setupPaymentRouter(orders, &mockPaymentCatering{})

	c := signedConfirmation(gw, enum.PaymentTargetOrder, uuid.New(), "105.00", "GCASH")
	c.Amount = dec("1.00")
	rr := postJSON(t, router, "/payments/confirm", c)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestPaymentConfirm_AmountMismatch(t *testing.T) {
	orders := &mockPaymentOrders{
		confirmFn: func(ctx context.Context, req service.ConfirmOrderPayment) (tracking.Order, error) {
			return tracking.Order{}, service.ErrAmountMismatch
		},
	}
	router, gw := setupPaymentRouter(orders, &mockPaymentCatering{})

	rr := postJSON(t, router, "/payments/confirm", signedConfirmation(gw, enum.PaymentTargetOrder, uuid.New(), "50.00", "GCASH"))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- History ---

type mockPaymentHistory struct {
	listFn func(ctx context.Context, arg database.ListPaymentsByTargetParams) ([]database.Payment, error)
}

func (m *mockPaymentHistory) ListPaymentsByTarget(ctx context.Context, arg database.ListPaymentsByTargetParams) ([]database.Payment, error) {
	return m.listFn(ctx, arg)
}

func TestPaymentHistory(t *testing.T) {
	eventID := uuid.New()
	store := &mockPaymentHistory{
		listFn: func(ctx context.Context, arg database.ListPaymentsByTargetParams) ([]database.Payment, error) {
			if arg.Target != enum.PaymentTargetCatering || arg.TargetID != eventID {
				t.Errorf("list params: got %+v", arg)
			}
			return []database.Payment{
				{ID: uuid.New(), Reference: "r1", Target: arg.Target, TargetID: arg.TargetID, Kind: pgtype.Text{String: enum.CateringPaymentKindDown, Valid: true}, Method: "GCASH", Amount: testNumeric("1000")},
				{ID: uuid.New(), Reference: "r2", Target: arg.Target, TargetID: arg.TargetID, Method: "COUNTER", Amount: testNumeric("1000.5")},
			}, nil
		},
	}
	router := authedRouter("/payments", handler.NewPaymentHistoryHandler(store, nil).RegisterRoutes)

	rr := doAuthRequest(t, router, "GET", "/payments/catering/"+eventID.String(), nil, staffClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 2 || resp[0]["amount"] != "1000.00" || resp[1]["amount"] != "1000.50" {
		t.Errorf("payments: got %v", resp)
	}
	if resp[0]["kind"] != enum.CateringPaymentKindDown {
		t.Errorf("kind: got %v", resp[0]["kind"])
	}

	if rr := doAuthRequest(t, router, "GET", "/payments/catering/"+eventID.String(), nil, studentClaims()); rr.Code != http.StatusForbidden {
		t.Errorf("student: got %d, want %d", rr.Code, http.StatusForbidden)
	}
	if rr := doAuthRequest(t, router, "GET", "/payments/tip/"+eventID.String(), nil, staffClaims()); rr.Code != http.StatusBadRequest {
		t.Errorf("bad target: got %d", rr.Code)
	}
}
