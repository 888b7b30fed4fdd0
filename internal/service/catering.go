package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/catering"
	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/enum"
	"github.com/sanaol/canteen/internal/settlement"
	"github.com/sanaol/canteen/internal/ws"
)

// ErrEventNotFound is returned for unknown events and for events owned by
// another user.
var ErrEventNotFound = errors.New("catering event not found")

// CateringStore defines the DB methods needed by the catering service.
type CateringStore interface {
	GetMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.MenuItem, error)
	CreateCateringEvent(ctx context.Context, arg database.CreateCateringEventParams) (database.CateringEvent, error)
	CreateCateringEventItem(ctx context.Context, arg database.CreateCateringEventItemParams) (database.CateringEventItem, error)
	GetCateringEvent(ctx context.Context, id uuid.UUID) (database.CateringEvent, error)
	GetCateringEventForUpdate(ctx context.Context, id uuid.UUID) (database.CateringEvent, error)
	ListCateringEventsByUser(ctx context.Context, userID uuid.UUID) ([]database.CateringEvent, error)
	ListCateringEventItems(ctx context.Context, eventIds []uuid.UUID) ([]database.CateringEventItem, error)
	UpdateCateringLedger(ctx context.Context, arg database.UpdateCateringLedgerParams) (database.CateringEvent, error)
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	GetPaymentByReference(ctx context.Context, reference string) (database.Payment, error)
}

// NewCateringStore creates a CateringStore from a DBTX (pool or tx).
type NewCateringStore func(db database.DBTX) CateringStore

// ScheduleCateringRequest is a booking plus how its down payment was made.
type ScheduleCateringRequest struct {
	catering.ScheduleRequest
	PaymentMethod string
}

// SettleCateringPayment is a confirmed payment against an event's remaining
// balance. A zero Amount settles whatever is left (counter payments).
type SettleCateringPayment struct {
	Reference string
	EventID   uuid.UUID
	Method    string
	Amount    decimal.Decimal
}

// CateringService handles catering bookings and their deposit ledger.
type CateringService struct {
	pool     Pool
	newStore NewCateringStore
	events   Broadcaster
	logger   *zap.Logger
	now      func() time.Time
}

// NewCateringService creates a new CateringService. events may be nil.
func NewCateringService(pool Pool, newStore NewCateringStore, events Broadcaster, logger *zap.Logger) *CateringService {
	if events == nil {
		events = nopBroadcaster{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CateringService{pool: pool, newStore: newStore, events: events, logger: logger, now: time.Now}
}

// Schedule books an event. The down payment is recorded as collected at
// booking time, so the event starts PENDING_PAYMENT for the other half (or
// CONFIRMED when it is free).
func (s *CateringService) Schedule(ctx context.Context, req ScheduleCateringRequest) (catering.Event, error) {
	if err := req.Validate(); err != nil {
		return catering.Event{}, err
	}
	method, err := paymentMethod(req.PaymentMethod, enum.PaymentMethodCounter)
	if err != nil {
		return catering.Event{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return catering.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	rows, err := store.GetMenuItemsByIDs(ctx, uniqueIDs(req.MenuItemIDs))
	if err != nil {
		return catering.Event{}, fmt.Errorf("get menu items: %w", err)
	}
	menu := catalogFromRows(rows)

	ev, err := catering.New(req.ScheduleRequest, menu)
	if err != nil {
		return catering.Event{}, err
	}
	for i, li := range ev.Items {
		if !menu[li.MenuItemID].Available {
			return catering.Event{}, fmt.Errorf("items[%d] %s: %w", i, li.Name, ErrItemUnavailable)
		}
	}

	row, err := store.CreateCateringEvent(ctx, database.CreateCateringEventParams{
		UserID:       ev.UserID,
		Name:         ev.Name,
		ClientName:   ev.ClientName,
		EventDate:    dateToPg(ev.EventDate),
		StartTime:    ev.StartTime,
		EndTime:      ev.EndTime,
		Location:     ev.Location,
		GuestCount:   ev.GuestCount,
		ContactName:  ev.ContactName,
		ContactPhone: ev.ContactPhone,
		Notes:        optionalText(ev.Notes),
		TotalPrice:   decimalToNumeric(ev.TotalPrice),
		PaidAmount:   decimalToNumeric(ev.PaidAmount),
		Status:       ev.Status,
	})
	if err != nil {
		return catering.Event{}, fmt.Errorf("create catering event: %w", err)
	}

	for _, li := range ev.Items {
		if _, err := store.CreateCateringEventItem(ctx, database.CreateCateringEventItemParams{
			EventID:    row.ID,
			MenuItemID: li.MenuItemID,
			Name:       li.Name,
			UnitPrice:  decimalToNumeric(li.UnitPrice),
			Quantity:   li.Quantity,
			ImageUrl:   optionalText(li.Image),
		}); err != nil {
			return catering.Event{}, fmt.Errorf("create catering event item: %w", err)
		}
	}

	if ev.PaidAmount.IsPositive() {
		if _, err := store.CreatePayment(ctx, database.CreatePaymentParams{
			Reference: "DP-" + row.ID.String(),
			Target:    enum.PaymentTargetCatering,
			TargetID:  row.ID,
			Kind:      optionalText(enum.CateringPaymentKindDown),
			Method:    method,
			Amount:    decimalToNumeric(ev.PaidAmount),
		}); err != nil {
			return catering.Event{}, fmt.Errorf("record down payment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return catering.Event{}, fmt.Errorf("commit tx: %w", err)
	}

	ev.ID = row.ID
	s.logger.Info("catering event scheduled",
		zap.Stringer("event_id", ev.ID),
		zap.String("total", ev.TotalPrice.StringFixed(2)),
		zap.String("down_payment", ev.PaidAmount.StringFixed(2)),
	)
	publish(s.logger, ws.EventCateringUpdated, ev, s.events.BroadcastToStaff)
	return ev, nil
}

// List returns a user's events split into upcoming and past. When
// clientName is set only that client's events are kept.
func (s *CateringService) List(ctx context.Context, userID uuid.UUID, clientName string) (catering.Buckets, error) {
	store := s.newStore(s.pool)

	rows, err := store.ListCateringEventsByUser(ctx, userID)
	if err != nil {
		return catering.Buckets{}, fmt.Errorf("list catering events: %w", err)
	}

	var events []catering.Event
	if len(rows) > 0 {
		ids := make([]uuid.UUID, len(rows))
		for i, r := range rows {
			ids[i] = r.ID
		}
		items, err := store.ListCateringEventItems(ctx, ids)
		if err != nil {
			return catering.Buckets{}, fmt.Errorf("list catering event items: %w", err)
		}
		byEvent := groupEventItems(items)
		events = make([]catering.Event, len(rows))
		for i, r := range rows {
			events[i] = eventFromRows(r, byEvent[r.ID])
		}
	}

	if strings.TrimSpace(clientName) != "" {
		return catering.Classify(events, clientName, s.now()), nil
	}
	return catering.ClassifyAll(events, s.now()), nil
}

// Get loads a single event with its items.
func (s *CateringService) Get(ctx context.Context, id uuid.UUID) (catering.Event, error) {
	return s.load(ctx, s.newStore(s.pool), id, false)
}

func (s *CateringService) load(ctx context.Context, store CateringStore, id uuid.UUID, forUpdate bool) (catering.Event, error) {
	get := store.GetCateringEvent
	if forUpdate {
		get = store.GetCateringEventForUpdate
	}
	row, err := get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catering.Event{}, ErrEventNotFound
		}
		return catering.Event{}, fmt.Errorf("get catering event: %w", err)
	}
	items, err := store.ListCateringEventItems(ctx, []uuid.UUID{id})
	if err != nil {
		return catering.Event{}, fmt.Errorf("list catering event items: %w", err)
	}
	return eventFromRows(row, items), nil
}

// SettleRemaining pays off an event after an external confirmation. It
// returns settlement.ErrAlreadySettled together with the current event when
// there was nothing left to pay or the reference was already recorded;
// callers treat that as success.
func (s *CateringService) SettleRemaining(ctx context.Context, req SettleCateringPayment) (catering.Event, error) {
	method, err := paymentMethod(req.Method, enum.PaymentMethodCounter)
	if err != nil {
		return catering.Event{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return catering.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	ev, err := s.load(ctx, store, req.EventID, true)
	if err != nil {
		return catering.Event{}, err
	}

	if req.Reference != "" {
		if _, err := store.GetPaymentByReference(ctx, req.Reference); err == nil {
			return ev, settlement.ErrAlreadySettled
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return catering.Event{}, fmt.Errorf("get payment: %w", err)
		}
	}

	if settlement.Overpaid(ev.Ledger) {
		s.logger.Warn("catering ledger overpaid",
			zap.Stringer("event_id", ev.ID),
			zap.String("total", ev.TotalPrice.StringFixed(2)),
			zap.String("paid", ev.PaidAmount.StringFixed(2)),
		)
	}

	remaining := ev.RemainingBalance()
	if !req.Amount.IsZero() && remaining.IsPositive() && !req.Amount.Equal(remaining) {
		return catering.Event{}, fmt.Errorf("%w: got %s, want %s", ErrAmountMismatch, req.Amount.StringFixed(2), remaining.StringFixed(2))
	}

	settled, err := catering.SettleRemaining(ev)
	if err != nil {
		return ev, err
	}

	ref := req.Reference
	if ref == "" {
		ref = "RB-" + uuid.NewString()
	}
	if _, err := store.CreatePayment(ctx, database.CreatePaymentParams{
		Reference: ref,
		Target:    enum.PaymentTargetCatering,
		TargetID:  ev.ID,
		Kind:      optionalText(enum.CateringPaymentKindRemaining),
		Method:    method,
		Amount:    decimalToNumeric(remaining),
	}); err != nil {
		if isUniqueViolation(err, paymentRefConstraint) {
			return ev, settlement.ErrAlreadySettled
		}
		return catering.Event{}, fmt.Errorf("record remaining payment: %w", err)
	}

	if _, err := store.UpdateCateringLedger(ctx, database.UpdateCateringLedgerParams{
		ID:         settled.ID,
		PaidAmount: decimalToNumeric(settled.PaidAmount),
		Status:     settled.Status,
	}); err != nil {
		return catering.Event{}, fmt.Errorf("update catering ledger: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return catering.Event{}, fmt.Errorf("commit tx: %w", err)
	}

	s.logger.Info("catering event settled",
		zap.Stringer("event_id", settled.ID),
		zap.String("amount", remaining.StringFixed(2)),
		zap.String("method", method),
	)
	publish(s.logger, ws.EventCateringUpdated, settled, func(e ws.Event) {
		s.events.BroadcastToUser(settled.UserID, e)
		s.events.BroadcastToStaff(e)
	})
	return settled, nil
}

// Cancel withdraws a booking that is still waiting on its remaining payment.
func (s *CateringService) Cancel(ctx context.Context, id, userID uuid.UUID) (catering.Event, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return catering.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	ev, err := s.load(ctx, store, id, true)
	if err != nil {
		return catering.Event{}, err
	}
	if ev.UserID != userID {
		return catering.Event{}, ErrEventNotFound
	}

	cancelled, err := catering.Cancel(ev)
	if err != nil {
		return ev, err
	}

	if _, err := store.UpdateCateringLedger(ctx, database.UpdateCateringLedgerParams{
		ID:         cancelled.ID,
		PaidAmount: decimalToNumeric(cancelled.PaidAmount),
		Status:     cancelled.Status,
	}); err != nil {
		return catering.Event{}, fmt.Errorf("update catering ledger: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return catering.Event{}, fmt.Errorf("commit tx: %w", err)
	}

	publish(s.logger, ws.EventCateringUpdated, cancelled, s.events.BroadcastToStaff)
	return cancelled, nil
}
