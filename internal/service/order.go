package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/catalog"
	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/enum"
	"github.com/sanaol/canteen/internal/orderstatus"
	"github.com/sanaol/canteen/internal/settlement"
	"github.com/sanaol/canteen/internal/tracking"
	"github.com/sanaol/canteen/internal/ws"
)

const (
	maxOrderNumberRetries = 3
	orderNumberConstraint = "orders_order_number_key"
	paymentRefConstraint  = "payments_reference_key"
	orderHistoryLimit     = 100
)

// Errors returned by the order service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidMenuItemID    = errors.New("invalid menu_item_id")
	ErrItemUnavailable      = errors.New("menu item is not available")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNotCancellable  = errors.New("only pending orders can be cancelled")
	ErrAmountMismatch       = errors.New("payment amount does not match balance")
)

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetNextOrderSeq(ctx context.Context) (int32, error)
	GetMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.MenuItem, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrdersByUser(ctx context.Context, arg database.ListOrdersByUserParams) ([]database.Order, error)
	ListOrderItemsByOrderIDs(ctx context.Context, orderIds []uuid.UUID) ([]database.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	MarkOrderPaid(ctx context.Context, arg database.MarkOrderPaidParams) (database.Order, error)
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	GetPaymentByReference(ctx context.Context, reference string) (database.Payment, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// PlaceOrderRequest is the input for placing an order.
type PlaceOrderRequest struct {
	UserID        uuid.UUID
	PaymentMethod string
	Notes         string
	Items         []PlaceOrderItem
}

// PlaceOrderItem is a single line of a new order.
type PlaceOrderItem struct {
	MenuItemID string
	Quantity   int32
	Size       string
	Customize  string
}

// OrderService handles order business logic.
type OrderService struct {
	pool     Pool
	newStore NewOrderStore
	events   Broadcaster
	logger   *zap.Logger
}

// NewOrderService creates a new OrderService. events may be nil.
func NewOrderService(pool Pool, newStore NewOrderStore, events Broadcaster, logger *zap.Logger) *OrderService {
	if events == nil {
		events = nopBroadcaster{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{pool: pool, newStore: newStore, events: events, logger: logger}
}

type orderLine struct {
	menuItemID uuid.UUID
	quantity   int32
	size       string
	customize  string
}

// PlaceOrder validates the cart, snapshots menu prices and creates the order
// atomically. Retries up to maxOrderNumberRetries times when two
// transactions race for the same order number.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (tracking.Order, error) {
	if len(req.Items) == 0 {
		return tracking.Order{}, ErrEmptyItems
	}
	method, err := paymentMethod(req.PaymentMethod, "")
	if err != nil {
		return tracking.Order{}, err
	}

	lines := make([]orderLine, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return tracking.Order{}, fmt.Errorf("item[%d]: %w", i, catalog.ErrInvalidQuantity)
		}
		id, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return tracking.Order{}, fmt.Errorf("item[%d]: %w", i, ErrInvalidMenuItemID)
		}
		lines[i] = orderLine{
			menuItemID: id,
			quantity:   item.Quantity,
			size:       strings.TrimSpace(item.Size),
			customize:  strings.TrimSpace(item.Customize),
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		order, err := s.placeOrderTx(ctx, req.UserID, method, strings.TrimSpace(req.Notes), lines)
		if err == nil {
			publish(s.logger, ws.EventOrderCreated, tracking.NewView(order), s.events.BroadcastToStaff)
			return order, nil
		}
		if isUniqueViolation(err, orderNumberConstraint) {
			s.logger.Warn("order number conflict, retrying", zap.Int("attempt", attempt+1))
			lastErr = err
			continue
		}
		return tracking.Order{}, err
	}
	return tracking.Order{}, lastErr
}

func (s *OrderService) placeOrderTx(ctx context.Context, userID uuid.UUID, method, notes string, lines []orderLine) (tracking.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return tracking.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.menuItemID
	}
	rows, err := store.GetMenuItemsByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return tracking.Order{}, fmt.Errorf("get menu items: %w", err)
	}
	menu := catalogFromRows(rows)

	items := make([]settlement.LineItem, len(lines))
	for i, l := range lines {
		li, err := menu.Line(l.menuItemID, l.quantity)
		if err != nil {
			return tracking.Order{}, fmt.Errorf("item[%d]: %w", i, err)
		}
		if !menu[l.menuItemID].Available {
			return tracking.Order{}, fmt.Errorf("item[%d]: %s: %w", i, li.Name, ErrItemUnavailable)
		}
		li.Size = l.size
		li.Customize = l.customize
		items[i] = li
	}

	seq, err := store.GetNextOrderSeq(ctx)
	if err != nil {
		return tracking.Order{}, fmt.Errorf("get next order seq: %w", err)
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		UserID:        userID,
		OrderSeq:      seq,
		OrderNumber:   fmt.Sprintf("CNT-%04d", seq),
		PaymentMethod: method,
		Notes:         optionalText(notes),
		TotalAmount:   decimalToNumeric(settlement.ComputeTotal(items)),
	})
	if err != nil {
		return tracking.Order{}, fmt.Errorf("create order: %w", err)
	}

	created := make([]database.OrderItem, 0, len(items))
	for _, li := range items {
		row, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:    order.ID,
			MenuItemID: li.MenuItemID,
			Name:       li.Name,
			UnitPrice:  decimalToNumeric(li.UnitPrice),
			Quantity:   li.Quantity,
			Size:       optionalText(li.Size),
			Customize:  optionalText(li.Customize),
			ImageUrl:   optionalText(li.Image),
		})
		if err != nil {
			return tracking.Order{}, fmt.Errorf("create order item: %w", err)
		}
		created = append(created, row)
	}

	if err := tx.Commit(ctx); err != nil {
		return tracking.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return orderFromRows(order, created), nil
}

// ListOrders returns a user's recent orders grouped for the tracking screen.
func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID) (tracking.Buckets, error) {
	store := s.newStore(s.pool)

	rows, err := store.ListOrdersByUser(ctx, database.ListOrdersByUserParams{UserID: userID, Limit: orderHistoryLimit})
	if err != nil {
		return tracking.Buckets{}, fmt.Errorf("list orders: %w", err)
	}
	if len(rows) == 0 {
		return tracking.Partition(nil), nil
	}

	ids := make([]uuid.UUID, len(rows))
	for i, o := range rows {
		ids[i] = o.ID
	}
	items, err := store.ListOrderItemsByOrderIDs(ctx, ids)
	if err != nil {
		return tracking.Buckets{}, fmt.Errorf("list order items: %w", err)
	}
	byOrder := groupOrderItems(items)

	orders := make([]tracking.Order, len(rows))
	for i, o := range rows {
		orders[i] = orderFromRows(o, byOrder[o.ID])
	}
	return tracking.Partition(orders), nil
}

// GetOrder loads a single order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (tracking.Order, error) {
	return s.loadOrder(ctx, s.newStore(s.pool), id, false)
}

func (s *OrderService) loadOrder(ctx context.Context, store OrderStore, id uuid.UUID, forUpdate bool) (tracking.Order, error) {
	get := store.GetOrder
	if forUpdate {
		get = store.GetOrderForUpdate
	}
	o, err := get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tracking.Order{}, ErrOrderNotFound
		}
		return tracking.Order{}, fmt.Errorf("get order: %w", err)
	}
	items, err := store.ListOrderItemsByOrderIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return tracking.Order{}, fmt.Errorf("list order items: %w", err)
	}
	return orderFromRows(o, items), nil
}

// AdvanceStatus moves an order along its lifecycle. The status string is
// matched strictly; moving backwards or out of a terminal state fails with
// orderstatus.ErrInvalidTransition.
func (s *OrderService) AdvanceStatus(ctx context.Context, id uuid.UUID, rawStatus string) (tracking.Order, error) {
	to, ok := orderstatus.Lookup(rawStatus)
	if !ok {
		return tracking.Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, rawStatus)
	}
	return s.transition(ctx, id, to, func(tracking.Order) error { return nil })
}

// CancelOrder lets an owner withdraw an order the kitchen has not accepted.
// Orders belonging to someone else are reported as not found.
func (s *OrderService) CancelOrder(ctx context.Context, id, userID uuid.UUID) (tracking.Order, error) {
	return s.transition(ctx, id, orderstatus.Cancelled, func(o tracking.Order) error {
		if o.UserID != userID {
			return ErrOrderNotFound
		}
		if orderstatus.Parse(o.Status) != orderstatus.Pending {
			return fmt.Errorf("%w: status is %s", ErrOrderNotCancellable, o.Status)
		}
		return nil
	})
}

func (s *OrderService) transition(ctx context.Context, id uuid.UUID, to orderstatus.Status, check func(tracking.Order) error) (tracking.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return tracking.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := s.loadOrder(ctx, store, id, true)
	if err != nil {
		return tracking.Order{}, err
	}
	if err := check(current); err != nil {
		return tracking.Order{}, err
	}

	from := orderstatus.Parse(current.Status)
	if err := orderstatus.CanTransition(from, to); err != nil {
		return tracking.Order{}, err
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         id,
		Status:     string(to),
		FromStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tracking.Order{}, fmt.Errorf("%w: order changed concurrently", orderstatus.ErrInvalidTransition)
		}
		return tracking.Order{}, fmt.Errorf("update order status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return tracking.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	current.Status = updated.Status
	s.logger.Info("order status changed",
		zap.String("order_number", current.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", updated.Status),
	)
	publish(s.logger, ws.EventOrderUpdated, tracking.NewView(current), func(ev ws.Event) {
		s.events.BroadcastToUser(current.UserID, ev)
		s.events.BroadcastToStaff(ev)
	})
	return current, nil
}

// ConfirmOrderPayment is a verified gateway confirmation for an order.
type ConfirmOrderPayment struct {
	Reference string
	OrderID   uuid.UUID
	Method    string
	Amount    decimal.Decimal
}

// ConfirmPayment records an external payment and marks the order paid.
// Replaying the same reference, or confirming an already paid order, is an
// idempotent success.
func (s *OrderService) ConfirmPayment(ctx context.Context, req ConfirmOrderPayment) (tracking.Order, error) {
	method, err := paymentMethod(req.Method, "")
	if err != nil {
		return tracking.Order{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return tracking.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.loadOrder(ctx, store, req.OrderID, true)
	if err != nil {
		return tracking.Order{}, err
	}

	if _, err := store.GetPaymentByReference(ctx, req.Reference); err == nil {
		return order, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return tracking.Order{}, fmt.Errorf("get payment: %w", err)
	}

	if order.PaymentStatus == enum.PaymentStatusPaid {
		s.logger.Warn("payment for already paid order",
			zap.String("order_number", order.OrderNumber),
			zap.String("reference", req.Reference),
		)
		return order, nil
	}
	if orderstatus.Parse(order.Status) == orderstatus.Cancelled {
		return tracking.Order{}, fmt.Errorf("%w: order is cancelled", orderstatus.ErrInvalidTransition)
	}
	if !req.Amount.Equal(order.Total()) {
		return tracking.Order{}, fmt.Errorf("%w: got %s, want %s", ErrAmountMismatch, req.Amount.StringFixed(2), order.Total().StringFixed(2))
	}

	if _, err := store.CreatePayment(ctx, database.CreatePaymentParams{
		Reference: req.Reference,
		Target:    enum.PaymentTargetOrder,
		TargetID:  order.ID,
		Kind:      pgtype.Text{},
		Method:    method,
		Amount:    decimalToNumeric(req.Amount),
	}); err != nil {
		if isUniqueViolation(err, paymentRefConstraint) {
			return order, nil
		}
		return tracking.Order{}, fmt.Errorf("create payment: %w", err)
	}

	paid, err := store.MarkOrderPaid(ctx, database.MarkOrderPaidParams{ID: order.ID, PaymentMethod: method})
	if err != nil {
		return tracking.Order{}, fmt.Errorf("mark order paid: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return tracking.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	order.PaymentStatus = paid.PaymentStatus
	order.PaymentMethod = paid.PaymentMethod
	publish(s.logger, ws.EventOrderPaid, tracking.NewView(order), func(ev ws.Event) {
		s.events.BroadcastToUser(order.UserID, ev)
		s.events.BroadcastToStaff(ev)
	})
	return order, nil
}
