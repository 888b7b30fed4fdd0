package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/ws"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	committed   bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr == nil {
		m.committed = true
	}
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockPool implements Pool. Queries panic: stores are always mocked.
type mockPool struct {
	tx     pgx.Tx
	err    error
	begins int
}

func (m *mockPool) Begin(ctx context.Context) (pgx.Tx, error) {
	m.begins++
	return m.tx, m.err
}
func (m *mockPool) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockPool) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockPool) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	panic("not implemented")
}

// mockStore implements every store interface with configurable behavior.
// Calling a method whose function is unset panics.
type mockStore struct {
	getNextOrderSeqFn          func(ctx context.Context) (int32, error)
	getMenuItemsByIDsFn        func(ctx context.Context, ids []uuid.UUID) ([]database.MenuItem, error)
	createOrderFn              func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	createOrderItemFn          func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	getOrderFn                 func(ctx context.Context, id uuid.UUID) (database.Order, error)
	getOrderForUpdateFn        func(ctx context.Context, id uuid.UUID) (database.Order, error)
	listOrdersByUserFn         func(ctx context.Context, arg database.ListOrdersByUserParams) ([]database.Order, error)
	listOrderItemsByOrderIDsFn func(ctx context.Context, ids []uuid.UUID) ([]database.OrderItem, error)
	updateOrderStatusFn        func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	markOrderPaidFn            func(ctx context.Context, arg database.MarkOrderPaidParams) (database.Order, error)
	createPaymentFn            func(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	getPaymentByReferenceFn    func(ctx context.Context, ref string) (database.Payment, error)

	createCateringEventFn       func(ctx context.Context, arg database.CreateCateringEventParams) (database.CateringEvent, error)
	createCateringEventItemFn   func(ctx context.Context, arg database.CreateCateringEventItemParams) (database.CateringEventItem, error)
	getCateringEventFn          func(ctx context.Context, id uuid.UUID) (database.CateringEvent, error)
	getCateringEventForUpdateFn func(ctx context.Context, id uuid.UUID) (database.CateringEvent, error)
	listCateringEventsByUserFn  func(ctx context.Context, userID uuid.UUID) ([]database.CateringEvent, error)
	listCateringEventItemsFn    func(ctx context.Context, ids []uuid.UUID) ([]database.CateringEventItem, error)
	updateCateringLedgerFn      func(ctx context.Context, arg database.UpdateCateringLedgerParams) (database.CateringEvent, error)

	getActiveOfferFn         func(ctx context.Context, id uuid.UUID) (database.Offer, error)
	listActiveOffersFn       func(ctx context.Context) ([]database.Offer, error)
	getUserPointsFn          func(ctx context.Context, id uuid.UUID) (int32, error)
	getUserPointsForUpdateFn func(ctx context.Context, id uuid.UUID) (int32, error)
	setUserPointsFn          func(ctx context.Context, arg database.SetUserPointsParams) (int32, error)
	createRedemptionFn       func(ctx context.Context, arg database.CreateRedemptionParams) (database.Redemption, error)

	createMenuItemFn          func(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	getMenuItemFn             func(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	listMenuItemsFn           func(ctx context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error)
	countMenuItemsFn          func(ctx context.Context, arg database.CountMenuItemsParams) (int64, error)
	listMenuCategoriesFn      func(ctx context.Context) ([]string, error)
	setMenuItemAvailabilityFn func(ctx context.Context, arg database.SetMenuItemAvailabilityParams) (database.MenuItem, error)
	setMenuItemImageFn        func(ctx context.Context, arg database.SetMenuItemImageParams) (database.MenuItem, error)
	createNotificationFn      func(ctx context.Context, arg database.CreateNotificationParams) (database.Notification, error)
	listNotificationsFn       func(ctx context.Context, limit int32) ([]database.Notification, error)
}

func (m *mockStore) GetNextOrderSeq(ctx context.Context) (int32, error) {
	return m.getNextOrderSeqFn(ctx)
}
func (m *mockStore) GetMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.MenuItem, error) {
	return m.getMenuItemsByIDsFn(ctx, ids)
}
func (m *mockStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	return m.createOrderItemFn(ctx, arg)
}
func (m *mockStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return m.getOrderFn(ctx, id)
}
func (m *mockStore) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return m.getOrderForUpdateFn(ctx, id)
}
func (m *mockStore) ListOrdersByUser(ctx context.Context, arg database.ListOrdersByUserParams) ([]database.Order, error) {
	return m.listOrdersByUserFn(ctx, arg)
}
func (m *mockStore) ListOrderItemsByOrderIDs(ctx context.Context, ids []uuid.UUID) ([]database.OrderItem, error) {
	return m.listOrderItemsByOrderIDsFn(ctx, ids)
}
func (m *mockStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	return m.updateOrderStatusFn(ctx, arg)
}
func (m *mockStore) MarkOrderPaid(ctx context.Context, arg database.MarkOrderPaidParams) (database.Order, error) {
	return m.markOrderPaidFn(ctx, arg)
}
func (m *mockStore) CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error) {
	return m.createPaymentFn(ctx, arg)
}
func (m *mockStore) GetPaymentByReference(ctx context.Context, ref string) (database.Payment, error) {
	return m.getPaymentByReferenceFn(ctx, ref)
}
func (m *mockStore) CreateCateringEvent(ctx context.Context, arg database.CreateCateringEventParams) (database.CateringEvent, error) {
	return m.createCateringEventFn(ctx, arg)
}
func (m *mockStore) CreateCateringEventItem(ctx context.Context, arg database.CreateCateringEventItemParams) (database.CateringEventItem, error) {
	return m.createCateringEventItemFn(ctx, arg)
}
func (m *mockStore) GetCateringEvent(ctx context.Context, id uuid.UUID) (database.CateringEvent, error) {
	return m.getCateringEventFn(ctx, id)
}
func (m *mockStore) GetCateringEventForUpdate(ctx context.Context, id uuid.UUID) (database.CateringEvent, error) {
	return m.getCateringEventForUpdateFn(ctx, id)
}
func (m *mockStore) ListCateringEventsByUser(ctx context.Context, userID uuid.UUID) ([]database.CateringEvent, error) {
	return m.listCateringEventsByUserFn(ctx, userID)
}
func (m *mockStore) ListCateringEventItems(ctx context.Context, ids []uuid.UUID) ([]database.CateringEventItem, error) {
	return m.listCateringEventItemsFn(ctx, ids)
}
func (m *mockStore) UpdateCateringLedger(ctx context.Context, arg database.UpdateCateringLedgerParams) (database.CateringEvent, error) {
	return m.updateCateringLedgerFn(ctx, arg)
}
func (m *mockStore) GetActiveOffer(ctx context.Context, id uuid.UUID) (database.Offer, error) {
	return m.getActiveOfferFn(ctx, id)
}
func (m *mockStore) ListActiveOffers(ctx context.Context) ([]database.Offer, error) {
	return m.listActiveOffersFn(ctx)
}
func (m *mockStore) GetUserPoints(ctx context.Context, id uuid.UUID) (int32, error) {
	return m.getUserPointsFn(ctx, id)
}
func (m *mockStore) GetUserPointsForUpdate(ctx context.Context, id uuid.UUID) (int32, error) {
	return m.getUserPointsForUpdateFn(ctx, id)
}
func (m *mockStore) SetUserPoints(ctx context.Context, arg database.SetUserPointsParams) (int32, error) {
	return m.setUserPointsFn(ctx, arg)
}
func (m *mockStore) CreateRedemption(ctx context.Context, arg database.CreateRedemptionParams) (database.Redemption, error) {
	return m.createRedemptionFn(ctx, arg)
}
func (m *mockStore) CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error) {
	return m.createMenuItemFn(ctx, arg)
}
func (m *mockStore) GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	return m.getMenuItemFn(ctx, id)
}
func (m *mockStore) ListMenuItems(ctx context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error) {
	return m.listMenuItemsFn(ctx, arg)
}
func (m *mockStore) CountMenuItems(ctx context.Context, arg database.CountMenuItemsParams) (int64, error) {
	return m.countMenuItemsFn(ctx, arg)
}
func (m *mockStore) ListMenuCategories(ctx context.Context) ([]string, error) {
	return m.listMenuCategoriesFn(ctx)
}
func (m *mockStore) SetMenuItemAvailability(ctx context.Context, arg database.SetMenuItemAvailabilityParams) (database.MenuItem, error) {
	return m.setMenuItemAvailabilityFn(ctx, arg)
}
func (m *mockStore) SetMenuItemImage(ctx context.Context, arg database.SetMenuItemImageParams) (database.MenuItem, error) {
	return m.setMenuItemImageFn(ctx, arg)
}
func (m *mockStore) CreateNotification(ctx context.Context, arg database.CreateNotificationParams) (database.Notification, error) {
	return m.createNotificationFn(ctx, arg)
}
func (m *mockStore) ListNotifications(ctx context.Context, limit int32) ([]database.Notification, error) {
	return m.listNotificationsFn(ctx, limit)
}

// recordingBroadcaster captures published events.
type recordingBroadcaster struct {
	mu    sync.Mutex
	user  map[uuid.UUID][]ws.Event
	staff []ws.Event
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{user: make(map[uuid.UUID][]ws.Event)}
}

func (b *recordingBroadcaster) BroadcastToUser(userID uuid.UUID, ev ws.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.user[userID] = append(b.user[userID], ev)
}

func (b *recordingBroadcaster) BroadcastToStaff(ev ws.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.staff = append(b.staff, ev)
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newMockPool() (*mockPool, *mockTx) {
	tx := &mockTx{}
	return &mockPool{tx: tx}, tx
}
