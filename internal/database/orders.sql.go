package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, order_seq, order_number, status, payment_method, payment_status, notes, total_amount, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.OrderSeq,
		&i.OrderNumber,
		&i.Status,
		&i.PaymentMethod,
		&i.PaymentStatus,
		&i.Notes,
		&i.TotalAmount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const orderItemColumns = `id, order_id, menu_item_id, name, unit_price, quantity, size, customize, image_url`

func scanOrderItem(row interface{ Scan(...any) error }) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.MenuItemID,
		&i.Name,
		&i.UnitPrice,
		&i.Quantity,
		&i.Size,
		&i.Customize,
		&i.ImageUrl,
	)
	return i, err
}

const getNextOrderSeq = `-- name: GetNextOrderSeq :one
SELECT (COALESCE(MAX(order_seq), 0) + 1)::int4 FROM orders`

func (q *Queries) GetNextOrderSeq(ctx context.Context) (int32, error) {
	row := q.db.QueryRow(ctx, getNextOrderSeq)
	var column_1 int32
	err := row.Scan(&column_1)
	return column_1, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (user_id, order_seq, order_number, payment_method, notes, total_amount)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	UserID        uuid.UUID      `json:"user_id"`
	OrderSeq      int32          `json:"order_seq"`
	OrderNumber   string         `json:"order_number"`
	PaymentMethod string         `json:"payment_method"`
	Notes         pgtype.Text    `json:"notes"`
	TotalAmount   pgtype.Numeric `json:"total_amount"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.UserID,
		arg.OrderSeq,
		arg.OrderNumber,
		arg.PaymentMethod,
		arg.Notes,
		arg.TotalAmount,
	)
	return scanOrder(row)
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, menu_item_id, name, unit_price, quantity, size, customize, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + orderItemColumns

type CreateOrderItemParams struct {
	OrderID    uuid.UUID      `json:"order_id"`
	MenuItemID uuid.UUID      `json:"menu_item_id"`
	Name       string         `json:"name"`
	UnitPrice  pgtype.Numeric `json:"unit_price"`
	Quantity   int32          `json:"quantity"`
	Size       pgtype.Text    `json:"size"`
	Customize  pgtype.Text    `json:"customize"`
	ImageUrl   pgtype.Text    `json:"image_url"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.MenuItemID,
		arg.Name,
		arg.UnitPrice,
		arg.Quantity,
		arg.Size,
		arg.Customize,
		arg.ImageUrl,
	)
	return scanOrderItem(row)
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + ` FROM orders
WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT ` + orderColumns + ` FROM orders
WHERE id = $1
FOR UPDATE`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const listOrdersByUser = `-- name: ListOrdersByUser :many
SELECT ` + orderColumns + ` FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`

type ListOrdersByUserParams struct {
	UserID uuid.UUID `json:"user_id"`
	Limit  int32     `json:"limit"`
}

func (q *Queries) ListOrdersByUser(ctx context.Context, arg ListOrdersByUserParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByUser, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOrderItemsByOrderIDs = `-- name: ListOrderItemsByOrderIDs :many
SELECT ` + orderItemColumns + ` FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, id`

func (q *Queries) ListOrderItemsByOrderIDs(ctx context.Context, orderIds []uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrderIDs, orderIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		i, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID         uuid.UUID `json:"id"`
	Status     string    `json:"status"`
	FromStatus string    `json:"from_status"`
}

// UpdateOrderStatus only applies when the row is still in FromStatus;
// pgx.ErrNoRows means another writer got there first.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.FromStatus))
}

const markOrderPaid = `-- name: MarkOrderPaid :one
UPDATE orders SET payment_status = 'PAID', payment_method = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type MarkOrderPaidParams struct {
	ID            uuid.UUID `json:"id"`
	PaymentMethod string    `json:"payment_method"`
}

func (q *Queries) MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, markOrderPaid, arg.ID, arg.PaymentMethod))
}
