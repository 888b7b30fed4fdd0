package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const cateringEventColumns = `id, user_id, name, client_name, event_date, start_time, end_time, location, guest_count, contact_name, contact_phone, notes, total_price, paid_amount, status, created_at, updated_at`

func scanCateringEvent(row interface{ Scan(...any) error }) (CateringEvent, error) {
	var i CateringEvent
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.ClientName,
		&i.EventDate,
		&i.StartTime,
		&i.EndTime,
		&i.Location,
		&i.GuestCount,
		&i.ContactName,
		&i.ContactPhone,
		&i.Notes,
		&i.TotalPrice,
		&i.PaidAmount,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const cateringEventItemColumns = `id, event_id, menu_item_id, name, unit_price, quantity, image_url`

func scanCateringEventItem(row interface{ Scan(...any) error }) (CateringEventItem, error) {
	var i CateringEventItem
	err := row.Scan(
		&i.ID,
		&i.EventID,
		&i.MenuItemID,
		&i.Name,
		&i.UnitPrice,
		&i.Quantity,
		&i.ImageUrl,
	)
	return i, err
}

const createCateringEvent = `-- name: CreateCateringEvent :one
INSERT INTO catering_events (
    user_id, name, client_name, event_date, start_time, end_time, location,
    guest_count, contact_name, contact_phone, notes, total_price, paid_amount, status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING ` + cateringEventColumns

type CreateCateringEventParams struct {
	UserID       uuid.UUID      `json:"user_id"`
	Name         string         `json:"name"`
	ClientName   string         `json:"client_name"`
	EventDate    pgtype.Date    `json:"event_date"`
	StartTime    string         `json:"start_time"`
	EndTime      string         `json:"end_time"`
	Location     string         `json:"location"`
	GuestCount   int32          `json:"guest_count"`
	ContactName  string         `json:"contact_name"`
	ContactPhone string         `json:"contact_phone"`
	Notes        pgtype.Text    `json:"notes"`
	TotalPrice   pgtype.Numeric `json:"total_price"`
	PaidAmount   pgtype.Numeric `json:"paid_amount"`
	Status       string         `json:"status"`
}

func (q *Queries) CreateCateringEvent(ctx context.Context, arg CreateCateringEventParams) (CateringEvent, error) {
	row := q.db.QueryRow(ctx, createCateringEvent,
		arg.UserID,
		arg.Name,
		arg.ClientName,
		arg.EventDate,
		arg.StartTime,
		arg.EndTime,
		arg.Location,
		arg.GuestCount,
		arg.ContactName,
		arg.ContactPhone,
		arg.Notes,
		arg.TotalPrice,
		arg.PaidAmount,
		arg.Status,
	)
	return scanCateringEvent(row)
}

const createCateringEventItem = `-- name: CreateCateringEventItem :one
INSERT INTO catering_event_items (event_id, menu_item_id, name, unit_price, quantity, image_url)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + cateringEventItemColumns

type CreateCateringEventItemParams struct {
	EventID    uuid.UUID      `json:"event_id"`
	MenuItemID uuid.UUID      `json:"menu_item_id"`
	Name       string         `json:"name"`
	UnitPrice  pgtype.Numeric `json:"unit_price"`
	Quantity   int32          `json:"quantity"`
	ImageUrl   pgtype.Text    `json:"image_url"`
}

func (q *Queries) CreateCateringEventItem(ctx context.Context, arg CreateCateringEventItemParams) (CateringEventItem, error) {
	row := q.db.QueryRow(ctx, createCateringEventItem,
		arg.EventID,
		arg.MenuItemID,
		arg.Name,
		arg.UnitPrice,
		arg.Quantity,
		arg.ImageUrl,
	)
	return scanCateringEventItem(row)
}

const getCateringEvent = `-- name: GetCateringEvent :one
SELECT ` + cateringEventColumns + ` FROM catering_events
WHERE id = $1`

func (q *Queries) GetCateringEvent(ctx context.Context, id uuid.UUID) (CateringEvent, error) {
	return scanCateringEvent(q.db.QueryRow(ctx, getCateringEvent, id))
}

const getCateringEventForUpdate = `-- name: GetCateringEventForUpdate :one
SELECT ` + cateringEventColumns + ` FROM catering_events
WHERE id = $1
FOR UPDATE`

func (q *Queries) GetCateringEventForUpdate(ctx context.Context, id uuid.UUID) (CateringEvent, error) {
	return scanCateringEvent(q.db.QueryRow(ctx, getCateringEventForUpdate, id))
}

const listCateringEventsByUser = `-- name: ListCateringEventsByUser :many
SELECT ` + cateringEventColumns + ` FROM catering_events
WHERE user_id = $1
ORDER BY event_date, created_at`

func (q *Queries) ListCateringEventsByUser(ctx context.Context, userID uuid.UUID) ([]CateringEvent, error) {
	rows, err := q.db.Query(ctx, listCateringEventsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CateringEvent{}
	for rows.Next() {
		i, err := scanCateringEvent(rows)
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

const listCateringEventItems = `-- name: ListCateringEventItems :many
SELECT ` + cateringEventItemColumns + ` FROM catering_event_items
WHERE event_id = ANY($1::uuid[])
ORDER BY event_id, id`

func (q *Queries) ListCateringEventItems(ctx context.Context, eventIds []uuid.UUID) ([]CateringEventItem, error) {
	rows, err := q.db.Query(ctx, listCateringEventItems, eventIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CateringEventItem{}
	for rows.Next() {
		i, err := scanCateringEventItem(rows)
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

const updateCateringLedger = `-- name: UpdateCateringLedger :one
UPDATE catering_events SET paid_amount = $2, status = $3, updated_at = now()
WHERE id = $1
RETURNING ` + cateringEventColumns

type UpdateCateringLedgerParams struct {
	ID         uuid.UUID      `json:"id"`
	PaidAmount pgtype.Numeric `json:"paid_amount"`
	Status     string         `json:"status"`
}

func (q *Queries) UpdateCateringLedger(ctx context.Context, arg UpdateCateringLedgerParams) (CateringEvent, error) {
	return scanCateringEvent(q.db.QueryRow(ctx, updateCateringLedger, arg.ID, arg.PaidAmount, arg.Status))
}
