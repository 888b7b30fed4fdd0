package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, name, description, category, price, image_url, is_available, created_at, updated_at`

func scanMenuItem(row interface{ Scan(...any) error }) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Category,
		&i.Price,
		&i.ImageUrl,
		&i.IsAvailable,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createMenuItem = `-- name: CreateMenuItem :one
INSERT INTO menu_items (name, description, category, price, image_url, is_available)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + menuItemColumns

type CreateMenuItemParams struct {
	Name        string         `json:"name"`
	Description pgtype.Text    `json:"description"`
	Category    string         `json:"category"`
	Price       pgtype.Numeric `json:"price"`
	ImageUrl    pgtype.Text    `json:"image_url"`
	IsAvailable bool           `json:"is_available"`
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem,
		arg.Name,
		arg.Description,
		arg.Category,
		arg.Price,
		arg.ImageUrl,
		arg.IsAvailable,
	)
	return scanMenuItem(row)
}

const getMenuItem = `-- name: GetMenuItem :one
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE id = $1`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, id))
}

const listMenuItems = `-- name: ListMenuItems :many
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE ($1::text IS NULL OR lower(category) = lower($1::text))
  AND ($2::boolean = false OR is_available = true)
ORDER BY category, name
LIMIT $3 OFFSET $4`

type ListMenuItemsParams struct {
	Category      pgtype.Text `json:"category"`
	AvailableOnly bool        `json:"available_only"`
	Limit         int32       `json:"limit"`
	Offset        int32       `json:"offset"`
}

func (q *Queries) ListMenuItems(ctx context.Context, arg ListMenuItemsParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems, arg.Category, arg.AvailableOnly, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MenuItem{}
	for rows.Next() {
		i, err := scanMenuItem(rows)
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

const countMenuItems = `-- name: CountMenuItems :one
SELECT count(*) FROM menu_items
WHERE ($1::text IS NULL OR lower(category) = lower($1::text))
  AND ($2::boolean = false OR is_available = true)`

type CountMenuItemsParams struct {
	Category      pgtype.Text `json:"category"`
	AvailableOnly bool        `json:"available_only"`
}

func (q *Queries) CountMenuItems(ctx context.Context, arg CountMenuItemsParams) (int64, error) {
	row := q.db.QueryRow(ctx, countMenuItems, arg.Category, arg.AvailableOnly)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getMenuItemsByIDs = `-- name: GetMenuItemsByIDs :many
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE id = ANY($1::uuid[])`

func (q *Queries) GetMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, getMenuItemsByIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MenuItem{}
	for rows.Next() {
		i, err := scanMenuItem(rows)
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

const listMenuCategories = `-- name: ListMenuCategories :many
SELECT DISTINCT category FROM menu_items
WHERE category <> ''
ORDER BY category`

func (q *Queries) ListMenuCategories(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, listMenuCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		items = append(items, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setMenuItemAvailability = `-- name: SetMenuItemAvailability :one
UPDATE menu_items SET is_available = $2, updated_at = now()
WHERE id = $1
RETURNING ` + menuItemColumns

type SetMenuItemAvailabilityParams struct {
	ID          uuid.UUID `json:"id"`
	IsAvailable bool      `json:"is_available"`
}

func (q *Queries) SetMenuItemAvailability(ctx context.Context, arg SetMenuItemAvailabilityParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, setMenuItemAvailability, arg.ID, arg.IsAvailable))
}

const setMenuItemImage = `-- name: SetMenuItemImage :one
UPDATE menu_items SET image_url = $2, updated_at = now()
WHERE id = $1
RETURNING ` + menuItemColumns

type SetMenuItemImageParams struct {
	ID       uuid.UUID   `json:"id"`
	ImageUrl pgtype.Text `json:"image_url"`
}

func (q *Queries) SetMenuItemImage(ctx context.Context, arg SetMenuItemImageParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, setMenuItemImage, arg.ID, arg.ImageUrl))
}
