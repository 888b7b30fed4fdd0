package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const notificationColumns = `id, type, menu_item_id, title, message, created_at`

func scanNotification(row interface{ Scan(...any) error }) (Notification, error) {
	var i Notification
	err := row.Scan(
		&i.ID,
		&i.Type,
		&i.MenuItemID,
		&i.Title,
		&i.Message,
		&i.CreatedAt,
	)
	return i, err
}

const createNotification = `-- name: CreateNotification :one
INSERT INTO notifications (type, menu_item_id, title, message)
VALUES ($1, $2, $3, $4)
RETURNING ` + notificationColumns

type CreateNotificationParams struct {
	Type       string      `json:"type"`
	MenuItemID pgtype.UUID `json:"menu_item_id"`
	Title      string      `json:"title"`
	Message    string      `json:"message"`
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error) {
	row := q.db.QueryRow(ctx, createNotification, arg.Type, arg.MenuItemID, arg.Title, arg.Message)
	return scanNotification(row)
}

const listNotifications = `-- name: ListNotifications :many
SELECT ` + notificationColumns + ` FROM notifications
ORDER BY created_at DESC
LIMIT $1`

func (q *Queries) ListNotifications(ctx context.Context, limit int32) ([]Notification, error) {
	rows, err := q.db.Query(ctx, listNotifications, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Notification{}
	for rows.Next() {
		i, err := scanNotification(rows)
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
