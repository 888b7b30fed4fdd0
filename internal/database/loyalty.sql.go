package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const offerColumns = `id, title, description, points, is_active, created_at`

func scanOffer(row interface{ Scan(...any) error }) (Offer, error) {
	var i Offer
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Description,
		&i.Points,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const createOffer = `-- name: CreateOffer :one
INSERT INTO offers (title, description, points)
VALUES ($1, $2, $3)
RETURNING ` + offerColumns

type CreateOfferParams struct {
	Title       string      `json:"title"`
	Description pgtype.Text `json:"description"`
	Points      int32       `json:"points"`
}

func (q *Queries) CreateOffer(ctx context.Context, arg CreateOfferParams) (Offer, error) {
	return scanOffer(q.db.QueryRow(ctx, createOffer, arg.Title, arg.Description, arg.Points))
}

const getActiveOffer = `-- name: GetActiveOffer :one
SELECT ` + offerColumns + ` FROM offers
WHERE id = $1 AND is_active = true`

func (q *Queries) GetActiveOffer(ctx context.Context, id uuid.UUID) (Offer, error) {
	return scanOffer(q.db.QueryRow(ctx, getActiveOffer, id))
}

const listActiveOffers = `-- name: ListActiveOffers :many
SELECT ` + offerColumns + ` FROM offers
WHERE is_active = true
ORDER BY points, title`

func (q *Queries) ListActiveOffers(ctx context.Context) ([]Offer, error) {
	rows, err := q.db.Query(ctx, listActiveOffers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Offer{}
	for rows.Next() {
		i, err := scanOffer(rows)
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

const createRedemption = `-- name: CreateRedemption :one
INSERT INTO redemptions (user_id, offer_id, points)
VALUES ($1, $2, $3)
RETURNING id, user_id, offer_id, points, created_at`

type CreateRedemptionParams struct {
	UserID  uuid.UUID `json:"user_id"`
	OfferID uuid.UUID `json:"offer_id"`
	Points  int32     `json:"points"`
}

func (q *Queries) CreateRedemption(ctx context.Context, arg CreateRedemptionParams) (Redemption, error) {
	row := q.db.QueryRow(ctx, createRedemption, arg.UserID, arg.OfferID, arg.Points)
	var i Redemption
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.OfferID,
		&i.Points,
		&i.CreatedAt,
	)
	return i, err
}
