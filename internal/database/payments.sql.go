package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const paymentColumns = `id, reference, target, target_id, kind, method, amount, created_at`

func scanPayment(row interface{ Scan(...any) error }) (Payment, error) {
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.Reference,
		&i.Target,
		&i.TargetID,
		&i.Kind,
		&i.Method,
		&i.Amount,
		&i.CreatedAt,
	)
	return i, err
}

const createPayment = `-- name: CreatePayment :one
INSERT INTO payments (reference, target, target_id, kind, method, amount)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + paymentColumns

type CreatePaymentParams struct {
	Reference string         `json:"reference"`
	Target    string         `json:"target"`
	TargetID  uuid.UUID      `json:"target_id"`
	Kind      pgtype.Text    `json:"kind"`
	Method    string         `json:"method"`
	Amount    pgtype.Numeric `json:"amount"`
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, createPayment,
		arg.Reference,
		arg.Target,
		arg.TargetID,
		arg.Kind,
		arg.Method,
		arg.Amount,
	)
	return scanPayment(row)
}

const getPaymentByReference = `-- name: GetPaymentByReference :one
SELECT ` + paymentColumns + ` FROM payments
WHERE reference = $1`

func (q *Queries) GetPaymentByReference(ctx context.Context, reference string) (Payment, error) {
	return scanPayment(q.db.QueryRow(ctx, getPaymentByReference, reference))
}

const listPaymentsByTarget = `-- name: ListPaymentsByTarget :many
SELECT ` + paymentColumns + ` FROM payments
WHERE target = $1 AND target_id = $2
ORDER BY created_at`

type ListPaymentsByTargetParams struct {
	Target   string    `json:"target"`
	TargetID uuid.UUID `json:"target_id"`
}

func (q *Queries) ListPaymentsByTarget(ctx context.Context, arg ListPaymentsByTargetParams) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsByTarget, arg.Target, arg.TargetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Payment{}
	for rows.Next() {
		i, err := scanPayment(rows)
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
