package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const leaveColumns = `l.id, l.employee_id, e.name, l.start_date, l.end_date, l.type, l.status, l.reason, l.decided_by, l.decided_at, l.created_at, l.updated_at`

func scanLeave(row interface{ Scan(...any) error }) (LeaveRecord, error) {
	var i LeaveRecord
	err := row.Scan(
		&i.ID,
		&i.EmployeeID,
		&i.EmployeeName,
		&i.StartDate,
		&i.EndDate,
		&i.Type,
		&i.Status,
		&i.Reason,
		&i.DecidedBy,
		&i.DecidedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listLeaves = `-- name: ListLeaves :many
SELECT ` + leaveColumns + `
FROM leave_records l
JOIN employees e ON e.id = l.employee_id
WHERE ($1::uuid IS NULL OR l.employee_id = $1::uuid)
  AND ($2::text IS NULL OR l.status = $2::text)
  AND ($3::text IS NULL OR l.type = $3::text)
ORDER BY l.start_date DESC, lower(e.name)`

type ListLeavesParams struct {
	EmployeeID pgtype.UUID `json:"employee_id"`
	Status     pgtype.Text `json:"status"`
	Type       pgtype.Text `json:"type"`
}

func (q *Queries) ListLeaves(ctx context.Context, arg ListLeavesParams) ([]LeaveRecord, error) {
	rows, err := q.db.Query(ctx, listLeaves, arg.EmployeeID, arg.Status, arg.Type)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LeaveRecord{}
	for rows.Next() {
		i, err := scanLeave(rows)
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

const getLeave = `-- name: GetLeave :one
SELECT ` + leaveColumns + `
FROM leave_records l
JOIN employees e ON e.id = l.employee_id
WHERE l.id = $1`

func (q *Queries) GetLeave(ctx context.Context, id uuid.UUID) (LeaveRecord, error) {
	return scanLeave(q.db.QueryRow(ctx, getLeave, id))
}

const createLeave = `-- name: CreateLeave :one
WITH l AS (
    INSERT INTO leave_records (employee_id, start_date, end_date, type, status, reason)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING *
)
SELECT ` + leaveColumns + `
FROM l JOIN employees e ON e.id = l.employee_id`

type CreateLeaveParams struct {
	EmployeeID uuid.UUID   `json:"employee_id"`
	StartDate  pgtype.Date `json:"start_date"`
	EndDate    pgtype.Date `json:"end_date"`
	Type       string      `json:"type"`
	Status     string      `json:"status"`
	Reason     string      `json:"reason"`
}

func (q *Queries) CreateLeave(ctx context.Context, arg CreateLeaveParams) (LeaveRecord, error) {
	row := q.db.QueryRow(ctx, createLeave,
		arg.EmployeeID,
		arg.StartDate,
		arg.EndDate,
		arg.Type,
		arg.Status,
		arg.Reason,
	)
	return scanLeave(row)
}

const updateLeave = `-- name: UpdateLeave :one
WITH l AS (
    UPDATE leave_records
    SET employee_id = $2, start_date = $3, end_date = $4, type = $5, status = $6, reason = $7,
        decided_by = $8, decided_at = $9, updated_at = now()
    WHERE id = $1
    RETURNING *
)
SELECT ` + leaveColumns + `
FROM l JOIN employees e ON e.id = l.employee_id`

type UpdateLeaveParams struct {
	ID         uuid.UUID          `json:"id"`
	EmployeeID uuid.UUID          `json:"employee_id"`
	StartDate  pgtype.Date        `json:"start_date"`
	EndDate    pgtype.Date        `json:"end_date"`
	Type       string             `json:"type"`
	Status     string             `json:"status"`
	Reason     string             `json:"reason"`
	DecidedBy  string             `json:"decided_by"`
	DecidedAt  pgtype.Timestamptz `json:"decided_at"`
}

func (q *Queries) UpdateLeave(ctx context.Context, arg UpdateLeaveParams) (LeaveRecord, error) {
	row := q.db.QueryRow(ctx, updateLeave,
		arg.ID,
		arg.EmployeeID,
		arg.StartDate,
		arg.EndDate,
		arg.Type,
		arg.Status,
		arg.Reason,
		arg.DecidedBy,
		arg.DecidedAt,
	)
	return scanLeave(row)
}

const deleteLeave = `-- name: DeleteLeave :one
DELETE FROM leave_records WHERE id = $1
RETURNING id`

func (q *Queries) DeleteLeave(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteLeave, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
