package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const scheduleColumns = `s.id, s.employee_id, e.name, s.day, s.start_time, s.end_time, s.created_at, s.updated_at`

func scanSchedule(row interface{ Scan(...any) error }) (EmployeeSchedule, error) {
	var i EmployeeSchedule
	err := row.Scan(
		&i.ID,
		&i.EmployeeID,
		&i.EmployeeName,
		&i.Day,
		&i.StartTime,
		&i.EndTime,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listSchedules = `-- name: ListSchedules :many
SELECT ` + scheduleColumns + `
FROM employee_schedules s
JOIN employees e ON e.id = s.employee_id AND e.deleted_at IS NULL
WHERE ($1::uuid IS NULL OR s.employee_id = $1::uuid)
  AND ($2::text IS NULL OR s.day = $2::text)
ORDER BY lower(e.name),
         array_position(ARRAY['Sunday','Monday','Tuesday','Wednesday','Thursday','Friday','Saturday'], s.day),
         s.start_time`

type ListSchedulesParams struct {
	EmployeeID pgtype.UUID `json:"employee_id"`
	Day        pgtype.Text `json:"day"`
}

func (q *Queries) ListSchedules(ctx context.Context, arg ListSchedulesParams) ([]EmployeeSchedule, error) {
	rows, err := q.db.Query(ctx, listSchedules, arg.EmployeeID, arg.Day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []EmployeeSchedule{}
	for rows.Next() {
		i, err := scanSchedule(rows)
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

const getSchedule = `-- name: GetSchedule :one
SELECT ` + scheduleColumns + `
FROM employee_schedules s
JOIN employees e ON e.id = s.employee_id
WHERE s.id = $1`

func (q *Queries) GetSchedule(ctx context.Context, id uuid.UUID) (EmployeeSchedule, error) {
	return scanSchedule(q.db.QueryRow(ctx, getSchedule, id))
}

const createSchedule = `-- name: CreateSchedule :one
WITH s AS (
    INSERT INTO employee_schedules (employee_id, day, start_time, end_time)
    VALUES ($1, $2, $3, $4)
    RETURNING *
)
SELECT ` + scheduleColumns + `
FROM s JOIN employees e ON e.id = s.employee_id`

type CreateScheduleParams struct {
	EmployeeID uuid.UUID   `json:"employee_id"`
	Day        string      `json:"day"`
	StartTime  pgtype.Time `json:"start_time"`
	EndTime    pgtype.Time `json:"end_time"`
}

func (q *Queries) CreateSchedule(ctx context.Context, arg CreateScheduleParams) (EmployeeSchedule, error) {
	row := q.db.QueryRow(ctx, createSchedule, arg.EmployeeID, arg.Day, arg.StartTime, arg.EndTime)
	return scanSchedule(row)
}

const updateSchedule = `-- name: UpdateSchedule :one
WITH s AS (
    UPDATE employee_schedules
    SET employee_id = $2, day = $3, start_time = $4, end_time = $5, updated_at = now()
    WHERE id = $1
    RETURNING *
)
SELECT ` + scheduleColumns + `
FROM s JOIN employees e ON e.id = s.employee_id`

type UpdateScheduleParams struct {
	ID         uuid.UUID   `json:"id"`
	EmployeeID uuid.UUID   `json:"employee_id"`
	Day        string      `json:"day"`
	StartTime  pgtype.Time `json:"start_time"`
	EndTime    pgtype.Time `json:"end_time"`
}

func (q *Queries) UpdateSchedule(ctx context.Context, arg UpdateScheduleParams) (EmployeeSchedule, error) {
	row := q.db.QueryRow(ctx, updateSchedule, arg.ID, arg.EmployeeID, arg.Day, arg.StartTime, arg.EndTime)
	return scanSchedule(row)
}

const deleteSchedule = `-- name: DeleteSchedule :one
DELETE FROM employee_schedules WHERE id = $1
RETURNING id`

func (q *Queries) DeleteSchedule(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteSchedule, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
