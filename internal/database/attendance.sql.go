package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const attendanceColumns = `a.id, a.employee_id, e.name, a.date, a.check_in, a.check_out, a.status, a.notes, a.created_at, a.updated_at`

func scanAttendance(row interface{ Scan(...any) error }) (AttendanceRecord, error) {
	var i AttendanceRecord
	err := row.Scan(
		&i.ID,
		&i.EmployeeID,
		&i.EmployeeName,
		&i.Date,
		&i.CheckIn,
		&i.CheckOut,
		&i.Status,
		&i.Notes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listAttendance = `-- name: ListAttendance :many
SELECT ` + attendanceColumns + `
FROM attendance_records a
JOIN employees e ON e.id = a.employee_id
WHERE ($1::uuid IS NULL OR a.employee_id = $1::uuid)
  AND ($2::date IS NULL OR a.date >= $2::date)
  AND ($3::date IS NULL OR a.date <= $3::date)
  AND ($4::text IS NULL OR a.status = $4::text)
ORDER BY a.date DESC, lower(e.name)`

type ListAttendanceParams struct {
	EmployeeID pgtype.UUID `json:"employee_id"`
	From       pgtype.Date `json:"from"`
	To         pgtype.Date `json:"to"`
	Status     pgtype.Text `json:"status"`
}

func (q *Queries) ListAttendance(ctx context.Context, arg ListAttendanceParams) ([]AttendanceRecord, error) {
	rows, err := q.db.Query(ctx, listAttendance, arg.EmployeeID, arg.From, arg.To, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []AttendanceRecord{}
	for rows.Next() {
		i, err := scanAttendance(rows)
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

const getAttendance = `-- name: GetAttendance :one
SELECT ` + attendanceColumns + `
FROM attendance_records a
JOIN employees e ON e.id = a.employee_id
WHERE a.id = $1`

func (q *Queries) GetAttendance(ctx context.Context, id uuid.UUID) (AttendanceRecord, error) {
	return scanAttendance(q.db.QueryRow(ctx, getAttendance, id))
}

const getAttendanceByDay = `-- name: GetAttendanceByDay :one
SELECT ` + attendanceColumns + `
FROM attendance_records a
JOIN employees e ON e.id = a.employee_id
WHERE a.employee_id = $1 AND a.date = $2`

type GetAttendanceByDayParams struct {
	EmployeeID uuid.UUID   `json:"employee_id"`
	Date       pgtype.Date `json:"date"`
}

func (q *Queries) GetAttendanceByDay(ctx context.Context, arg GetAttendanceByDayParams) (AttendanceRecord, error) {
	return scanAttendance(q.db.QueryRow(ctx, getAttendanceByDay, arg.EmployeeID, arg.Date))
}

const createAttendance = `-- name: CreateAttendance :one
WITH a AS (
    INSERT INTO attendance_records (employee_id, date, check_in, check_out, status, notes)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING *
)
SELECT ` + attendanceColumns + `
FROM a JOIN employees e ON e.id = a.employee_id`

type CreateAttendanceParams struct {
	EmployeeID uuid.UUID   `json:"employee_id"`
	Date       pgtype.Date `json:"date"`
	CheckIn    pgtype.Time `json:"check_in"`
	CheckOut   pgtype.Time `json:"check_out"`
	Status     string      `json:"status"`
	Notes      string      `json:"notes"`
}

func (q *Queries) CreateAttendance(ctx context.Context, arg CreateAttendanceParams) (AttendanceRecord, error) {
	row := q.db.QueryRow(ctx, createAttendance,
		arg.EmployeeID,
		arg.Date,
		arg.CheckIn,
		arg.CheckOut,
		arg.Status,
		arg.Notes,
	)
	return scanAttendance(row)
}

const updateAttendance = `-- name: UpdateAttendance :one
WITH a AS (
    UPDATE attendance_records
    SET employee_id = $2, date = $3, check_in = $4, check_out = $5, status = $6, notes = $7, updated_at = now()
    WHERE id = $1
    RETURNING *
)
SELECT ` + attendanceColumns + `
FROM a JOIN employees e ON e.id = a.employee_id`

type UpdateAttendanceParams struct {
	ID         uuid.UUID   `json:"id"`
	EmployeeID uuid.UUID   `json:"employee_id"`
	Date       pgtype.Date `json:"date"`
	CheckIn    pgtype.Time `json:"check_in"`
	CheckOut   pgtype.Time `json:"check_out"`
	Status     string      `json:"status"`
	Notes      string      `json:"notes"`
}

func (q *Queries) UpdateAttendance(ctx context.Context, arg UpdateAttendanceParams) (AttendanceRecord, error) {
	row := q.db.QueryRow(ctx, updateAttendance,
		arg.ID,
		arg.EmployeeID,
		arg.Date,
		arg.CheckIn,
		arg.CheckOut,
		arg.Status,
		arg.Notes,
	)
	return scanAttendance(row)
}

const deleteAttendance = `-- name: DeleteAttendance :one
DELETE FROM attendance_records WHERE id = $1
RETURNING id`

func (q *Queries) DeleteAttendance(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteAttendance, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
