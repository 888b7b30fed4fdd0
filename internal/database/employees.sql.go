package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const employeeColumns = `id, user_id, name, position, hourly_rate, contact, status, deleted_at, created_at, updated_at`

func scanEmployee(row interface{ Scan(...any) error }) (Employee, error) {
	var i Employee
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.Position,
		&i.HourlyRate,
		&i.Contact,
		&i.Status,
		&i.DeletedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listEmployees = `-- name: ListEmployees :many
SELECT ` + employeeColumns + ` FROM employees
WHERE deleted_at IS NULL
  AND ($1::text IS NULL
       OR name ILIKE '%' || $1::text || '%'
       OR position ILIKE '%' || $1::text || '%'
       OR contact ILIKE '%' || $1::text || '%')
  AND ($2::text IS NULL OR status = $2::text)
ORDER BY lower(name), id
LIMIT $3 OFFSET $4`

type ListEmployeesParams struct {
	Search pgtype.Text `json:"search"`
	Status pgtype.Text `json:"status"`
	Limit  int32       `json:"limit"`
	Offset int32       `json:"offset"`
}

func (q *Queries) ListEmployees(ctx context.Context, arg ListEmployeesParams) ([]Employee, error) {
	rows, err := q.db.Query(ctx, listEmployees, arg.Search, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Employee{}
	for rows.Next() {
		i, err := scanEmployee(rows)
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

const countEmployees = `-- name: CountEmployees :one
SELECT count(*) FROM employees
WHERE deleted_at IS NULL
  AND ($1::text IS NULL
       OR name ILIKE '%' || $1::text || '%'
       OR position ILIKE '%' || $1::text || '%'
       OR contact ILIKE '%' || $1::text || '%')
  AND ($2::text IS NULL OR status = $2::text)`

type CountEmployeesParams struct {
	Search pgtype.Text `json:"search"`
	Status pgtype.Text `json:"status"`
}

func (q *Queries) CountEmployees(ctx context.Context, arg CountEmployeesParams) (int64, error) {
	row := q.db.QueryRow(ctx, countEmployees, arg.Search, arg.Status)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getEmployee = `-- name: GetEmployee :one
SELECT ` + employeeColumns + ` FROM employees
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) GetEmployee(ctx context.Context, id uuid.UUID) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, getEmployee, id))
}

const getEmployeeForUser = `-- name: GetEmployeeForUser :one
SELECT ` + employeeColumns + ` FROM employees
WHERE deleted_at IS NULL
  AND (user_id = $1 OR ($2::text <> '' AND lower(contact) = lower($2::text)))
ORDER BY (user_id IS NOT DISTINCT FROM $1) DESC, created_at
LIMIT 1`

type GetEmployeeForUserParams struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// GetEmployeeForUser finds the profile linked to a login, falling back to an
// employee whose contact is the login's email.
func (q *Queries) GetEmployeeForUser(ctx context.Context, arg GetEmployeeForUserParams) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, getEmployeeForUser, arg.UserID, arg.Email))
}

const createEmployee = `-- name: CreateEmployee :one
INSERT INTO employees (user_id, name, position, hourly_rate, contact, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + employeeColumns

type CreateEmployeeParams struct {
	UserID     pgtype.UUID    `json:"user_id"`
	Name       string         `json:"name"`
	Position   string         `json:"position"`
	HourlyRate pgtype.Numeric `json:"hourly_rate"`
	Contact    string         `json:"contact"`
	Status     string         `json:"status"`
}

func (q *Queries) CreateEmployee(ctx context.Context, arg CreateEmployeeParams) (Employee, error) {
	row := q.db.QueryRow(ctx, createEmployee,
		arg.UserID,
		arg.Name,
		arg.Position,
		arg.HourlyRate,
		arg.Contact,
		arg.Status,
	)
	return scanEmployee(row)
}

const updateEmployee = `-- name: UpdateEmployee :one
UPDATE employees
SET user_id = $2, name = $3, position = $4, hourly_rate = $5, contact = $6, status = $7, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + employeeColumns

type UpdateEmployeeParams struct {
	ID         uuid.UUID      `json:"id"`
	UserID     pgtype.UUID    `json:"user_id"`
	Name       string         `json:"name"`
	Position   string         `json:"position"`
	HourlyRate pgtype.Numeric `json:"hourly_rate"`
	Contact    string         `json:"contact"`
	Status     string         `json:"status"`
}

func (q *Queries) UpdateEmployee(ctx context.Context, arg UpdateEmployeeParams) (Employee, error) {
	row := q.db.QueryRow(ctx, updateEmployee,
		arg.ID,
		arg.UserID,
		arg.Name,
		arg.Position,
		arg.HourlyRate,
		arg.Contact,
		arg.Status,
	)
	return scanEmployee(row)
}

const softDeleteEmployee = `-- name: SoftDeleteEmployee :one
UPDATE employees SET deleted_at = now(), updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING id`

func (q *Queries) SoftDeleteEmployee(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteEmployee, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
