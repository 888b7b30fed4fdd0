package database

import (
	"context"

	"github.com/google/uuid"
)

const userColumns = `id, email, hashed_password, full_name, role, credit_points, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.HashedPassword,
		&i.FullName,
		&i.Role,
		&i.CreditPoints,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (email, hashed_password, full_name, role, credit_points)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns

type CreateUserParams struct {
	Email          string `json:"email"`
	HashedPassword string `json:"hashed_password"`
	FullName       string `json:"full_name"`
	Role           string `json:"role"`
	CreditPoints   int32  `json:"credit_points"`
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.Email,
		arg.HashedPassword,
		arg.FullName,
		arg.Role,
		arg.CreditPoints,
	)
	return scanUser(row)
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users
WHERE lower(email) = lower($1) AND is_active = true`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users
WHERE id = $1 AND is_active = true`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const getUserPointsForUpdate = `-- name: GetUserPointsForUpdate :one
SELECT credit_points FROM users
WHERE id = $1
FOR UPDATE`

func (q *Queries) GetUserPointsForUpdate(ctx context.Context, id uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, getUserPointsForUpdate, id)
	var credit_points int32
	err := row.Scan(&credit_points)
	return credit_points, err
}

const getUserPoints = `-- name: GetUserPoints :one
SELECT credit_points FROM users
WHERE id = $1`

func (q *Queries) GetUserPoints(ctx context.Context, id uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, getUserPoints, id)
	var credit_points int32
	err := row.Scan(&credit_points)
	return credit_points, err
}

const setUserPoints = `-- name: SetUserPoints :one
UPDATE users SET credit_points = $2, updated_at = now()
WHERE id = $1
RETURNING credit_points`

type SetUserPointsParams struct {
	ID           uuid.UUID `json:"id"`
	CreditPoints int32     `json:"credit_points"`
}

func (q *Queries) SetUserPoints(ctx context.Context, arg SetUserPointsParams) (int32, error) {
	row := q.db.QueryRow(ctx, setUserPoints, arg.ID, arg.CreditPoints)
	var credit_points int32
	err := row.Scan(&credit_points)
	return credit_points, err
}

const addUserPoints = `-- name: AddUserPoints :one
UPDATE users SET credit_points = credit_points + $2, updated_at = now()
WHERE id = $1
RETURNING credit_points`

type AddUserPointsParams struct {
	ID     uuid.UUID `json:"id"`
	Points int32     `json:"points"`
}

func (q *Queries) AddUserPoints(ctx context.Context, arg AddUserPointsParams) (int32, error) {
	row := q.db.QueryRow(ctx, addUserPoints, arg.ID, arg.Points)
	var credit_points int32
	err := row.Scan(&credit_points)
	return credit_points, err
}
