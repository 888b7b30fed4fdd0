package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"hashed_password"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	CreditPoints   int32     `json:"credit_points"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type MenuItem struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description pgtype.Text    `json:"description"`
	Category    string         `json:"category"`
	Price       pgtype.Numeric `json:"price"`
	ImageUrl    pgtype.Text    `json:"image_url"`
	IsAvailable bool           `json:"is_available"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type Order struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	OrderSeq      int32          `json:"order_seq"`
	OrderNumber   string         `json:"order_number"`
	Status        string         `json:"status"`
	PaymentMethod string         `json:"payment_method"`
	PaymentStatus string         `json:"payment_status"`
	Notes         pgtype.Text    `json:"notes"`
	TotalAmount   pgtype.Numeric `json:"total_amount"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type OrderItem struct {
	ID         uuid.UUID      `json:"id"`
	OrderID    uuid.UUID      `json:"order_id"`
	MenuItemID uuid.UUID      `json:"menu_item_id"`
	Name       string         `json:"name"`
	UnitPrice  pgtype.Numeric `json:"unit_price"`
	Quantity   int32          `json:"quantity"`
	Size       pgtype.Text    `json:"size"`
	Customize  pgtype.Text    `json:"customize"`
	ImageUrl   pgtype.Text    `json:"image_url"`
}

type CateringEvent struct {
	ID           uuid.UUID      `json:"id"`
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
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type CateringEventItem struct {
	ID         uuid.UUID      `json:"id"`
	EventID    uuid.UUID      `json:"event_id"`
	MenuItemID uuid.UUID      `json:"menu_item_id"`
	Name       string         `json:"name"`
	UnitPrice  pgtype.Numeric `json:"unit_price"`
	Quantity   int32          `json:"quantity"`
	ImageUrl   pgtype.Text    `json:"image_url"`
}

type Payment struct {
	ID        uuid.UUID      `json:"id"`
	Reference string         `json:"reference"`
	Target    string         `json:"target"`
	TargetID  uuid.UUID      `json:"target_id"`
	Kind      pgtype.Text    `json:"kind"`
	Method    string         `json:"method"`
	Amount    pgtype.Numeric `json:"amount"`
	CreatedAt time.Time      `json:"created_at"`
}

type Offer struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description pgtype.Text `json:"description"`
	Points      int32       `json:"points"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
}

type Redemption struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	OfferID   uuid.UUID `json:"offer_id"`
	Points    int32     `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

type Notification struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	MenuItemID pgtype.UUID `json:"menu_item_id"`
	Title      string      `json:"title"`
	Message    string      `json:"message"`
	CreatedAt  time.Time   `json:"created_at"`
}

type Employee struct {
	ID         uuid.UUID          `json:"id"`
	UserID     pgtype.UUID        `json:"user_id"`
	Name       string             `json:"name"`
	Position   string             `json:"position"`
	HourlyRate pgtype.Numeric     `json:"hourly_rate"`
	Contact    string             `json:"contact"`
	Status     string             `json:"status"`
	DeletedAt  pgtype.Timestamptz `json:"deleted_at"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// EmployeeSchedule rows are always read joined with the employee name.
type EmployeeSchedule struct {
	ID           uuid.UUID   `json:"id"`
	EmployeeID   uuid.UUID   `json:"employee_id"`
	EmployeeName string      `json:"employee_name"`
	Day          string      `json:"day"`
	StartTime    pgtype.Time `json:"start_time"`
	EndTime      pgtype.Time `json:"end_time"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type AttendanceRecord struct {
	ID           uuid.UUID   `json:"id"`
	EmployeeID   uuid.UUID   `json:"employee_id"`
	EmployeeName string      `json:"employee_name"`
	Date         pgtype.Date `json:"date"`
	CheckIn      pgtype.Time `json:"check_in"`
	CheckOut     pgtype.Time `json:"check_out"`
	Status       string      `json:"status"`
	Notes        string      `json:"notes"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type LeaveRecord struct {
	ID           uuid.UUID          `json:"id"`
	EmployeeID   uuid.UUID          `json:"employee_id"`
	EmployeeName string             `json:"employee_name"`
	StartDate    pgtype.Date        `json:"start_date"`
	EndDate      pgtype.Date        `json:"end_date"`
	Type         string             `json:"type"`
	Status       string             `json:"status"`
	Reason       string             `json:"reason"`
	DecidedBy    string             `json:"decided_by"`
	DecidedAt    pgtype.Timestamptz `json:"decided_at"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}
