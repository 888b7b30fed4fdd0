package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/enum"
	"github.com/sanaol/canteen/internal/roster"
)

// Errors returned by the roster service.
var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrScheduleNotFound   = errors.New("schedule entry not found")
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrLeaveNotFound      = errors.New("leave record not found")
	ErrNoEmployeeProfile  = errors.New("no employee profile linked to your account")
	ErrNotYourRecord      = errors.New("record belongs to another employee")
	ErrEmployeeLinked     = errors.New("user is already linked to an employee")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrAttendanceExists   = errors.New("attendance already recorded for that day")
	ErrLoginIncomplete    = errors.New("email and password must be given together")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
)

const (
	employeeUserConstraint  = "employees_user_key"
	attendanceDayConstraint = "attendance_records_employee_date_key"
	userEmailConstraint     = "users_email_key"

	defaultEmployeePageSize = 50
	maxEmployeePageSize     = 500
	minStaffPasswordLength  = 8
)

// RosterStore defines the DB methods needed by the roster service.
type RosterStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error)

	ListEmployees(ctx context.Context, arg database.ListEmployeesParams) ([]database.Employee, error)
	CountEmployees(ctx context.Context, arg database.CountEmployeesParams) (int64, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (database.Employee, error)
	GetEmployeeForUser(ctx context.Context, arg database.GetEmployeeForUserParams) (database.Employee, error)
	CreateEmployee(ctx context.Context, arg database.CreateEmployeeParams) (database.Employee, error)
	UpdateEmployee(ctx context.Context, arg database.UpdateEmployeeParams) (database.Employee, error)
	SoftDeleteEmployee(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	ListSchedules(ctx context.Context, arg database.ListSchedulesParams) ([]database.EmployeeSchedule, error)
	GetSchedule(ctx context.Context, id uuid.UUID) (database.EmployeeSchedule, error)
	CreateSchedule(ctx context.Context, arg database.CreateScheduleParams) (database.EmployeeSchedule, error)
	UpdateSchedule(ctx context.Context, arg database.UpdateScheduleParams) (database.EmployeeSchedule, error)
	DeleteSchedule(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	ListAttendance(ctx context.Context, arg database.ListAttendanceParams) ([]database.AttendanceRecord, error)
	GetAttendance(ctx context.Context, id uuid.UUID) (database.AttendanceRecord, error)
	GetAttendanceByDay(ctx context.Context, arg database.GetAttendanceByDayParams) (database.AttendanceRecord, error)
	CreateAttendance(ctx context.Context, arg database.CreateAttendanceParams) (database.AttendanceRecord, error)
	UpdateAttendance(ctx context.Context, arg database.UpdateAttendanceParams) (database.AttendanceRecord, error)
	DeleteAttendance(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	ListLeaves(ctx context.Context, arg database.ListLeavesParams) ([]database.LeaveRecord, error)
	GetLeave(ctx context.Context, id uuid.UUID) (database.LeaveRecord, error)
	CreateLeave(ctx context.Context, arg database.CreateLeaveParams) (database.LeaveRecord, error)
	UpdateLeave(ctx context.Context, arg database.UpdateLeaveParams) (database.LeaveRecord, error)
	DeleteLeave(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// NewRosterStore creates a RosterStore from a DBTX (pool or tx).
type NewRosterStore func(db database.DBTX) RosterStore

// RosterService manages the employee directory, weekly schedules,
// attendance and leave. Admins manage everything; staff see and punch
// only their own records.
type RosterService struct {
	pool     Pool
	newStore NewRosterStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewRosterService creates a new RosterService.
func NewRosterService(pool Pool, newStore NewRosterStore, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{pool: pool, newStore: newStore, logger: logger, now: time.Now}
}

// Actor is the signed-in user a roster call is made for.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// Manager reports whether the actor may manage other employees.
func (a Actor) Manager() bool { return a.Role == enum.UserRoleAdmin }

// self finds the actor's own employee profile: by linked user first, then
// by an employee whose contact is the actor's email.
func (s *RosterService) self(ctx context.Context, store RosterStore, a Actor) (database.Employee, error) {
	email := ""
	user, err := store.GetUserByID(ctx, a.UserID)
	switch {
	case err == nil:
		email = user.Email
	case !errors.Is(err, pgx.ErrNoRows):
		return database.Employee{}, fmt.Errorf("get user: %w", err)
	}

	emp, err := store.GetEmployeeForUser(ctx, database.GetEmployeeForUserParams{UserID: a.UserID, Email: email})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Employee{}, ErrNoEmployeeProfile
		}
		return database.Employee{}, fmt.Errorf("get employee for user: %w", err)
	}
	return emp, nil
}

// scope returns the employee filter for a listing: the actor's own profile
// for staff, the requested employee (or everyone) for managers. ok is false
// when a staff actor has no profile and the listing is empty.
func (s *RosterService) scope(ctx context.Context, store RosterStore, a Actor, requested *uuid.UUID) (filter pgtype.UUID, ok bool, err error) {
	if a.Manager() {
		return optionalUUID(requested), true, nil
	}
	emp, err := s.self(ctx, store, a)
	if errors.Is(err, ErrNoEmployeeProfile) {
		return pgtype.UUID{}, false, nil
	}
	if err != nil {
		return pgtype.UUID{}, false, err
	}
	return pgtype.UUID{Bytes: emp.ID, Valid: true}, true, nil
}

func (s *RosterService) employee(ctx context.Context, store RosterStore, id uuid.UUID) (database.Employee, error) {
	emp, err := store.GetEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Employee{}, ErrEmployeeNotFound
		}
		return database.Employee{}, fmt.Errorf("get employee: %w", err)
	}
	return emp, nil
}

// =====================
// Employees
// =====================

// EmployeeQuery filters the directory listing.
type EmployeeQuery struct {
	Search string
	Status string
	Page   int
	Limit  int
}

// EmployeePage is one page of the directory.
type EmployeePage struct {
	Employees  []database.Employee
	Pagination Pagination
}

// ListEmployees pages through the directory ordered by name. Staff only
// ever see their own profile.
func (s *RosterService) ListEmployees(ctx context.Context, a Actor, q EmployeeQuery) (EmployeePage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultEmployeePageSize
	}
	if q.Limit > maxEmployeePageSize {
		q.Limit = maxEmployeePageSize
	}
	store := s.newStore(s.pool)

	if !a.Manager() {
		page := EmployeePage{Employees: []database.Employee{}, Pagination: Pagination{Page: 1, Limit: q.Limit, TotalPages: 1}}
		emp, err := s.self(ctx, store, a)
		if errors.Is(err, ErrNoEmployeeProfile) {
			return page, nil
		}
		if err != nil {
			return EmployeePage{}, err
		}
		page.Employees = append(page.Employees, emp)
		page.Pagination.Total = 1
		return page, nil
	}

	var status pgtype.Text
	if strings.TrimSpace(q.Status) != "" {
		st, err := roster.EmployeeStatus(q.Status)
		if err != nil {
			return EmployeePage{}, err
		}
		status = optionalText(st)
	}
	search := optionalText(strings.TrimSpace(q.Search))

	rows, err := store.ListEmployees(ctx, database.ListEmployeesParams{
		Search: search,
		Status: status,
		Limit:  int32(q.Limit),
		Offset: int32((q.Page - 1) * q.Limit),
	})
	if err != nil {
		return EmployeePage{}, fmt.Errorf("list employees: %w", err)
	}
	total, err := store.CountEmployees(ctx, database.CountEmployeesParams{Search: search, Status: status})
	if err != nil {
		return EmployeePage{}, fmt.Errorf("count employees: %w", err)
	}

	pages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	if pages < 1 {
		pages = 1
	}
	return EmployeePage{
		Employees:  rows,
		Pagination: Pagination{Page: q.Page, Limit: q.Limit, Total: int(total), TotalPages: pages},
	}, nil
}

// GetEmployee returns one profile. Another employee's profile looks
// missing to staff.
func (s *RosterService) GetEmployee(ctx context.Context, a Actor, id uuid.UUID) (database.Employee, error) {
	store := s.newStore(s.pool)
	if !a.Manager() {
		emp, err := s.self(ctx, store, a)
		if errors.Is(err, ErrNoEmployeeProfile) || (err == nil && emp.ID != id) {
			return database.Employee{}, ErrEmployeeNotFound
		}
		return emp, err
	}
	return s.employee(ctx, store, id)
}

// CreateEmployeeRequest adds a directory entry. When Email and Password are
// set a staff login is created and linked in the same transaction.
type CreateEmployeeRequest struct {
	Name       string
	Position   string
	HourlyRate decimal.Decimal
	Contact    string
	Status     string
	UserID     *uuid.UUID
	Email      string
	Password   string
}

// CreateEmployee validates and stores a new employee.
func (s *RosterService) CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (database.Employee, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return database.Employee{}, roster.ErrNameRequired
	}
	status, err := roster.EmployeeStatus(req.Status)
	if err != nil {
		return database.Employee{}, err
	}
	rate, err := roster.HourlyRate(req.HourlyRate)
	if err != nil {
		return database.Employee{}, err
	}
	email := strings.TrimSpace(req.Email)
	if (email == "") != (req.Password == "") {
		return database.Employee{}, ErrLoginIncomplete
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return database.Employee{}, ErrInvalidEmail
		}
		if len(req.Password) < minStaffPasswordLength {
			return database.Employee{}, ErrPasswordTooShort
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Employee{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	userID := optionalUUID(req.UserID)
	contact := strings.TrimSpace(req.Contact)
	if email != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return database.Employee{}, fmt.Errorf("hash password: %w", err)
		}
		user, err := store.CreateUser(ctx, database.CreateUserParams{
			Email:          email,
			HashedPassword: string(hash),
			FullName:       name,
			Role:           enum.UserRoleStaff,
		})
		if err != nil {
			if isUniqueViolation(err, userEmailConstraint) {
				return database.Employee{}, ErrEmailTaken
			}
			return database.Employee{}, fmt.Errorf("create staff login: %w", err)
		}
		userID = pgtype.UUID{Bytes: user.ID, Valid: true}
		if contact == "" {
			contact = email
		}
	}

	emp, err := store.CreateEmployee(ctx, database.CreateEmployeeParams{
		UserID:     userID,
		Name:       name,
		Position:   strings.TrimSpace(req.Position),
		HourlyRate: decimalToNumeric(rate),
		Contact:    contact,
		Status:     status,
	})
	if err != nil {
		return database.Employee{}, employeeWriteError("create employee", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Employee{}, fmt.Errorf("commit tx: %w", err)
	}

	s.logger.Info("employee created",
		zap.Stringer("employee_id", emp.ID),
		zap.Bool("login", email != ""),
	)
	return emp, nil
}

// EmployeeUpdate changes only the fields that are set. UnlinkUser clears
// the login link.
type EmployeeUpdate struct {
	Name       *string
	Position   *string
	HourlyRate *decimal.Decimal
	Contact    *string
	Status     *string
	UserID     *uuid.UUID
	UnlinkUser bool
}

// UpdateEmployee applies a partial update.
func (s *RosterService) UpdateEmployee(ctx context.Context, id uuid.UUID, u EmployeeUpdate) (database.Employee, error) {
	store := s.newStore(s.pool)
	cur, err := s.employee(ctx, store, id)
	if err != nil {
		return database.Employee{}, err
	}

	arg := database.UpdateEmployeeParams{
		ID:         cur.ID,
		UserID:     cur.UserID,
		Name:       cur.Name,
		Position:   cur.Position,
		HourlyRate: cur.HourlyRate,
		Contact:    cur.Contact,
		Status:     cur.Status,
	}
	if u.Name != nil {
		if arg.Name = strings.TrimSpace(*u.Name); arg.Name == "" {
			return database.Employee{}, roster.ErrNameRequired
		}
	}
	if u.Position != nil {
		arg.Position = strings.TrimSpace(*u.Position)
	}
	if u.HourlyRate != nil {
		rate, err := roster.HourlyRate(*u.HourlyRate)
		if err != nil {
			return database.Employee{}, err
		}
		arg.HourlyRate = decimalToNumeric(rate)
	}
	if u.Contact != nil {
		arg.Contact = strings.TrimSpace(*u.Contact)
	}
	if u.Status != nil {
		if arg.Status, err = roster.EmployeeStatus(*u.Status); err != nil {
			return database.Employee{}, err
		}
	}
	switch {
	case u.UnlinkUser:
		arg.UserID = pgtype.UUID{}
	case u.UserID != nil:
		arg.UserID = optionalUUID(u.UserID)
	}

	emp, err := store.UpdateEmployee(ctx, arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Employee{}, ErrEmployeeNotFound
		}
		return database.Employee{}, employeeWriteError("update employee", err)
	}
	return emp, nil
}

// DeleteEmployee soft-deletes a profile. Its records stay for history.
func (s *RosterService) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	if _, err := s.newStore(s.pool).SoftDeleteEmployee(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("delete employee: %w", err)
	}
	s.logger.Info("employee deleted", zap.Stringer("employee_id", id))
	return nil
}

func employeeWriteError(op string, err error) error {
	if isUniqueViolation(err, employeeUserConstraint) {
		return ErrEmployeeLinked
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrUserNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// =====================
// Schedules
// =====================

// ScheduleQuery filters the weekly schedule.
type ScheduleQuery struct {
	EmployeeID *uuid.UUID
	Day        string
}

// ListSchedules returns shifts ordered by employee, weekday and start time.
func (s *RosterService) ListSchedules(ctx context.Context, a Actor, q ScheduleQuery) ([]database.EmployeeSchedule, error) {
	var day pgtype.Text
	if strings.TrimSpace(q.Day) != "" {
		d, err := roster.Day(q.Day)
		if err != nil {
			return nil, err
		}
		day = optionalText(d)
	}

	store := s.newStore(s.pool)
	employee, ok, err := s.scope(ctx, store, a, q.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []database.EmployeeSchedule{}, nil
	}

	rows, err := store.ListSchedules(ctx, database.ListSchedulesParams{EmployeeID: employee, Day: day})
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return rows, nil
}

// ScheduleInput is a new weekly shift. Times are "HH:MM".
type ScheduleInput struct {
	EmployeeID uuid.UUID
	Day        string
	StartTime  string
	EndTime    string
}

// CreateSchedule adds a shift for an existing employee.
func (s *RosterService) CreateSchedule(ctx context.Context, in ScheduleInput) (database.EmployeeSchedule, error) {
	day, err := roster.Day(in.Day)
	if err != nil {
		return database.EmployeeSchedule{}, err
	}
	shift := roster.Shift{Day: day}
	if shift.Start, err = roster.ParseClock(in.StartTime); err != nil {
		return database.EmployeeSchedule{}, err
	}
	if shift.End, err = roster.ParseClock(in.EndTime); err != nil {
		return database.EmployeeSchedule{}, err
	}
	if err := shift.Validate(); err != nil {
		return database.EmployeeSchedule{}, err
	}

	store := s.newStore(s.pool)
	if _, err := s.employee(ctx, store, in.EmployeeID); err != nil {
		return database.EmployeeSchedule{}, err
	}

	row, err := store.CreateSchedule(ctx, database.CreateScheduleParams{
		EmployeeID: in.EmployeeID,
		Day:        shift.Day,
		StartTime:  clockToPg(&shift.Start),
		EndTime:    clockToPg(&shift.End),
	})
	if err != nil {
		return database.EmployeeSchedule{}, fmt.Errorf("create schedule: %w", err)
	}
	return row, nil
}

// ScheduleUpdate changes only the fields that are set.
type ScheduleUpdate struct {
	EmployeeID *uuid.UUID
	Day        *string
	StartTime  *string
	EndTime    *string
}

// UpdateSchedule applies a partial update and rechecks the shift.
func (s *RosterService) UpdateSchedule(ctx context.Context, id uuid.UUID, u ScheduleUpdate) (database.EmployeeSchedule, error) {
	store := s.newStore(s.pool)
	cur, err := store.GetSchedule(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.EmployeeSchedule{}, ErrScheduleNotFound
		}
		return database.EmployeeSchedule{}, fmt.Errorf("get schedule: %w", err)
	}

	employeeID := cur.EmployeeID
	shift := roster.Shift{
		Day:   cur.Day,
		Start: roster.FromMicros(cur.StartTime.Microseconds),
		End:   roster.FromMicros(cur.EndTime.Microseconds),
	}
	if u.Day != nil {
		if shift.Day, err = roster.Day(*u.Day); err != nil {
			return database.EmployeeSchedule{}, err
		}
	}
	if u.StartTime != nil {
		if shift.Start, err = roster.ParseClock(*u.StartTime); err != nil {
			return database.EmployeeSchedule{}, err
		}
	}
	if u.EndTime != nil {
		if shift.End, err = roster.ParseClock(*u.EndTime); err != nil {
			return database.EmployeeSchedule{}, err
		}
	}
	if err := shift.Validate(); err != nil {
		return database.EmployeeSchedule{}, err
	}
	if u.EmployeeID != nil && *u.EmployeeID != employeeID {
		if _, err := s.employee(ctx, store, *u.EmployeeID); err != nil {
			return database.EmployeeSchedule{}, err
		}
		employeeID = *u.EmployeeID
	}

	row, err := store.UpdateSchedule(ctx, database.UpdateScheduleParams{
		ID:         id,
		EmployeeID: employeeID,
		Day:        shift.Day,
		StartTime:  clockToPg(&shift.Start),
		EndTime:    clockToPg(&shift.End),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.EmployeeSchedule{}, ErrScheduleNotFound
		}
		return database.EmployeeSchedule{}, fmt.Errorf("update schedule: %w", err)
	}
	return row, nil
}

// DeleteSchedule removes a shift.
func (s *RosterService) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	if _, err := s.newStore(s.pool).DeleteSchedule(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// =====================
// Attendance
// =====================

// AttendanceQuery filters attendance. From and To are inclusive
// YYYY-MM-DD dates.
type AttendanceQuery struct {
	EmployeeID *uuid.UUID
	From       string
	To         string
	Status     string
}

// ListAttendance returns records newest day first.
func (s *RosterService) ListAttendance(ctx context.Context, a Actor, q AttendanceQuery) ([]database.AttendanceRecord, error) {
	arg := database.ListAttendanceParams{}
	if q.From != "" {
		from, err := roster.ParseDate(q.From)
		if err != nil {
			return nil, err
		}
		arg.From = dateToPg(from)
	}
	if q.To != "" {
		to, err := roster.ParseDate(q.To)
		if err != nil {
			return nil, err
		}
		arg.To = dateToPg(to)
	}
	if strings.TrimSpace(q.Status) != "" {
		st, err := roster.AttendanceStatus(q.Status)
		if err != nil {
			return nil, err
		}
		arg.Status = optionalText(st)
	}

	store := s.newStore(s.pool)
	employee, ok, err := s.scope(ctx, store, a, q.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []database.AttendanceRecord{}, nil
	}
	arg.EmployeeID = employee

	rows, err := store.ListAttendance(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return rows, nil
}

// AttendanceInput records a day. A nil field is not being set; an empty
// clock string clears the punch (managers only).
type AttendanceInput struct {
	EmployeeID *uuid.UUID
	Date       string
	CheckIn    *string
	CheckOut   *string
	Status     *string
	Notes      *string
}

// RecordAttendance creates or updates the record for one employee and day.
// Managers may set any field for anyone. Staff record only for themselves:
// the status is always present and existing punches are never overwritten.
// created reports whether a new record was inserted.
func (s *RosterService) RecordAttendance(ctx context.Context, a Actor, in AttendanceInput) (rec database.AttendanceRecord, created bool, err error) {
	if strings.TrimSpace(in.Date) == "" {
		return database.AttendanceRecord{}, false, roster.ErrDateRequired
	}
	date, err := roster.ParseDate(in.Date)
	if err != nil {
		return database.AttendanceRecord{}, false, err
	}
	checkIn, err := parseClockField(in.CheckIn)
	if err != nil {
		return database.AttendanceRecord{}, false, err
	}
	checkOut, err := parseClockField(in.CheckOut)
	if err != nil {
		return database.AttendanceRecord{}, false, err
	}
	status := roster.AttendancePresent
	if a.Manager() && in.Status != nil {
		if status, err = roster.AttendanceStatus(*in.Status); err != nil {
			return database.AttendanceRecord{}, false, err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.AttendanceRecord{}, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	var employeeID uuid.UUID
	if a.Manager() {
		if in.EmployeeID == nil {
			return database.AttendanceRecord{}, false, roster.ErrEmployeeRequired
		}
		if _, err := s.employee(ctx, store, *in.EmployeeID); err != nil {
			return database.AttendanceRecord{}, false, err
		}
		employeeID = *in.EmployeeID
	} else {
		emp, err := s.self(ctx, store, a)
		if err != nil {
			return database.AttendanceRecord{}, false, err
		}
		if in.EmployeeID != nil && *in.EmployeeID != emp.ID {
			return database.AttendanceRecord{}, false, ErrNotYourRecord
		}
		employeeID = emp.ID
	}

	existing, err := store.GetAttendanceByDay(ctx, database.GetAttendanceByDayParams{
		EmployeeID: employeeID,
		Date:       dateToPg(date),
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		day := roster.Attendance{Date: date, CheckIn: checkIn, CheckOut: checkOut, Status: status, Notes: stringValue(in.Notes)}
		if err := day.Validate(); err != nil {
			return database.AttendanceRecord{}, false, err
		}
		rec, err = store.CreateAttendance(ctx, database.CreateAttendanceParams{
			EmployeeID: employeeID,
			Date:       dateToPg(date),
			CheckIn:    clockToPg(day.CheckIn),
			CheckOut:   clockToPg(day.CheckOut),
			Status:     day.Status,
			Notes:      day.Notes,
		})
		if err != nil {
			if isUniqueViolation(err, attendanceDayConstraint) {
				return database.AttendanceRecord{}, false, ErrAttendanceExists
			}
			return database.AttendanceRecord{}, false, fmt.Errorf("create attendance: %w", err)
		}
		created = true
	case err != nil:
		return database.AttendanceRecord{}, false, fmt.Errorf("get attendance: %w", err)
	default:
		day := attendanceFromRow(existing)
		changed := false
		if a.Manager() {
			if in.CheckIn != nil {
				day.CheckIn, changed = checkIn, true
			}
			if in.CheckOut != nil {
				day.CheckOut, changed = checkOut, true
			}
			if in.Status != nil {
				day.Status, changed = status, true
			}
			if in.Notes != nil {
				day.Notes, changed = *in.Notes, true
			}
		} else {
			day, changed = roster.ApplyPunch(day, roster.Punch{CheckIn: checkIn, CheckOut: checkOut, Notes: stringValue(in.Notes)})
		}
		if !changed {
			return existing, false, nil
		}
		if err := day.Validate(); err != nil {
			return database.AttendanceRecord{}, false, err
		}
		rec, err = store.UpdateAttendance(ctx, attendanceUpdateParams(existing.ID, employeeID, day))
		if err != nil {
			return database.AttendanceRecord{}, false, fmt.Errorf("update attendance: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.AttendanceRecord{}, false, fmt.Errorf("commit tx: %w", err)
	}
	return rec, created, nil
}

// AttendanceUpdate edits a record by ID. Staff may only change their own
// punches and notes; the other fields are ignored for them.
type AttendanceUpdate struct {
	EmployeeID *uuid.UUID
	Date       *string
	CheckIn    *string
	CheckOut   *string
	Status     *string
	Notes      *string
}

// UpdateAttendance applies a partial update to one record.
func (s *RosterService) UpdateAttendance(ctx context.Context, a Actor, id uuid.UUID, u AttendanceUpdate) (database.AttendanceRecord, error) {
	store := s.newStore(s.pool)
	cur, err := store.GetAttendance(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.AttendanceRecord{}, ErrAttendanceNotFound
		}
		return database.AttendanceRecord{}, fmt.Errorf("get attendance: %w", err)
	}

	if !a.Manager() {
		emp, err := s.self(ctx, store, a)
		if err != nil {
			return database.AttendanceRecord{}, err
		}
		if emp.ID != cur.EmployeeID {
			return database.AttendanceRecord{}, ErrNotYourRecord
		}
		if u.CheckIn == nil && u.CheckOut == nil && u.Notes == nil {
			return database.AttendanceRecord{}, roster.ErrNothingToUpdate
		}
		u.EmployeeID, u.Date, u.Status = nil, nil, nil
	}

	day := attendanceFromRow(cur)
	employeeID := cur.EmployeeID
	if u.EmployeeID != nil && *u.EmployeeID != employeeID {
		if _, err := s.employee(ctx, store, *u.EmployeeID); err != nil {
			return database.AttendanceRecord{}, err
		}
		employeeID = *u.EmployeeID
	}
	if u.Date != nil {
		if day.Date, err = roster.ParseDate(*u.Date); err != nil {
			return database.AttendanceRecord{}, err
		}
	}
	if u.CheckIn != nil {
		if day.CheckIn, err = parseClockField(u.CheckIn); err != nil {
			return database.AttendanceRecord{}, err
		}
	}
	if u.CheckOut != nil {
		if day.CheckOut, err = parseClockField(u.CheckOut); err != nil {
			return database.AttendanceRecord{}, err
		}
	}
	if u.Status != nil {
		if day.Status, err = roster.AttendanceStatus(*u.Status); err != nil {
			return database.AttendanceRecord{}, err
		}
	}
	if u.Notes != nil {
		day.Notes = *u.Notes
	}
	if err := day.Validate(); err != nil {
		return database.AttendanceRecord{}, err
	}

	rec, err := store.UpdateAttendance(ctx, attendanceUpdateParams(id, employeeID, day))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.AttendanceRecord{}, ErrAttendanceNotFound
		}
		if isUniqueViolation(err, attendanceDayConstraint) {
			return database.AttendanceRecord{}, ErrAttendanceExists
		}
		return database.AttendanceRecord{}, fmt.Errorf("update attendance: %w", err)
	}
	return rec, nil
}

// DeleteAttendance removes a record.
func (s *RosterService) DeleteAttendance(ctx context.Context, id uuid.UUID) error {
	if _, err := s.newStore(s.pool).DeleteAttendance(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAttendanceNotFound
		}
		return fmt.Errorf("delete attendance: %w", err)
	}
	return nil
}

func attendanceFromRow(r database.AttendanceRecord) roster.Attendance {
	return roster.Attendance{
		Date:     dateValue(r.Date),
		CheckIn:  clockFromPg(r.CheckIn),
		CheckOut: clockFromPg(r.CheckOut),
		Status:   r.Status,
		Notes:    r.Notes,
	}
}

func attendanceUpdateParams(id, employeeID uuid.UUID, day roster.Attendance) database.UpdateAttendanceParams {
	return database.UpdateAttendanceParams{
		ID:         id,
		EmployeeID: employeeID,
		Date:       dateToPg(day.Date),
		CheckIn:    clockToPg(day.CheckIn),
		CheckOut:   clockToPg(day.CheckOut),
		Status:     day.Status,
		Notes:      day.Notes,
	}
}

// =====================
// Leave
// =====================

// LeaveQuery filters leave records.
type LeaveQuery struct {
	EmployeeID *uuid.UUID
	Status     string
	Type       string
}

// ListLeaves returns leave records, latest start first.
func (s *RosterService) ListLeaves(ctx context.Context, q LeaveQuery) ([]database.LeaveRecord, error) {
	arg := database.ListLeavesParams{EmployeeID: optionalUUID(q.EmployeeID)}
	if strings.TrimSpace(q.Status) != "" {
		st, err := roster.LeaveStatus(q.Status)
		if err != nil {
			return nil, err
		}
		arg.Status = optionalText(st)
	}
	if strings.TrimSpace(q.Type) != "" {
		typ, err := roster.LeaveType(q.Type)
		if err != nil {
			return nil, err
		}
		arg.Type = optionalText(typ)
	}

	rows, err := s.newStore(s.pool).ListLeaves(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("list leaves: %w", err)
	}
	return rows, nil
}

// LeaveInput is a new leave request.
type LeaveInput struct {
	EmployeeID *uuid.UUID
	StartDate  string
	EndDate    string
	Type       string
	Status     string
	Reason     string
}

// RequestLeave files a leave. Staff always file for themselves and their
// requests start pending; managers may file for anyone with any status.
func (s *RosterService) RequestLeave(ctx context.Context, a Actor, in LeaveInput) (database.LeaveRecord, error) {
	if strings.TrimSpace(in.StartDate) == "" || strings.TrimSpace(in.EndDate) == "" {
		return database.LeaveRecord{}, roster.ErrLeaveDateRequired
	}
	start, err := roster.ParseDate(in.StartDate)
	if err != nil {
		return database.LeaveRecord{}, err
	}
	end, err := roster.ParseDate(in.EndDate)
	if err != nil {
		return database.LeaveRecord{}, err
	}
	if err := roster.LeaveRange(start, end); err != nil {
		return database.LeaveRecord{}, err
	}
	typ, err := roster.LeaveType(in.Type)
	if err != nil {
		return database.LeaveRecord{}, err
	}
	status := roster.LeavePending
	if a.Manager() {
		if status, err = roster.LeaveStatus(in.Status); err != nil {
			return database.LeaveRecord{}, err
		}
	}

	store := s.newStore(s.pool)
	var employeeID uuid.UUID
	if a.Manager() {
		if in.EmployeeID == nil {
			return database.LeaveRecord{}, roster.ErrEmployeeRequired
		}
		if _, err := s.employee(ctx, store, *in.EmployeeID); err != nil {
			return database.LeaveRecord{}, err
		}
		employeeID = *in.EmployeeID
	} else {
		emp, err := s.self(ctx, store, a)
		if err != nil {
			return database.LeaveRecord{}, err
		}
		employeeID = emp.ID
	}

	rec, err := store.CreateLeave(ctx, database.CreateLeaveParams{
		EmployeeID: employeeID,
		StartDate:  dateToPg(start),
		EndDate:    dateToPg(end),
		Type:       typ,
		Status:     status,
		Reason:     strings.TrimSpace(in.Reason),
	})
	if err != nil {
		return database.LeaveRecord{}, fmt.Errorf("create leave: %w", err)
	}
	s.logger.Info("leave requested",
		zap.Stringer("leave_id", rec.ID),
		zap.Stringer("employee_id", employeeID),
		zap.Int("days", roster.LeaveDays(start, end)),
	)
	return rec, nil
}

// LeaveUpdate changes only the fields that are set.
type LeaveUpdate struct {
	EmployeeID *uuid.UUID
	StartDate  *string
	EndDate    *string
	Type       *string
	Status     *string
	Reason     *string
}

// UpdateLeave edits a leave record. Setting a status records who decided
// it and when.
func (s *RosterService) UpdateLeave(ctx context.Context, a Actor, id uuid.UUID, u LeaveUpdate) (database.LeaveRecord, error) {
	store := s.newStore(s.pool)
	cur, err := store.GetLeave(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.LeaveRecord{}, ErrLeaveNotFound
		}
		return database.LeaveRecord{}, fmt.Errorf("get leave: %w", err)
	}

	arg := database.UpdateLeaveParams{
		ID:         cur.ID,
		EmployeeID: cur.EmployeeID,
		StartDate:  cur.StartDate,
		EndDate:    cur.EndDate,
		Type:       cur.Type,
		Status:     cur.Status,
		Reason:     cur.Reason,
		DecidedBy:  cur.DecidedBy,
		DecidedAt:  cur.DecidedAt,
	}
	if u.EmployeeID != nil && *u.EmployeeID != cur.EmployeeID {
		if _, err := s.employee(ctx, store, *u.EmployeeID); err != nil {
			return database.LeaveRecord{}, err
		}
		arg.EmployeeID = *u.EmployeeID
	}
	if u.StartDate != nil {
		d, err := roster.ParseDate(*u.StartDate)
		if err != nil {
			return database.LeaveRecord{}, err
		}
		arg.StartDate = dateToPg(d)
	}
	if u.EndDate != nil {
		d, err := roster.ParseDate(*u.EndDate)
		if err != nil {
			return database.LeaveRecord{}, err
		}
		arg.EndDate = dateToPg(d)
	}
	if err := roster.LeaveRange(dateValue(arg.StartDate), dateValue(arg.EndDate)); err != nil {
		return database.LeaveRecord{}, err
	}
	if u.Type != nil {
		if arg.Type, err = roster.LeaveType(*u.Type); err != nil {
			return database.LeaveRecord{}, err
		}
	}
	if u.Reason != nil {
		arg.Reason = strings.TrimSpace(*u.Reason)
	}
	if u.Status != nil {
		if arg.Status, err = roster.LeaveStatus(*u.Status); err != nil {
			return database.LeaveRecord{}, err
		}
		arg.DecidedBy = s.deciderName(ctx, store, a)
		arg.DecidedAt = pgtype.Timestamptz{Time: s.now(), Valid: true}
	}

	rec, err := store.UpdateLeave(ctx, arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.LeaveRecord{}, ErrLeaveNotFound
		}
		return database.LeaveRecord{}, fmt.Errorf("update leave: %w", err)
	}
	if u.Status != nil {
		s.logger.Info("leave decided",
			zap.Stringer("leave_id", rec.ID),
			zap.String("status", rec.Status),
			zap.String("decided_by", rec.DecidedBy),
		)
	}
	return rec, nil
}

// deciderName is the email of the deciding user, or their ID when the
// account cannot be read.
func (s *RosterService) deciderName(ctx context.Context, store RosterStore, a Actor) string {
	user, err := store.GetUserByID(ctx, a.UserID)
	if err != nil {
		s.logger.Warn("look up leave decider", zap.Stringer("user_id", a.UserID), zap.Error(err))
		return a.UserID.String()
	}
	return user.Email
}

// DeleteLeave removes a leave record.
func (s *RosterService) DeleteLeave(ctx context.Context, id uuid.UUID) error {
	if _, err := s.newStore(s.pool).DeleteLeave(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLeaveNotFound
		}
		return fmt.Errorf("delete leave: %w", err)
	}
	return nil
}

// --- conversions ---

func optionalUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// parseClockField reads an optional "HH:MM". Nil or blank is no punch.
func parseClockField(s *string) (*roster.Clock, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	c, err := roster.ParseClock(*s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func clockToPg(c *roster.Clock) pgtype.Time {
	if c == nil {
		return pgtype.Time{}
	}
	return pgtype.Time{Microseconds: c.Micros(), Valid: true}
}

func clockFromPg(t pgtype.Time) *roster.Clock {
	if !t.Valid {
		return nil
	}
	c := roster.FromMicros(t.Microseconds)
	return &c
}
