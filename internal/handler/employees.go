package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/enum"
	"github.com/sanaol/canteen/internal/middleware"
	"github.com/sanaol/canteen/internal/roster"
	"github.com/sanaol/canteen/internal/service"
)

// EmployeeServicer defines the service methods needed by employee handlers.
// Satisfied by *service.RosterService.
type EmployeeServicer interface {
	ListEmployees(ctx context.Context, a service.Actor, q service.EmployeeQuery) (service.EmployeePage, error)
	GetEmployee(ctx context.Context, a service.Actor, id uuid.UUID) (database.Employee, error)
	CreateEmployee(ctx context.Context, req service.CreateEmployeeRequest) (database.Employee, error)
	UpdateEmployee(ctx context.Context, id uuid.UUID, u service.EmployeeUpdate) (database.Employee, error)
	DeleteEmployee(ctx context.Context, id uuid.UUID) error
}

// EmployeeHandler handles the employee directory.
type EmployeeHandler struct {
	svc    EmployeeServicer
	logger *zap.Logger
}

// NewEmployeeHandler creates a new EmployeeHandler.
func NewEmployeeHandler(svc EmployeeServicer, logger *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{svc: svc, logger: nopIfNil(logger)}
}

// RegisterRoutes registers employee endpoints. Expected to be mounted at
// /employees behind the Authenticate middleware. Staff may read their own
// profile; changes are admin-only.
func (h *EmployeeHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireStaff)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.UserRoleAdmin))
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// --- Request / Response types ---

type createEmployeeRequest struct {
	Name       string  `json:"name"`
	Position   string  `json:"position"`
	HourlyRate string  `json:"hourly_rate"`
	Contact    string  `json:"contact"`
	Status     string  `json:"status"`
	UserID     *string `json:"user_id"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
}

// updateEmployeeRequest is a partial update. An empty user_id unlinks the
// login.
type updateEmployeeRequest struct {
	Name       *string `json:"name"`
	Position   *string `json:"position"`
	HourlyRate *string `json:"hourly_rate"`
	Contact    *string `json:"contact"`
	Status     *string `json:"status"`
	UserID     *string `json:"user_id"`
}

type employeeResponse struct {
	ID         uuid.UUID  `json:"id"`
	UserID     *uuid.UUID `json:"user_id"`
	Name       string     `json:"name"`
	Position   string     `json:"position"`
	HourlyRate string     `json:"hourly_rate"`
	Contact    string     `json:"contact"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type employeeListResponse struct {
	Employees  []employeeResponse `json:"employees"`
	Pagination service.Pagination `json:"pagination"`
}

func toEmployeeResponse(e database.Employee) employeeResponse {
	return employeeResponse{
		ID:         e.ID,
		UserID:     uuidPtr(e.UserID),
		Name:       e.Name,
		Position:   e.Position,
		HourlyRate: numericToString(e.HourlyRate),
		Contact:    e.Contact,
		Status:     e.Status,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// --- Handlers ---

// List handles GET /employees?search=&status=&page=&limit=.
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	q := service.EmployeeQuery{
		Search: r.URL.Query().Get("search"),
		Status: r.URL.Query().Get("status"),
	}
	var err error
	if q.Page, err = intParam(r, "page"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}
	if q.Limit, err = intParam(r, "limit"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	page, err := h.svc.ListEmployees(r.Context(), actor, q)
	if err != nil {
		respondError(w, h.logger, "list employees", err)
		return
	}

	resp := employeeListResponse{Employees: make([]employeeResponse, len(page.Employees)), Pagination: page.Pagination}
	for i, e := range page.Employees {
		resp.Employees[i] = toEmployeeResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /employees/{id}.
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "employee")
	if !ok {
		return
	}
	emp, err := h.svc.GetEmployee(r.Context(), actor, id)
	if err != nil {
		respondError(w, h.logger, "get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeResponse(emp))
}

// Create handles POST /employees.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := service.CreateEmployeeRequest{
		Name:     req.Name,
		Position: req.Position,
		Contact:  req.Contact,
		Status:   req.Status,
		Email:    req.Email,
		Password: req.Password,
	}
	if req.HourlyRate != "" {
		rate, err := decimal.NewFromString(req.HourlyRate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid hourly_rate")
			return
		}
		in.HourlyRate = rate
	}
	if req.UserID != nil && *req.UserID != "" {
		uid, err := uuid.Parse(*req.UserID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		in.UserID = &uid
	}

	emp, err := h.svc.CreateEmployee(r.Context(), in)
	if err != nil {
		respondError(w, h.logger, "create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeResponse(emp))
}

// Update handles PATCH /employees/{id}.
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "employee")
	if !ok {
		return
	}
	var req updateEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u := service.EmployeeUpdate{
		Name:     req.Name,
		Position: req.Position,
		Contact:  req.Contact,
		Status:   req.Status,
	}
	if req.HourlyRate != nil {
		rate, err := decimal.NewFromString(*req.HourlyRate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid hourly_rate")
			return
		}
		u.HourlyRate = &rate
	}
	if req.UserID != nil {
		if strings.TrimSpace(*req.UserID) == "" {
			u.UnlinkUser = true
		} else {
			uid, err := uuid.Parse(*req.UserID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid user_id")
				return
			}
			u.UserID = &uid
		}
	}
	if u == (service.EmployeeUpdate{}) {
		writeError(w, http.StatusBadRequest, roster.ErrNothingToUpdate.Error())
		return
	}

	emp, err := h.svc.UpdateEmployee(r.Context(), id, u)
	if err != nil {
		respondError(w, h.logger, "update employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeResponse(emp))
}

// Delete handles DELETE /employees/{id}.
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "employee")
	if !ok {
		return
	}
	if err := h.svc.DeleteEmployee(r.Context(), id); err != nil {
		respondError(w, h.logger, "delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- shared roster helpers ---

// actorFrom reads the caller from the request claims.
func actorFrom(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return service.Actor{}, false
	}
	return service.Actor{UserID: claims.UserID, Role: claims.Role}, true
}

// optionalQueryID parses an optional UUID query parameter.
func optionalQueryID(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}
	id, err := uuid.Parse(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return nil, false
	}
	return &id, true
}

// optionalBodyID parses an optional UUID body field.
func optionalBodyID(w http.ResponseWriter, v *string, name string) (*uuid.UUID, bool) {
	if v == nil || *v == "" {
		return nil, true
	}
	id, err := uuid.Parse(*v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return nil, false
	}
	return &id, true
}

func uuidPtr(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	u := uuid.UUID(id.Bytes)
	return &u
}

func clockString(t pgtype.Time) string {
	return roster.FromMicros(t.Microseconds).String()
}

func optionalClock(t pgtype.Time) *string {
	if !t.Valid {
		return nil
	}
	s := clockString(t)
	return &s
}

func dateString(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(roster.DateLayout)
}
