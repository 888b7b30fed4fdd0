package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/enum"
	"github.com/sanaol/canteen/internal/middleware"
	"github.com/sanaol/canteen/internal/service"
)

// AttendanceServicer defines the service methods needed by attendance and
// leave handlers.
type AttendanceServicer interface {
	ListAttendance(ctx context.Context, a service.Actor, q service.AttendanceQuery) ([]database.AttendanceRecord, error)
	RecordAttendance(ctx context.Context, a service.Actor, in service.AttendanceInput) (database.AttendanceRecord, bool, error)
	UpdateAttendance(ctx context.Context, a service.Actor, id uuid.UUID, u service.AttendanceUpdate) (database.AttendanceRecord, error)
	DeleteAttendance(ctx context.Context, id uuid.UUID) error

	ListLeaves(ctx context.Context, q service.LeaveQuery) ([]database.LeaveRecord, error)
	RequestLeave(ctx context.Context, a service.Actor, in service.LeaveInput) (database.LeaveRecord, error)
	UpdateLeave(ctx context.Context, a service.Actor, id uuid.UUID, u service.LeaveUpdate) (database.LeaveRecord, error)
	DeleteLeave(ctx context.Context, id uuid.UUID) error
}

// AttendanceHandler handles daily attendance and leave requests.
type AttendanceHandler struct {
	svc    AttendanceServicer
	logger *zap.Logger
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(svc AttendanceServicer, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{svc: svc, logger: nopIfNil(logger)}
}

// RegisterRoutes registers attendance endpoints at /attendance. Staff
// punch in and out for themselves; admins may delete records.
func (h *AttendanceHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireStaff)
	r.Get("/", h.List)
	r.Post("/", h.Record)
	r.Patch("/{id}", h.Update)
	r.With(middleware.RequireRole(enum.UserRoleAdmin)).Delete("/{id}", h.Delete)
}

// RegisterLeaveRoutes registers leave endpoints at /leaves. Staff file
// requests; listing and decisions are admin-only.
func (h *AttendanceHandler) RegisterLeaveRoutes(r chi.Router) {
	r.Use(middleware.RequireStaff)
	r.Post("/", h.RequestLeave)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.UserRoleAdmin))
		r.Get("/", h.ListLeaves)
		r.Patch("/{id}", h.UpdateLeave)
		r.Delete("/{id}", h.DeleteLeave)
	})
}

// --- Request / Response types ---

type attendanceRequest struct {
	EmployeeID *string `json:"employee_id"`
	Date       *string `json:"date"`
	CheckIn    *string `json:"check_in"`
	CheckOut   *string `json:"check_out"`
	Status     *string `json:"status"`
	Notes      *string `json:"notes"`
}

type attendanceResponse struct {
	ID           uuid.UUID `json:"id"`
	EmployeeID   uuid.UUID `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Date         string    `json:"date"`
	CheckIn      *string   `json:"check_in"`
	CheckOut     *string   `json:"check_out"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes"`
}

func toAttendanceResponse(a database.AttendanceRecord) attendanceResponse {
	return attendanceResponse{
		ID:           a.ID,
		EmployeeID:   a.EmployeeID,
		EmployeeName: a.EmployeeName,
		Date:         dateString(a.Date),
		CheckIn:      optionalClock(a.CheckIn),
		CheckOut:     optionalClock(a.CheckOut),
		Status:       a.Status,
		Notes:        a.Notes,
	}
}

type leaveRequest struct {
	EmployeeID *string `json:"employee_id"`
	StartDate  *string `json:"start_date"`
	EndDate    *string `json:"end_date"`
	Type       *string `json:"type"`
	Status     *string `json:"status"`
	Reason     *string `json:"reason"`
}

type leaveResponse struct {
	ID           uuid.UUID  `json:"id"`
	EmployeeID   uuid.UUID  `json:"employee_id"`
	EmployeeName string     `json:"employee_name"`
	StartDate    string     `json:"start_date"`
	EndDate      string     `json:"end_date"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	Reason       string     `json:"reason"`
	DecidedBy    string     `json:"decided_by,omitempty"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
}

func toLeaveResponse(l database.LeaveRecord) leaveResponse {
	resp := leaveResponse{
		ID:           l.ID,
		EmployeeID:   l.EmployeeID,
		EmployeeName: l.EmployeeName,
		StartDate:    dateString(l.StartDate),
		EndDate:      dateString(l.EndDate),
		Type:         l.Type,
		Status:       l.Status,
		Reason:       l.Reason,
		DecidedBy:    l.DecidedBy,
	}
	if l.DecidedAt.Valid {
		t := l.DecidedAt.Time
		resp.DecidedAt = &t
	}
	return resp
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// --- Attendance ---

// List handles GET /attendance?employee_id=&from=&to=&status=.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	employeeID, ok := optionalQueryID(w, r, "employee_id")
	if !ok {
		return
	}
	q := r.URL.Query()

	rows, err := h.svc.ListAttendance(r.Context(), actor, service.AttendanceQuery{
		EmployeeID: employeeID,
		From:       q.Get("from"),
		To:         q.Get("to"),
		Status:     q.Get("status"),
	})
	if err != nil {
		respondError(w, h.logger, "list attendance", err)
		return
	}
	resp := make([]attendanceResponse, len(rows))
	for i, a := range rows {
		resp[i] = toAttendanceResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Record handles POST /attendance. It creates the day's record (201) or
// updates the existing one (200).
func (h *AttendanceHandler) Record(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req attendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	employeeID, ok := optionalBodyID(w, req.EmployeeID, "employee_id")
	if !ok {
		return
	}

	rec, created, err := h.svc.RecordAttendance(r.Context(), actor, service.AttendanceInput{
		EmployeeID: employeeID,
		Date:       deref(req.Date),
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Status:     req.Status,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(w, h.logger, "record attendance", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toAttendanceResponse(rec))
}

// Update handles PATCH /attendance/{id}.
func (h *AttendanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "attendance")
	if !ok {
		return
	}
	var req attendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	employeeID, ok := optionalBodyID(w, req.EmployeeID, "employee_id")
	if !ok {
		return
	}

	rec, err := h.svc.UpdateAttendance(r.Context(), actor, id, service.AttendanceUpdate{
		EmployeeID: employeeID,
		Date:       req.Date,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Status:     req.Status,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(w, h.logger, "update attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceResponse(rec))
}

// Delete handles DELETE /attendance/{id}.
func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "attendance")
	if !ok {
		return
	}
	if err := h.svc.DeleteAttendance(r.Context(), id); err != nil {
		respondError(w, h.logger, "delete attendance", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Leave ---

// ListLeaves handles GET /leaves?employee_id=&status=&type=.
func (h *AttendanceHandler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := optionalQueryID(w, r, "employee_id")
	if !ok {
		return
	}
	rows, err := h.svc.ListLeaves(r.Context(), service.LeaveQuery{
		EmployeeID: employeeID,
		Status:     r.URL.Query().Get("status"),
		Type:       r.URL.Query().Get("type"),
	})
	if err != nil {
		respondError(w, h.logger, "list leaves", err)
		return
	}
	resp := make([]leaveResponse, len(rows))
	for i, l := range rows {
		resp[i] = toLeaveResponse(l)
	}
	writeJSON(w, http.StatusOK, resp)
}

// RequestLeave handles POST /leaves.
func (h *AttendanceHandler) RequestLeave(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req leaveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	employeeID, ok := optionalBodyID(w, req.EmployeeID, "employee_id")
	if !ok {
		return
	}

	rec, err := h.svc.RequestLeave(r.Context(), actor, service.LeaveInput{
		EmployeeID: employeeID,
		StartDate:  deref(req.StartDate),
		EndDate:    deref(req.EndDate),
		Type:       deref(req.Type),
		Status:     deref(req.Status),
		Reason:     deref(req.Reason),
	})
	if err != nil {
		respondError(w, h.logger, "request leave", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveResponse(rec))
}

// UpdateLeave handles PATCH /leaves/{id}.
func (h *AttendanceHandler) UpdateLeave(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "leave")
	if !ok {
		return
	}
	var req leaveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	employeeID, ok := optionalBodyID(w, req.EmployeeID, "employee_id")
	if !ok {
		return
	}

	rec, err := h.svc.UpdateLeave(r.Context(), actor, id, service.LeaveUpdate{
		EmployeeID: employeeID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Type:       req.Type,
		Status:     req.Status,
		Reason:     req.Reason,
	})
	if err != nil {
		respondError(w, h.logger, "update leave", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveResponse(rec))
}

// DeleteLeave handles DELETE /leaves/{id}.
func (h *AttendanceHandler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "leave")
	if !ok {
		return
	}
	if err := h.svc.DeleteLeave(r.Context(), id); err != nil {
		respondError(w, h.logger, "delete leave", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
