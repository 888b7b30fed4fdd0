package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/enum"
	"github.com/sanaol/canteen/internal/middleware"
	"github.com/sanaol/canteen/internal/service"
)

// ScheduleServicer defines the service methods needed by schedule handlers.
type ScheduleServicer interface {
	ListSchedules(ctx context.Context, a service.Actor, q service.ScheduleQuery) ([]database.EmployeeSchedule, error)
	CreateSchedule(ctx context.Context, in service.ScheduleInput) (database.EmployeeSchedule, error)
	UpdateSchedule(ctx context.Context, id uuid.UUID, u service.ScheduleUpdate) (database.EmployeeSchedule, error)
	DeleteSchedule(ctx context.Context, id uuid.UUID) error
}

// ScheduleHandler handles the weekly shift schedule.
type ScheduleHandler struct {
	svc    ScheduleServicer
	logger *zap.Logger
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(svc ScheduleServicer, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, logger: nopIfNil(logger)}
}

// RegisterRoutes registers schedule endpoints at /schedule. Staff read
// their own shifts; admins edit the schedule.
func (h *ScheduleHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireStaff)
	r.Get("/", h.List)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.UserRoleAdmin))
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

type employeeScheduleRequest struct {
	EmployeeID *string `json:"employee_id"`
	Day        *string `json:"day"`
	StartTime  *string `json:"start_time"`
	EndTime    *string `json:"end_time"`
}

type scheduleResponse struct {
	ID           uuid.UUID `json:"id"`
	EmployeeID   uuid.UUID `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Day          string    `json:"day"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
}

func toScheduleResponse(s database.EmployeeSchedule) scheduleResponse {
	return scheduleResponse{
		ID:           s.ID,
		EmployeeID:   s.EmployeeID,
		EmployeeName: s.EmployeeName,
		Day:          s.Day,
		StartTime:    clockString(s.StartTime),
		EndTime:      clockString(s.EndTime),
	}
}

// List handles GET /schedule?employee_id=&day=.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	employeeID, ok := optionalQueryID(w, r, "employee_id")
	if !ok {
		return
	}

	rows, err := h.svc.ListSchedules(r.Context(), actor, service.ScheduleQuery{
		EmployeeID: employeeID,
		Day:        r.URL.Query().Get("day"),
	})
	if err != nil {
		respondError(w, h.logger, "list schedules", err)
		return
	}
	resp := make([]scheduleResponse, len(rows))
	for i, s := range rows {
		resp[i] = toScheduleResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /schedule.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req employeeScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EmployeeID == nil || req.Day == nil || req.StartTime == nil || req.EndTime == nil {
		writeError(w, http.StatusBadRequest, "employee_id, day, start_time and end_time are required")
		return
	}
	employeeID, err := uuid.Parse(*req.EmployeeID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee_id")
		return
	}

	row, err := h.svc.CreateSchedule(r.Context(), service.ScheduleInput{
		EmployeeID: employeeID,
		Day:        *req.Day,
		StartTime:  *req.StartTime,
		EndTime:    *req.EndTime,
	})
	if err != nil {
		respondError(w, h.logger, "create schedule", err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleResponse(row))
}

// Update handles PATCH /schedule/{id}.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "schedule")
	if !ok {
		return
	}
	var req employeeScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	employeeID, ok := optionalBodyID(w, req.EmployeeID, "employee_id")
	if !ok {
		return
	}

	row, err := h.svc.UpdateSchedule(r.Context(), id, service.ScheduleUpdate{
		EmployeeID: employeeID,
		Day:        req.Day,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	})
	if err != nil {
		respondError(w, h.logger, "update schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponse(row))
}

// Delete handles DELETE /schedule/{id}.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "schedule")
	if !ok {
		return
	}
	if err := h.svc.DeleteSchedule(r.Context(), id); err != nil {
		respondError(w, h.logger, "delete schedule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
