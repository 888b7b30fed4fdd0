package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/catalog"
	"github.com/sanaol/canteen/internal/catering"
	"github.com/sanaol/canteen/internal/gateway"
	"github.com/sanaol/canteen/internal/loyalty"
	"github.com/sanaol/canteen/internal/orderstatus"
	"github.com/sanaol/canteen/internal/roster"
	"github.com/sanaol/canteen/internal/service"
	"github.com/sanaol/canteen/internal/settlement"
	"github.com/sanaol/canteen/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// pathID parses a UUID URL parameter, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

var (
	notFoundErrors = []error{
		service.ErrOrderNotFound,
		service.ErrEventNotFound,
		service.ErrMenuItemNotFound,
		service.ErrOfferNotFound,
		service.ErrUserNotFound,
		service.ErrEmployeeNotFound,
		service.ErrScheduleNotFound,
		service.ErrAttendanceNotFound,
		service.ErrLeaveNotFound,
	}
	validationErrors = []error{
		service.ErrEmptyItems,
		service.ErrInvalidPaymentMethod,
		service.ErrInvalidMenuItemID,
		service.ErrItemUnavailable,
		service.ErrInvalidStatus,
		service.ErrInvalidPrice,
		service.ErrMenuItemName,
		service.ErrCartItemID,
		service.ErrAmountMismatch,
		catering.ErrValidation,
		catering.ErrNoItems,
		catalog.ErrItemNotFound,
		catalog.ErrInvalidQuantity,
		gateway.ErrUnsupportedMethod,
		gateway.ErrInvalidAmount,
		service.ErrLoginIncomplete,
		service.ErrInvalidEmail,
		service.ErrPasswordTooShort,
		roster.ErrNameRequired,
		roster.ErrInvalidRate,
		roster.ErrInvalidStatus,
		roster.ErrInvalidDay,
		roster.ErrInvalidTime,
		roster.ErrInvalidDate,
		roster.ErrShiftOrder,
		roster.ErrCheckOutOrder,
		roster.ErrInvalidLeaveType,
		roster.ErrLeaveRange,
		roster.ErrNothingToUpdate,
		roster.ErrEmployeeRequired,
		roster.ErrDateRequired,
		roster.ErrLeaveDateRequired,
	}
	forbiddenErrors = []error{
		service.ErrNoEmployeeProfile,
		service.ErrNotYourRecord,
	}
	conflictErrors = []error{
		orderstatus.ErrInvalidTransition,
		service.ErrOrderNotCancellable,
		catering.ErrNotCancellable,
		settlement.ErrLedgerCancelled,
		loyalty.ErrInsufficientPoints,
		service.ErrEmployeeLinked,
		service.ErrEmailTaken,
		service.ErrAttendanceExists,
	}
)

func matchesAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case matchesAny(err, notFoundErrors):
		return http.StatusNotFound
	case matchesAny(err, validationErrors):
		return http.StatusBadRequest
	case matchesAny(err, conflictErrors):
		return http.StatusConflict
	case matchesAny(err, forbiddenErrors):
		return http.StatusForbidden
	case errors.Is(err, gateway.ErrBadSignature):
		return http.StatusUnauthorized
	case errors.Is(err, storage.ErrDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Unexpected errors are
// logged with op and hidden behind a generic message.
func respondError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(op, zap.Error(err))
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
