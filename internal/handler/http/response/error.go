package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-dtr/internal/domain/dtr"
	"github.com/cmlabs-hris/hris-dtr/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-dtr/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-dtr/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, "Invalid token")
	case errors.Is(err, jwt.ErrInvalidTokenType):
		Unauthorized(w, "Access token required")

	// DTR domain errors
	case errors.Is(err, dtr.ErrRecordNotFound):
		NotFound(w, "Daily time record not found")
	case errors.Is(err, dtr.ErrEmployeeIDRequired), errors.Is(err, schedule.ErrEmployeeIDRequired):
		BadRequest(w, "Employee ID is required", nil)
	case errors.Is(err, dtr.ErrInvalidDateRange):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, schedule.ErrDateHasTimeComponent):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrInvalidDirection):
		BadRequest(w, err.Error(), nil)

	// Schedule configuration errors
	case errors.Is(err, schedule.ErrAmbiguousAssignment):
		Conflict(w, "Employee has conflicting schedule assignments for this date")
	case errors.Is(err, schedule.ErrWorkScheduleNotFound):
		NotFound(w, "Work schedule not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
