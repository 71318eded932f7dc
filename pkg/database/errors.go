package database

import (
	"strings"

	"github.com/karobar-labs/karobar-backend/pkg/errors"
	"github.com/lib/pq"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: present, absent, late, half_day, paid_leave, holiday",
		})

	case strings.Contains(constraint, "amount_positive"):
		return errors.Validation(map[string]string{
			"amount": "must be greater than zero",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
// The constraint names here back the application-level duplicate guards, so the
// messages must match what the services return on their own pre-checks.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "attendance_employee_date"):
		return "Attendance already marked for today"
	case strings.Contains(constraint, "holidays_business_date"):
		return "Holiday already exists for this date"
	case strings.Contains(constraint, "businesses_owner"):
		return "Business already exists for this owner"
	case strings.Contains(constraint, "employees_active_mobile"):
		return "An active employee with this mobile number already exists"
	default:
		return "a record with these values already exists"
	}
}
