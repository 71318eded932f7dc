package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/karobar-labs/karobar-backend/pkg/database"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
)

// Attendance statuses
const (
	StatusPresent   = "present"
	StatusAbsent    = "absent"
	StatusLate      = "late"
	StatusHalfDay   = "half_day"
	StatusPaidLeave = "paid_leave"
	StatusHoliday   = "holiday"
)

// Queryer lets repository methods run against either the pool or an open
// transaction.
type Queryer = sqlx.ExtContext

// Attendance represents one employee's attendance record for one civil day
type Attendance struct {
	ID             string     `db:"id" json:"id"`
	EmployeeID     string     `db:"employee_id" json:"employee_id"`
	BusinessID     string     `db:"business_id" json:"business_id"`
	OwnerID        string     `db:"owner_id" json:"owner_id"`
	SessionID      *string    `db:"session_id" json:"session_id,omitempty"`
	AttendanceDate time.Time  `db:"attendance_date" json:"attendance_date"`
	CheckInTime    *string    `db:"check_in_time" json:"check_in_time,omitempty"`
	CheckOutTime   *string    `db:"check_out_time" json:"check_out_time,omitempty"`
	Status         string     `db:"status" json:"status"`
	AbsentReason   *string    `db:"absent_reason" json:"absent_reason,omitempty"`
	QRScannedAt    *time.Time `db:"qr_scanned_at" json:"qr_scanned_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	// Joined fields (populated by summary queries)
	EmployeeName *string `db:"employee_name" json:"employee_name,omitempty"`
}

const attendanceColumns = `
	id, employee_id, business_id, owner_id, session_id, attendance_date,
	check_in_time, check_out_time, status, absent_reason, qr_scanned_at,
	created_at, updated_at
`

// AttendanceRepository handles attendance persistence
type AttendanceRepository struct {
	db *database.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *database.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create inserts a new attendance record. The unique constraint on
// (employee_id, attendance_date) backs the one-record-per-day rule, so a
// racing duplicate surfaces as the same conflict the pre-check reports.
func (r *AttendanceRepository) Create(ctx context.Context, rec *Attendance) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	query := `
		INSERT INTO attendance (
			id, employee_id, business_id, owner_id, session_id, attendance_date,
			check_in_time, check_out_time, status, absent_reason, qr_scanned_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		rec.ID, rec.EmployeeID, rec.BusinessID, rec.OwnerID, rec.SessionID, rec.AttendanceDate,
		rec.CheckInTime, rec.CheckOutTime, rec.Status, rec.AbsentReason, rec.QRScannedAt,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByEmployeeAndDate gets the attendance record for an employee on a date.
// Returns (nil, nil) when no record exists.
func (r *AttendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date string) (*Attendance, error) {
	var rec Attendance

	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE employee_id = $1 AND attendance_date = $2`
	err := r.db.GetContext(ctx, &rec, query, employeeID, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// SetCheckOut sets the check-out time on a record that has none yet
func (r *AttendanceRepository) SetCheckOut(ctx context.Context, id string, checkOutTime string) error {
	query := `
		UPDATE attendance SET check_out_time = $2, updated_at = NOW()
		WHERE id = $1 AND check_out_time IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, checkOutTime)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.Conflict("Already checked out for today")
	}

	return nil
}

// UpdateStatus overwrites status, reason and check-in time on an existing record
func (r *AttendanceRepository) UpdateStatus(ctx context.Context, id, status string, absentReason, checkInTime *string) error {
	query := `
		UPDATE attendance SET status = $2, absent_reason = $3, check_in_time = $4, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, status, absentReason, checkInTime)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("attendance record")
	}

	return nil
}

// HistoryByEmployee returns an employee's attendance, most recent first
func (r *AttendanceRepository) HistoryByEmployee(ctx context.Context, employeeID string, limit int) ([]*Attendance, error) {
	records := make([]*Attendance, 0)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE employee_id = $1
		ORDER BY attendance_date DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &records, query, employeeID, limit); err != nil {
		return nil, err
	}

	return records, nil
}

// SummaryByBusinessAndDate returns all attendance rows of a business for one
// date with employee names attached
func (r *AttendanceRepository) SummaryByBusinessAndDate(ctx context.Context, businessID string, date string) ([]*Attendance, error) {
	records := make([]*Attendance, 0)

	query := `
		SELECT a.id, a.employee_id, a.business_id, a.owner_id, a.session_id, a.attendance_date,
		       a.check_in_time, a.check_out_time, a.status, a.absent_reason, a.qr_scanned_at,
		       a.created_at, a.updated_at,
		       e.name AS employee_name
		FROM attendance a
		JOIN employees e ON a.employee_id = e.id
		WHERE a.business_id = $1 AND a.attendance_date = $2
		ORDER BY e.name
	`
	if err := r.db.SelectContext(ctx, &records, query, businessID, date); err != nil {
		return nil, err
	}

	return records, nil
}

// SetHolidayForDate force-sets status=holiday on every existing attendance
// row of a business for the given date. Runs inside the holiday transaction.
func (r *AttendanceRepository) SetHolidayForDate(ctx context.Context, q Queryer, businessID string, date string) error {
	query := `
		UPDATE attendance SET status = $3, absent_reason = NULL, updated_at = NOW()
		WHERE business_id = $1 AND attendance_date = $2
	`
	_, err := q.ExecContext(ctx, query, businessID, date, StatusHoliday)
	return err
}

// InsertHolidayRows inserts a fresh holiday row for every active employee of
// the business who has no attendance row on the date yet. Runs inside the
// holiday transaction.
func (r *AttendanceRepository) InsertHolidayRows(ctx context.Context, q Queryer, businessID, ownerID string, date string) error {
	query := `
		INSERT INTO attendance (id, employee_id, business_id, owner_id, attendance_date, status)
		SELECT gen_random_uuid(), e.id, e.business_id, $2, $3, $4
		FROM employees e
		WHERE e.business_id = $1 AND e.is_active = TRUE
		  AND NOT EXISTS (
			SELECT 1 FROM attendance a
			WHERE a.employee_id = e.id AND a.attendance_date = $3
		  )
	`
	_, err := q.ExecContext(ctx, query, businessID, ownerID, date, StatusHoliday)
	return err
}

// RevertHolidayRows flips rows still in the holiday state back to absent.
// Rows whose status changed again after the holiday was marked are left
// untouched. Runs inside the holiday transaction.
func (r *AttendanceRepository) RevertHolidayRows(ctx context.Context, q Queryer, businessID string, date string) error {
	query := `
		UPDATE attendance SET status = $3, updated_at = NOW()
		WHERE business_id = $1 AND attendance_date = $2 AND status = $4
	`
	_, err := q.ExecContext(ctx, query, businessID, date, StatusAbsent, StatusHoliday)
	return err
}
