package service

import (
	"context"
	"time"

	"github.com/karobar-labs/karobar-backend/internal/attendance/repository"
	"github.com/karobar-labs/karobar-backend/internal/notification"
	staffrepo "github.com/karobar-labs/karobar-backend/internal/staff/repository"
	"github.com/karobar-labs/karobar-backend/pkg/civiltime"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
	"github.com/karobar-labs/karobar-backend/pkg/logger"
	"github.com/karobar-labs/karobar-backend/pkg/messaging"
)

// Check-in methods
const (
	MethodQR     = "qr"
	MethodDirect = "direct"
)

// EventPublisher publishes domain events. May be nil when messaging is
// disabled.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// QRAttendanceInput is the payload an employee's device sends after scanning
type QRAttendanceInput struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	SessionID  string `json:"session_id" validate:"required"`
}

// ManualMarkInput sets today's attendance for one employee
type ManualMarkInput struct {
	EmployeeID   string  `json:"employee_id" validate:"required,uuid"`
	Status       string  `json:"status" validate:"required,oneof=present absent late half_day paid_leave"`
	AbsentReason *string `json:"absent_reason,omitempty" validate:"omitempty,max=255"`
}

// BackdatedMarkInput sets attendance for a past (or current) date
type BackdatedMarkInput struct {
	EmployeeID   string  `json:"employee_id" validate:"required,uuid"`
	Date         string  `json:"date" validate:"required"`
	Status       string  `json:"status" validate:"required,oneof=present absent late half_day paid_leave"`
	CheckInTime  *string `json:"check_in_time,omitempty" validate:"omitempty,max=8"`
	CheckOutTime *string `json:"check_out_time,omitempty" validate:"omitempty,max=8"`
	AbsentReason *string `json:"absent_reason,omitempty" validate:"omitempty,max=255"`
}

// AttendanceService implements the attendance state machine
type AttendanceService struct {
	attendance *repository.AttendanceRepository
	sessions   *repository.SessionRepository
	holidays   *repository.HolidayRepository
	employees  *staffrepo.EmployeeRepository
	businesses *staffrepo.BusinessRepository
	publisher  EventPublisher
	notifier   *notification.Dispatcher
	clock      civiltime.Clock
	logger     *logger.Logger
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	attendance *repository.AttendanceRepository,
	sessions *repository.SessionRepository,
	holidays *repository.HolidayRepository,
	employees *staffrepo.EmployeeRepository,
	businesses *staffrepo.BusinessRepository,
	publisher EventPublisher,
	notifier *notification.Dispatcher,
	clock civiltime.Clock,
	log *logger.Logger,
) *AttendanceService {
	if clock == nil {
		clock = civiltime.SystemClock{}
	}
	return &AttendanceService{
		attendance: attendance,
		sessions:   sessions,
		holidays:   holidays,
		employees:  employees,
		businesses: businesses,
		publisher:  publisher,
		notifier:   notifier,
		clock:      clock,
		logger:     log.WithComponent("attendance_service"),
	}
}

// activeEmployee loads an employee and the business whose offset governs
// their civil day. Inactive or unknown employees are reported the same way.
func (s *AttendanceService) activeEmployee(ctx context.Context, employeeID string) (*staffrepo.Employee, *staffrepo.Business, error) {
	emp, err := s.employees.GetActiveByID(ctx, employeeID)
	if err != nil {
		return nil, nil, err
	}
	if emp == nil {
		return nil, nil, errors.NotFoundMsg("Employee not found or inactive")
	}

	business, err := s.businesses.GetByID(ctx, emp.BusinessID)
	if err != nil {
		return nil, nil, err
	}

	return emp, business, nil
}

// CheckInQR records a present check-in from a scanned QR session
func (s *AttendanceService) CheckInQR(ctx context.Context, input *QRAttendanceInput) (*repository.Attendance, error) {
	emp, business, err := s.activeEmployee(ctx, input.EmployeeID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	session, err := s.sessions.GetValid(ctx, input.SessionID, now)
	if err != nil {
		return nil, err
	}
	if session == nil || session.BusinessID != emp.BusinessID {
		return nil, errors.BadRequest("Invalid or expired session")
	}

	scannedAt := civiltime.Timestamp(now, business.UTCOffsetMinutes)
	return s.checkIn(ctx, emp, business, MethodQR, &session.SessionID, &scannedAt)
}

// CheckInDirect records a present check-in without a QR session. Owner-scoped.
func (s *AttendanceService) CheckInDirect(ctx context.Context, employeeID, ownerID string) (*repository.Attendance, error) {
	emp, business, err := s.activeEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp.OwnerID != ownerID {
		return nil, errors.NotFoundMsg("Employee not found or inactive")
	}

	return s.checkIn(ctx, emp, business, MethodDirect, nil, nil)
}

func (s *AttendanceService) checkIn(ctx context.Context, emp *staffrepo.Employee, business *staffrepo.Business, method string, sessionID *string, scannedAt *time.Time) (*repository.Attendance, error) {
	now := s.clock.Now()
	date := civiltime.Date(now, business.UTCOffsetMinutes)

	existing, err := s.attendance.GetByEmployeeAndDate(ctx, emp.ID, date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Conflict("Attendance already marked for today")
	}

	attendanceDate, _ := civiltime.ParseDate(date)
	checkIn := civiltime.TimeOfDay(now, business.UTCOffsetMinutes)

	rec := &repository.Attendance{
		EmployeeID:     emp.ID,
		BusinessID:     emp.BusinessID,
		OwnerID:        emp.OwnerID,
		SessionID:      sessionID,
		AttendanceDate: attendanceDate,
		CheckInTime:    &checkIn,
		Status:         repository.StatusPresent,
		QRScannedAt:    scannedAt,
	}
	if err := s.attendance.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.EventAttendanceCheckedIn, messaging.AttendanceCheckedInEvent{
		EmployeeID:     emp.ID,
		BusinessID:     emp.BusinessID,
		AttendanceDate: date,
		CheckInTime:    checkIn,
		Method:         method,
	})
	if s.notifier != nil {
		s.notifier.SendGeneralNotification(ctx, emp.OwnerID, notification.UserTypeOwner, "Check-in recorded",
			emp.Name+" checked in at "+checkIn, map[string]any{"employee_id": emp.ID})
	}

	s.logger.Info().
		Str("employee_id", emp.ID).
		Str("attendance_date", date).
		Str("method", method).
		Msg("Employee checked in")

	return rec, nil
}

// CheckOutQR records a check-out against a scanned QR session
func (s *AttendanceService) CheckOutQR(ctx context.Context, input *QRAttendanceInput) (*repository.Attendance, error) {
	emp, business, err := s.activeEmployee(ctx, input.EmployeeID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	session, err := s.sessions.GetValid(ctx, input.SessionID, now)
	if err != nil {
		return nil, err
	}
	if session == nil || session.BusinessID != emp.BusinessID {
		return nil, errors.BadRequest("Invalid or expired session")
	}

	return s.checkOut(ctx, emp, business)
}

// CheckOutDirect records a check-out without a QR session. Owner-scoped.
func (s *AttendanceService) CheckOutDirect(ctx context.Context, employeeID, ownerID string) (*repository.Attendance, error) {
	emp, business, err := s.activeEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp.OwnerID != ownerID {
		return nil, errors.NotFoundMsg("Employee not found or inactive")
	}

	return s.checkOut(ctx, emp, business)
}

func (s *AttendanceService) checkOut(ctx context.Context, emp *staffrepo.Employee, business *staffrepo.Business) (*repository.Attendance, error) {
	now := s.clock.Now()
	date := civiltime.Date(now, business.UTCOffsetMinutes)

	rec, err := s.attendance.GetByEmployeeAndDate(ctx, emp.ID, date)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.CheckInTime == nil {
		return nil, errors.NotFoundMsg("No check-in record found for today. Please check-in first.")
	}
	if rec.CheckOutTime != nil {
		return nil, errors.Conflict("Already checked out for today")
	}

	checkOut := civiltime.TimeOfDay(now, business.UTCOffsetMinutes)
	if err := s.attendance.SetCheckOut(ctx, rec.ID, checkOut); err != nil {
		return nil, err
	}
	rec.CheckOutTime = &checkOut

	s.publish(ctx, messaging.EventAttendanceCheckedOut, messaging.AttendanceCheckedOutEvent{
		EmployeeID:     emp.ID,
		BusinessID:     emp.BusinessID,
		AttendanceDate: date,
		CheckOutTime:   checkOut,
	})

	s.logger.Info().
		Str("employee_id", emp.ID).
		Str("attendance_date", date).
		Msg("Employee checked out")

	return rec, nil
}

// MarkManual sets today's attendance status for one employee. Creates the
// day's record when missing, overwrites it when present.
func (s *AttendanceService) MarkManual(ctx context.Context, ownerID string, input *ManualMarkInput) (*repository.Attendance, error) {
	emp, err := s.employees.GetByID(ctx, input.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp.OwnerID != ownerID {
		return nil, errors.NotFound("employee")
	}

	business, err := s.businesses.GetByID(ctx, emp.BusinessID)
	if err != nil {
		return nil, err
	}

	date := civiltime.Date(s.clock.Now(), business.UTCOffsetMinutes)
	backdated := &BackdatedMarkInput{
		EmployeeID:   input.EmployeeID,
		Date:         date,
		Status:       input.Status,
		AbsentReason: input.AbsentReason,
	}
	if input.Status == repository.StatusPresent {
		checkIn := civiltime.TimeOfDay(s.clock.Now(), business.UTCOffsetMinutes)
		backdated.CheckInTime = &checkIn
	}

	rec, created, err := s.upsertForDate(ctx, emp, business, backdated)
	if err != nil {
		return nil, err
	}

	if input.Status == repository.StatusPresent && s.notifier != nil && rec.CheckInTime != nil {
		title, verb := "Attendance Updated", "updated to"
		if created {
			title, verb = "Attendance Marked", "marked as"
		}
		s.notifier.SendGeneralNotification(ctx, emp.ID, notification.UserTypeEmployee, title,
			"Your attendance has been "+verb+" present at "+*rec.CheckInTime+" today.",
			map[string]any{
				"type":   "attendance_update",
				"status": repository.StatusPresent,
				"date":   date,
				"time":   *rec.CheckInTime,
			})
	}

	return rec, nil
}

// MarkForDate sets attendance for a specific civil date, typically a past
// one. Dates already marked as holidays are rejected.
func (s *AttendanceService) MarkForDate(ctx context.Context, ownerID string, input *BackdatedMarkInput) (*repository.Attendance, error) {
	emp, err := s.employees.GetByID(ctx, input.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp.OwnerID != ownerID {
		return nil, errors.NotFound("employee")
	}

	business, err := s.businesses.GetByID(ctx, emp.BusinessID)
	if err != nil {
		return nil, err
	}

	if _, err := civiltime.ParseDate(input.Date); err != nil {
		return nil, errors.BadRequest("Invalid date format. Use YYYY-MM-DD")
	}

	holiday, err := s.holidays.GetByBusinessAndDate(ctx, emp.BusinessID, input.Date)
	if err != nil {
		return nil, err
	}
	if holiday != nil {
		return nil, errors.Conflict("Cannot mark attendance on a holiday date")
	}

	rec, _, err := s.upsertForDate(ctx, emp, business, input)
	return rec, err
}

func (s *AttendanceService) upsertForDate(ctx context.Context, emp *staffrepo.Employee, business *staffrepo.Business, input *BackdatedMarkInput) (*repository.Attendance, bool, error) {
	existing, err := s.attendance.GetByEmployeeAndDate(ctx, emp.ID, input.Date)
	if err != nil {
		return nil, false, err
	}

	checkIn := input.CheckInTime
	reason := input.AbsentReason
	if input.Status == repository.StatusPresent {
		// A present mark never carries an absence reason
		reason = nil
	} else if input.Status != repository.StatusAbsent {
		checkIn = nil
	}

	if existing != nil {
		if input.Status == repository.StatusPresent && checkIn == nil {
			checkIn = existing.CheckInTime
		}
		if err := s.attendance.UpdateStatus(ctx, existing.ID, input.Status, reason, checkIn); err != nil {
			return nil, false, err
		}
		existing.Status = input.Status
		existing.AbsentReason = reason
		existing.CheckInTime = checkIn
		s.publishMarked(ctx, emp, input.Date, input.Status)
		return existing, false, nil
	}

	attendanceDate, err := civiltime.ParseDate(input.Date)
	if err != nil {
		return nil, false, errors.BadRequest("Invalid date format. Use YYYY-MM-DD")
	}

	rec := &repository.Attendance{
		EmployeeID:     emp.ID,
		BusinessID:     emp.BusinessID,
		OwnerID:        emp.OwnerID,
		AttendanceDate: attendanceDate,
		CheckInTime:    checkIn,
		CheckOutTime:   input.CheckOutTime,
		Status:         input.Status,
		AbsentReason:   reason,
	}
	if err := s.attendance.Create(ctx, rec); err != nil {
		return nil, false, err
	}

	s.publishMarked(ctx, emp, input.Date, input.Status)
	return rec, true, nil
}

func (s *AttendanceService) publishMarked(ctx context.Context, emp *staffrepo.Employee, date, status string) {
	s.publish(ctx, messaging.EventAttendanceMarked, messaging.AttendanceMarkedEvent{
		EmployeeID:     emp.ID,
		BusinessID:     emp.BusinessID,
		AttendanceDate: date,
		Status:         status,
	})
	s.logger.Info().
		Str("employee_id", emp.ID).
		Str("attendance_date", date).
		Str("status", status).
		Msg("Attendance marked")
}

// History returns an employee's most recent attendance records
func (s *AttendanceService) History(ctx context.Context, employeeID, ownerID string) ([]*repository.Attendance, error) {
	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && emp.OwnerID != ownerID {
		return nil, errors.NotFound("employee")
	}

	return s.attendance.HistoryByEmployee(ctx, employeeID, 30)
}

// HistorySelf returns the calling employee's own attendance records
func (s *AttendanceService) HistorySelf(ctx context.Context, employeeID string) ([]*repository.Attendance, error) {
	return s.attendance.HistoryByEmployee(ctx, employeeID, 30)
}

// Summary returns a business's attendance for one date, today when the date
// is empty
// DaySummary is a business's attendance picture for one civil day
type DaySummary struct {
	Date            string                   `json:"date"`
	ActiveEmployees int                      `json:"activeEmployees"`
	Records         []*repository.Attendance `json:"records"`
}

func (s *AttendanceService) Summary(ctx context.Context, businessID, ownerID, date string) (*DaySummary, error) {
	business, err := s.businesses.GetOwned(ctx, businessID, ownerID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, errors.NotFound("business")
	}

	if date == "" {
		date = civiltime.Date(s.clock.Now(), business.UTCOffsetMinutes)
	} else if _, err := civiltime.ParseDate(date); err != nil {
		return nil, errors.BadRequest("Invalid date format. Use YYYY-MM-DD")
	}

	records, err := s.attendance.SummaryByBusinessAndDate(ctx, businessID, date)
	if err != nil {
		return nil, err
	}

	active, err := s.employees.CountActiveByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}

	return &DaySummary{Date: date, ActiveEmployees: active, Records: records}, nil
}

func (s *AttendanceService) publish(ctx context.Context, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("Failed to publish event")
	}
}
