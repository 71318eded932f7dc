package service_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/karobar-labs/karobar-backend/internal/attendance/repository"
	"github.com/karobar-labs/karobar-backend/internal/attendance/service"
	"github.com/karobar-labs/karobar-backend/internal/notification"
	staffrepo "github.com/karobar-labs/karobar-backend/internal/staff/repository"
	"github.com/karobar-labs/karobar-backend/pkg/civiltime"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
	"github.com/karobar-labs/karobar-backend/pkg/messaging"
	"github.com/karobar-labs/karobar-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	code := m.Run()
	testutil.TerminateContainer(ctx)
	os.Exit(code)
}

type env struct {
	sessions   *service.SessionService
	attendance *service.AttendanceService
	holidays   *service.HolidayService
	publisher  *testutil.MockPublisher
	clock      *civiltime.FixedClock
}

// 10:00 IST on 2026-03-10 (04:30 UTC)
var defaultNow = time.Date(2026, 3, 10, 4, 30, 0, 0, time.UTC)

func newEnv(t *testing.T, now time.Time) *env {
	t.Helper()

	clock := &civiltime.FixedClock{T: now}
	publisher := testutil.NewMockPublisher()
	notifier := notification.NewDispatcher(publisher, suite.Logger)

	businessRepo := staffrepo.NewBusinessRepository(suite.DB)
	employeeRepo := staffrepo.NewEmployeeRepository(suite.DB)
	sessionRepo := repository.NewSessionRepository(suite.DB)
	attendanceRepo := repository.NewAttendanceRepository(suite.DB)
	holidayRepo := repository.NewHolidayRepository(suite.DB)

	return &env{
		sessions: service.NewSessionService(sessionRepo, businessRepo, 30*time.Minute, clock, suite.Logger),
		attendance: service.NewAttendanceService(
			attendanceRepo, sessionRepo, holidayRepo, employeeRepo, businessRepo,
			publisher, notifier, clock, suite.Logger,
		),
		holidays:  service.NewHolidayService(suite.DB, holidayRepo, attendanceRepo, businessRepo, publisher, suite.Logger),
		publisher: publisher,
		clock:     clock,
	}
}

func seedBusiness(t *testing.T, ctx context.Context, offsetMinutes int) (string, string) {
	t.Helper()
	biz := suite.Fixtures.Business(testutil.WithOffset(offsetMinutes))
	_, err := suite.RawDB.ExecContext(ctx, `
		INSERT INTO businesses (id, owner_id, name, utc_offset_minutes)
		VALUES ($1, $2, $3, $4)
	`, biz.ID, biz.OwnerID, biz.Name, biz.UTCOffsetMinutes)
	require.NoError(t, err)
	return biz.ID, biz.OwnerID
}

func seedEmployee(t *testing.T, ctx context.Context, businessID, ownerID string, active bool) string {
	t.Helper()
	emp := suite.Fixtures.Employee(testutil.WithEmployeeOwner(ownerID, businessID))
	_, err := suite.RawDB.ExecContext(ctx, `
		INSERT INTO employees (id, owner_id, business_id, mobile, name, salary_type, salary_amount, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, emp.ID, ownerID, businessID, emp.Mobile, emp.Name, emp.SalaryType, emp.SalaryAmount, active)
	require.NoError(t, err)
	return emp.ID
}

func assertAppError(t *testing.T, err error, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, message, appErr.Message)
}

func TestSessionService_IdempotentIssue(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t, defaultNow)
	businessID, ownerID := seedBusiness(t, ctx, 330)

	first, err := e.sessions.Issue(ctx, businessID, ownerID)
	require.NoError(t, err)
	assert.Len(t, first.SessionID, 32)
	assert.Equal(t, defaultNow.Add(30*time.Minute), first.ExpiresAt.UTC())
	assert.Contains(t, first.QRPayload, first.SessionID)

	second, err := e.sessions.Issue(ctx, businessID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
}

func TestSessionService_NewSessionAfterExpiry(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t, defaultNow)
	businessID, ownerID := seedBusiness(t, ctx, 330)

	first, err := e.sessions.Issue(ctx, businessID, ownerID)
	require.NoError(t, err)

	// 31 minutes later the first session has expired
	e.clock.T = defaultNow.Add(31 * time.Minute)

	second, err := e.sessions.Issue(ctx, businessID, ownerID)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func TestSessionService_UnownedBusiness(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t, defaultNow)
	businessID, _ := seedBusiness(t, ctx, 330)
	_, otherOwner := seedBusiness(t, ctx, 330)

	_, err := e.sessions.Issue(ctx, businessID, otherOwner)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestAttendanceService_QRCheckInFlow(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t, defaultNow)
	businessID, ownerID := seedBusiness(t, ctx, 330)
	employeeID := seedEmployee(t, ctx, businessID, ownerID, true)

	session, err := e.sessions.Issue(ctx, businessID, ownerID)
	require.NoError(t, err)

	rec, err := e.attendance.CheckInQR(ctx, &service.QRAttendanceInput{
		EmployeeID: employeeID,
		SessionID:  session.SessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, repository.StatusPresent, rec.Status)
	require.NotNil(t, rec.CheckInTime)
	assert.Equal(t, "10:00:00", *rec.CheckInTime)
	require.NotNil(t, rec.SessionID)
	assert.Equal(t, session.SessionID, *rec.SessionID)
	require.NotNil(t, rec.QRScannedAt)
	e.publisher.AssertEventPublished(t, messaging.EventAttendanceCheckedIn)

	// Same day, second check-in attempt, even under a fresh session
	_, err = e.attendance.CheckInQR(ctx, &service.QRAttendanceInput{
		EmployeeID: employeeID,
		SessionID:  session.SessionID,
	})
	assertAppError(t, err, "Attendance already marked for today")
}

func TestAttendanceService_QRCheckInRejections(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t, defaultNow)
	businessID, ownerID := seedBusiness(t, ctx, 330)
	activeID := seedEmployee(t, ctx, businessID, ownerID, true)
	inactiveID := seedEmployee(t, ctx, businessID, ownerID, false)

	session, err := e.sessions.Issue(ctx, businessID, ownerID)
	require.NoError(t, err)

	_, err = e.attendance.CheckInQR(ctx, &service.QRAttendanceInput{
		EmployeeID: inactiveID,
		SessionID:  session.SessionID,
	})
	assertAppError(t, err, "Employee not found or inactive")

	_, err = e.attendance.CheckInQR(ctx, &service.QRAttendanceInput{
		EmployeeID: activeID,
		SessionID:  "deadbeefdeadbeefdeadbeefdeadbeef",
	})
	assertAppError(t, err, "Invalid or expired session")

	// Session from a different business is rejected the same way
	otherBusinessID, otherOwnerID := seedBusiness(t, ctx, 330)
	otherSession, err := e.sessions.Issue(ctx, otherBusinessID, otherOwnerID)
	require.NoError(t, err)

	_, err = e.attendance.CheckInQR(ctx, &service.QRAttendanceInput{
		EmployeeID: activeID,
		SessionID:  otherSession.SessionID,
	})
	assertAppError(t, err, "Invalid or expired session")

	// Expired session
	e.clock.T = defaultNow.Add(31 * time.Minute)
	_, err = e.attendance.CheckInQR(ctx, &service.QRAttendanceInput{
		EmployeeID: activeID,
		SessionID:  session.SessionID,
	})
	assertAppError(t, err, "Invalid or expired session")
}

func TestAttendanceService_DirectCheckInAndOut(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t, defaultNow)
	businessID, ownerID := seedBusiness(t, ctx, 330)
	employeeID := seedEmployee(t, ctx, businessID, ownerID, true)

	// Checkout before check-in never creates a row
	_, err := e.attendance.CheckOutDirect(ctx, employeeID, ownerID)
	assertAppError(t, err, "No check-in record found for today. Please check-in first.")

	rec, err := e.attendance.CheckInDirect(ctx, employeeID, ownerID)
	require.NoError(t, err)
	assert.Nil(t, rec.SessionID)
	assert.Nil(t, rec.QRScannedAt)
	require.NotNil(t, rec.CheckInTime)

	_, err = e.attendance.CheckInDirect(ctx, employeeID, ownerID)
	assertAppError(t, err, "Attendance already marked for today")

	e.clock.T = defaultNow.Add(8 * time.Hour)
	out, err := e.attendance.CheckOutDirect(ctx, employeeID, ownerID)
	require.NoError(t, err)
	require.NotNil(t, out.CheckOutTime)
	assert.Equal(t, "18:00:00", *out.CheckOutTime)
	e.publisher.AssertEventPublished(t, messaging.EventAttendanceCheckedOut)

	_, err = e.attendance.CheckOutDirect(ctx, employeeID, ownerID)
	assertAppError(t, err, "Already checked out for today")
}

func TestAttendanceService_DirectCheckInForeignOwner(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t, defaultNow)
	businessID, ownerID := seedBusiness(t, ctx, 330)
	employeeID := seedEmployee(t, ctx, businessID, ownerID, true)
	_, otherOwner := seedBusiness(t, ctx, 330)

	_, err := e.attendance.CheckInDirect(ctx, employeeID, otherOwner)
	assertAppError(t, err, "Employee not found or inactive")
}

func TestAttendanceService_CivilDayBoundary(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()

	// 18:45 UTC is already the next civil day under +5:30
	boundary := time.Date(2026, 3, 10, 18, 45, 0, 0, time.UTC)

	suite.Reset(t, ctx)
	e := newEnv(t, boundary)
	businessID, ownerID := seedBusiness(t, ctx, 330)
	employeeID := seedEmployee(t, ctx, businessID, ownerID, true)

	rec, err := e.attendance.CheckInDirect(ctx, employeeID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-11", rec.AttendanceDate.Format("2006-01-02"))
	require.NotNil(t, rec.CheckInTime)
	assert.Equal(t, "00:15:00", *rec.CheckInTime)
}

func TestAttendanceService_MarkManual(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t, defaultNow)
	businessID, ownerID := seedBusiness(t, ctx, 330)
	employeeID := seedEmployee(t, ctx, businessID, ownerID, true)

	rec, err := e.attendance.MarkManual(ctx, ownerID, &service.ManualMarkInput{
		EmployeeID:   employeeID,
		Status:       repository.StatusAbsent,
		AbsentReason: strPtr("sick leave"),
	})
	require.NoError(t, err)
	assert.Equal(t, repository.StatusAbsent, rec.Status)
	require.NotNil(t, rec.AbsentReason)
	assert.Equal(t, "sick leave", *rec.AbsentReason)
	e.publisher.AssertEventPublished(t, messaging.EventAttendanceMarked)

	// Re-marking present on the same day overwrites the record, sets a
	// check-in time and clears the reason
	rec, err = e.attendance.MarkManual(ctx, ownerID, &service.ManualMarkInput{
		EmployeeID: employeeID,
		Status:     repository.StatusPresent,
	})
	require.NoError(t, err)
	assert.Equal(t, repository.StatusPresent, rec.Status)
	assert.Nil(t, rec.AbsentReason)
	require.NotNil(t, rec.CheckInTime)
	assert.Equal(t, "10:00:00", *rec.CheckInTime)

	// Marking present notifies the employee
	e.publisher.AssertEventPublished(t, messaging.EventNotificationGeneral)
	var notified *messaging.GeneralNotificationEvent
	for _, ev := range e.publisher.PublishedEvents {
		if ev.Type == messaging.EventNotificationGeneral {
			n := ev.Payload.(messaging.GeneralNotificationEvent)
			notified = &n
		}
	}
	require.NotNil(t, notified)
	assert.Equal(t, employeeID, notified.UserID)
	assert.Equal(t, notification.UserTypeEmployee, notified.UserType)
	assert.Equal(t, "Attendance Updated", notified.Title)
	assert.Contains(t, notified.Body, "10:00:00")
}

func TestAttendanceService_MarkForDate(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t, defaultNow)
	businessID, ownerID := seedBusiness(t, ctx, 330)
	employeeID := seedEmployee(t, ctx, businessID, ownerID, true)

	rec, err := e.attendance.MarkForDate(ctx, ownerID, &service.BackdatedMarkInput{
		EmployeeID: employeeID,
		Date:       "2026-03-05",
		Status:     repository.StatusHalfDay,
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05", rec.AttendanceDate.Format("2006-01-02"))
	assert.Equal(t, repository.StatusHalfDay, rec.Status)

	_, err = e.attendance.MarkForDate(ctx, ownerID, &service.BackdatedMarkInput{
		EmployeeID: employeeID,
		Date:       "05-03-2026",
		Status:     repository.StatusAbsent,
	})
	assertAppError(t, err, "Invalid date format. Use YYYY-MM-DD")

	// Dates with a holiday are not individually overridable
	_, err = e.holidays.Mark(ctx, businessID, ownerID, &service.MarkHolidayInput{Date: "2026-03-01"})
	require.NoError(t, err)

	_, err = e.attendance.MarkForDate(ctx, ownerID, &service.BackdatedMarkInput{
		EmployeeID: employeeID,
		Date:       "2026-03-01",
		Status:     repository.StatusPresent,
	})
	assertAppError(t, err, "Cannot mark attendance on a holiday date")
}

func TestHolidayService_MarkAndUnmark(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t, defaultNow)
	businessID, ownerID := seedBusiness(t, ctx, 330)
	first := seedEmployee(t, ctx, businessID, ownerID, true)
	second := seedEmployee(t, ctx, businessID, ownerID, true)
	seedEmployee(t, ctx, businessID, ownerID, false) // inactive, no fan-out row

	// First employee already has a present record for the date
	_, err := e.attendance.MarkForDate(ctx, ownerID, &service.BackdatedMarkInput{
		EmployeeID:  first,
		Date:        "2026-03-09",
		Status:      repository.StatusPresent,
		CheckInTime: strPtr("09:30:00"),
	})
	require.NoError(t, err)

	holiday, err := e.holidays.Mark(ctx, businessID, ownerID, &service.MarkHolidayInput{
		Date:        "2026-03-09",
		Description: strPtr("Holi"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, holiday.ID)
	e.publisher.AssertEventPublished(t, messaging.EventHolidayMarked)

	summary, err := e.attendance.Summary(ctx, businessID, ownerID, "2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ActiveEmployees)
	require.Len(t, summary.Records, 2)
	for _, rec := range summary.Records {
		assert.Equal(t, repository.StatusHoliday, rec.Status)
	}

	// Duplicate holiday rejected
	_, err = e.holidays.Mark(ctx, businessID, ownerID, &service.MarkHolidayInput{Date: "2026-03-09"})
	assertAppError(t, err, "Holiday already exists for this date")

	require.NoError(t, e.holidays.Unmark(ctx, businessID, ownerID, "2026-03-09"))
	e.publisher.AssertEventPublished(t, messaging.EventHolidayUnmarked)

	summary, err = e.attendance.Summary(ctx, businessID, ownerID, "2026-03-09")
	require.NoError(t, err)
	require.Len(t, summary.Records, 2)
	for _, rec := range summary.Records {
		assert.Equal(t, repository.StatusAbsent, rec.Status)
	}

	holidays, err := e.holidays.List(ctx, businessID, ownerID, 2026, 3)
	require.NoError(t, err)
	assert.Empty(t, holidays)

	_ = second
}

func TestHolidayService_UnmarkKeepsEditedRows(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t, defaultNow)
	businessID, ownerID := seedBusiness(t, ctx, 330)
	first := seedEmployee(t, ctx, businessID, ownerID, true)
	second := seedEmployee(t, ctx, businessID, ownerID, true)

	_, err := e.holidays.Mark(ctx, businessID, ownerID, &service.MarkHolidayInput{Date: "2026-03-10"})
	require.NoError(t, err)

	// Owner corrects one fanned-out row before the holiday is removed
	rec, err := e.attendance.MarkManual(ctx, ownerID, &service.ManualMarkInput{
		EmployeeID: first,
		Status:     repository.StatusPaidLeave,
	})
	require.NoError(t, err)
	assert.Equal(t, repository.StatusPaidLeave, rec.Status)

	require.NoError(t, e.holidays.Unmark(ctx, businessID, ownerID, "2026-03-10"))

	byEmployee := make(map[string]string)
	summary, err := e.attendance.Summary(ctx, businessID, ownerID, "2026-03-10")
	require.NoError(t, err)
	require.Len(t, summary.Records, 2)
	for _, r := range summary.Records {
		byEmployee[r.EmployeeID] = r.Status
	}
	assert.Equal(t, repository.StatusPaidLeave, byEmployee[first])
	assert.Equal(t, repository.StatusAbsent, byEmployee[second])
}

func TestAttendanceService_HistoryScoping(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t, defaultNow)
	businessID, ownerID := seedBusiness(t, ctx, 330)
	employeeID := seedEmployee(t, ctx, businessID, ownerID, true)
	_, otherOwner := seedBusiness(t, ctx, 330)

	_, err := e.attendance.CheckInDirect(ctx, employeeID, ownerID)
	require.NoError(t, err)

	history, err := e.attendance.History(ctx, employeeID, ownerID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = e.attendance.History(ctx, employeeID, otherOwner)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func strPtr(s string) *string { return &s }
