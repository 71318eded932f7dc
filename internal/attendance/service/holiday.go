package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/karobar-labs/karobar-backend/internal/attendance/repository"
	staffrepo "github.com/karobar-labs/karobar-backend/internal/staff/repository"
	"github.com/karobar-labs/karobar-backend/pkg/civiltime"
	"github.com/karobar-labs/karobar-backend/pkg/database"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
	"github.com/karobar-labs/karobar-backend/pkg/logger"
	"github.com/karobar-labs/karobar-backend/pkg/messaging"
)

// MarkHolidayInput declares a business-wide holiday for one date
type MarkHolidayInput struct {
	Date        string  `json:"date" validate:"required"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=255"`
}

// HolidayService manages business holidays and their attendance fan-out
type HolidayService struct {
	db         *database.DB
	holidays   *repository.HolidayRepository
	attendance *repository.AttendanceRepository
	businesses *staffrepo.BusinessRepository
	publisher  EventPublisher
	logger     *logger.Logger
}

// NewHolidayService creates a new holiday service
func NewHolidayService(
	db *database.DB,
	holidays *repository.HolidayRepository,
	attendance *repository.AttendanceRepository,
	businesses *staffrepo.BusinessRepository,
	publisher EventPublisher,
	log *logger.Logger,
) *HolidayService {
	return &HolidayService{
		db:         db,
		holidays:   holidays,
		attendance: attendance,
		businesses: businesses,
		publisher:  publisher,
		logger:     log.WithComponent("holiday_service"),
	}
}

// Mark declares a holiday and propagates it to every active employee's
// attendance for that date. The holiday row and the fan-out commit together
// or not at all.
func (s *HolidayService) Mark(ctx context.Context, businessID, ownerID string, input *MarkHolidayInput) (*repository.Holiday, error) {
	business, err := s.businesses.GetOwned(ctx, businessID, ownerID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, errors.NotFound("business")
	}

	holidayDate, err := civiltime.ParseDate(input.Date)
	if err != nil {
		return nil, errors.BadRequest("Invalid date format. Use YYYY-MM-DD")
	}

	existing, err := s.holidays.GetByBusinessAndDate(ctx, businessID, input.Date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Conflict("Holiday already exists for this date")
	}

	holiday := &repository.Holiday{
		BusinessID:  businessID,
		HolidayDate: holidayDate,
		Description: input.Description,
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.holidays.Create(ctx, tx, holiday); err != nil {
			return err
		}
		if err := s.attendance.SetHolidayForDate(ctx, tx, businessID, input.Date); err != nil {
			return err
		}
		return s.attendance.InsertHolidayRows(ctx, tx, businessID, ownerID, input.Date)
	})
	if err != nil {
		return nil, err
	}

	s.publishHolidayEvent(ctx, messaging.EventHolidayMarked, messaging.HolidayMarkedEvent{
		BusinessID:  businessID,
		HolidayDate: input.Date,
		Description: derefString(input.Description),
	})

	s.logger.Info().
		Str("business_id", businessID).
		Str("holiday_date", input.Date).
		Msg("Holiday marked")

	return holiday, nil
}

// Unmark removes a holiday and reverts attendance rows still in the holiday
// state to absent. Rows an owner re-marked after the holiday keep their
// status.
func (s *HolidayService) Unmark(ctx context.Context, businessID, ownerID, date string) error {
	business, err := s.businesses.GetOwned(ctx, businessID, ownerID)
	if err != nil {
		return err
	}
	if business == nil {
		return errors.NotFound("business")
	}

	if _, err := civiltime.ParseDate(date); err != nil {
		return errors.BadRequest("Invalid date format. Use YYYY-MM-DD")
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.holidays.Delete(ctx, tx, businessID, date); err != nil {
			return err
		}
		return s.attendance.RevertHolidayRows(ctx, tx, businessID, date)
	})
	if err != nil {
		return err
	}

	s.publishHolidayEvent(ctx, messaging.EventHolidayUnmarked, messaging.HolidayUnmarkedEvent{
		BusinessID:  businessID,
		HolidayDate: date,
	})

	s.logger.Info().
		Str("business_id", businessID).
		Str("holiday_date", date).
		Msg("Holiday unmarked")

	return nil
}

// List returns a business's holidays
func (s *HolidayService) List(ctx context.Context, businessID, ownerID string, year, month int) ([]*repository.Holiday, error) {
	business, err := s.businesses.GetOwned(ctx, businessID, ownerID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, errors.NotFound("business")
	}

	return s.holidays.ListByBusiness(ctx, businessID, year, month)
}

// ListForBusiness lists holidays without owner scoping. The caller is
// responsible for establishing that the requester belongs to the business.
func (s *HolidayService) ListForBusiness(ctx context.Context, businessID string, year, month int) ([]*repository.Holiday, error) {
	return s.holidays.ListByBusiness(ctx, businessID, year, month)
}

func (s *HolidayService) publishHolidayEvent(ctx context.Context, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("Failed to publish event")
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
