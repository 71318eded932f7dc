package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/karobar-labs/karobar-backend/pkg/database"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
)

// Holiday represents a business-wide holiday on one civil date
type Holiday struct {
	ID          string    `db:"id" json:"id"`
	BusinessID  string    `db:"business_id" json:"business_id"`
	HolidayDate time.Time `db:"holiday_date" json:"holiday_date"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// HolidayRepository handles holiday persistence
type HolidayRepository struct {
	db *database.DB
}

// NewHolidayRepository creates a new holiday repository
func NewHolidayRepository(db *database.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// Create inserts a holiday inside the fan-out transaction. The unique
// constraint on (business_id, holiday_date) backs the duplicate guard.
func (r *HolidayRepository) Create(ctx context.Context, q Queryer, holiday *Holiday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.New().String()
	}

	query := `
		INSERT INTO holidays (id, business_id, holiday_date, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := q.QueryRowxContext(ctx, query,
		holiday.ID, holiday.BusinessID, holiday.HolidayDate, holiday.Description,
	).Scan(&holiday.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByBusinessAndDate returns the holiday on a date, (nil, nil) when none
func (r *HolidayRepository) GetByBusinessAndDate(ctx context.Context, businessID string, date string) (*Holiday, error) {
	var holiday Holiday

	query := `
		SELECT id, business_id, holiday_date, description, created_at
		FROM holidays
		WHERE business_id = $1 AND holiday_date = $2
	`
	err := r.db.GetContext(ctx, &holiday, query, businessID, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &holiday, nil
}

// Delete removes a holiday inside the revert transaction
func (r *HolidayRepository) Delete(ctx context.Context, q Queryer, businessID string, date string) error {
	query := `DELETE FROM holidays WHERE business_id = $1 AND holiday_date = $2`
	result, err := q.ExecContext(ctx, query, businessID, date)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("holiday")
	}

	return nil
}

// ListByBusiness returns a business's holidays, most recent first. A non-zero
// year or month narrows the result.
func (r *HolidayRepository) ListByBusiness(ctx context.Context, businessID string, year, month int) ([]*Holiday, error) {
	holidays := make([]*Holiday, 0)

	query := `
		SELECT id, business_id, holiday_date, description, created_at
		FROM holidays
		WHERE business_id = $1
	`
	args := []interface{}{businessID}
	if year > 0 {
		args = append(args, year)
		query += fmt.Sprintf(" AND EXTRACT(YEAR FROM holiday_date) = $%d", len(args))
	}
	if month > 0 {
		args = append(args, month)
		query += fmt.Sprintf(" AND EXTRACT(MONTH FROM holiday_date) = $%d", len(args))
	}
	query += " ORDER BY holiday_date DESC"

	if err := r.db.SelectContext(ctx, &holidays, query, args...); err != nil {
		return nil, err
	}

	return holidays, nil
}
