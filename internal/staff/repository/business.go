package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/karobar-labs/karobar-backend/pkg/database"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
)

// Business represents an owner's business profile
type Business struct {
	ID               string    `db:"id" json:"id"`
	OwnerID          string    `db:"owner_id" json:"owner_id"`
	Name             string    `db:"name" json:"name"`
	BusinessType     *string   `db:"business_type" json:"business_type,omitempty"`
	Address          *string   `db:"address" json:"address,omitempty"`
	UTCOffsetMinutes int       `db:"utc_offset_minutes" json:"utc_offset_minutes"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// BusinessRepository handles business persistence
type BusinessRepository struct {
	db *database.DB
}

// NewBusinessRepository creates a new business repository
func NewBusinessRepository(db *database.DB) *BusinessRepository {
	return &BusinessRepository{db: db}
}

// Create inserts a new business. The unique constraint on owner_id enforces
// one business per owner.
func (r *BusinessRepository) Create(ctx context.Context, biz *Business) error {
	if biz.ID == "" {
		biz.ID = uuid.New().String()
	}
	if biz.UTCOffsetMinutes == 0 {
		biz.UTCOffsetMinutes = 330
	}

	query := `
		INSERT INTO businesses (id, owner_id, name, business_type, address, utc_offset_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		biz.ID, biz.OwnerID, biz.Name, biz.BusinessType, biz.Address, biz.UTCOffsetMinutes,
	).Scan(&biz.CreatedAt, &biz.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a business by ID
func (r *BusinessRepository) GetByID(ctx context.Context, id string) (*Business, error) {
	var biz Business

	query := `
		SELECT id, owner_id, name, business_type, address, utc_offset_minutes, created_at, updated_at
		FROM businesses
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &biz, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("business")
	}
	if err != nil {
		return nil, err
	}

	return &biz, nil
}

// GetByOwnerID gets the business belonging to an owner
func (r *BusinessRepository) GetByOwnerID(ctx context.Context, ownerID string) (*Business, error) {
	var biz Business

	query := `
		SELECT id, owner_id, name, business_type, address, utc_offset_minutes, created_at, updated_at
		FROM businesses
		WHERE owner_id = $1
	`
	err := r.db.GetContext(ctx, &biz, query, ownerID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("business")
	}
	if err != nil {
		return nil, err
	}

	return &biz, nil
}

// GetOwned gets a business only if it belongs to the given owner.
// Returns (nil, nil) when no such business exists in the owner's scope.
func (r *BusinessRepository) GetOwned(ctx context.Context, businessID, ownerID string) (*Business, error) {
	var biz Business

	query := `
		SELECT id, owner_id, name, business_type, address, utc_offset_minutes, created_at, updated_at
		FROM businesses
		WHERE id = $1 AND owner_id = $2
	`
	err := r.db.GetContext(ctx, &biz, query, businessID, ownerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &biz, nil
}

// Update updates a business's mutable fields
func (r *BusinessRepository) Update(ctx context.Context, biz *Business) error {
	query := `
		UPDATE businesses SET
			name = $2, business_type = $3, address = $4, utc_offset_minutes = $5, updated_at = NOW()
		WHERE id = $1 AND owner_id = $6
	`
	result, err := r.db.ExecContext(ctx, query,
		biz.ID, biz.Name, biz.BusinessType, biz.Address, biz.UTCOffsetMinutes, biz.OwnerID,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("business")
	}

	return nil
}
