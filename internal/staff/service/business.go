package service

import (
	"context"

	"github.com/karobar-labs/karobar-backend/internal/staff/repository"
	"github.com/karobar-labs/karobar-backend/pkg/civiltime"
	"github.com/karobar-labs/karobar-backend/pkg/logger"
)

// BusinessService handles business profile logic
type BusinessService struct {
	repo   *repository.BusinessRepository
	logger *logger.Logger
}

// NewBusinessService creates a new business service
func NewBusinessService(repo *repository.BusinessRepository, log *logger.Logger) *BusinessService {
	return &BusinessService{
		repo:   repo,
		logger: log,
	}
}

// CreateBusinessInput holds business creation parameters
type CreateBusinessInput struct {
	Name             string  `json:"name" validate:"required,min=1,max=255"`
	BusinessType     *string `json:"business_type,omitempty" validate:"omitempty,max=100"`
	Address          *string `json:"address,omitempty"`
	UTCOffsetMinutes int     `json:"utc_offset_minutes" validate:"omitempty,min=-720,max=840"`
}

// Create creates the owner's business. Each owner has exactly one; the unique
// constraint on owner_id surfaces a duplicate as a conflict.
func (s *BusinessService) Create(ctx context.Context, ownerID string, input *CreateBusinessInput) (*repository.Business, error) {
	offset := input.UTCOffsetMinutes
	if offset == 0 {
		offset = civiltime.DefaultOffsetMinutes
	}

	biz := &repository.Business{
		OwnerID:          ownerID,
		Name:             input.Name,
		BusinessType:     input.BusinessType,
		Address:          input.Address,
		UTCOffsetMinutes: offset,
	}

	if err := s.repo.Create(ctx, biz); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("business_id", biz.ID).
		Str("owner_id", ownerID).
		Msg("business created")

	return biz, nil
}

// GetByOwner returns the owner's business
func (s *BusinessService) GetByOwner(ctx context.Context, ownerID string) (*repository.Business, error) {
	return s.repo.GetByOwnerID(ctx, ownerID)
}

// UpdateBusinessInput holds business update parameters
type UpdateBusinessInput struct {
	Name             string  `json:"name" validate:"required,min=1,max=255"`
	BusinessType     *string `json:"business_type,omitempty" validate:"omitempty,max=100"`
	Address          *string `json:"address,omitempty"`
	UTCOffsetMinutes int     `json:"utc_offset_minutes" validate:"omitempty,min=-720,max=840"`
}

// Update updates the owner's business profile
func (s *BusinessService) Update(ctx context.Context, ownerID, businessID string, input *UpdateBusinessInput) (*repository.Business, error) {
	offset := input.UTCOffsetMinutes
	if offset == 0 {
		offset = civiltime.DefaultOffsetMinutes
	}

	biz := &repository.Business{
		ID:               businessID,
		OwnerID:          ownerID,
		Name:             input.Name,
		BusinessType:     input.BusinessType,
		Address:          input.Address,
		UTCOffsetMinutes: offset,
	}

	if err := s.repo.Update(ctx, biz); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, businessID)
}
