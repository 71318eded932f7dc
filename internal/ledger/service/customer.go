package service

import (
	"context"

	"github.com/karobar-labs/karobar-backend/internal/ledger/repository"
	staffrepo "github.com/karobar-labs/karobar-backend/internal/staff/repository"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
	"github.com/karobar-labs/karobar-backend/pkg/logger"
)

// CreateCustomerInput is the payload for customer creation
type CreateCustomerInput struct {
	Name    string  `json:"name" validate:"required,min=2,max=255"`
	Mobile  *string `json:"mobile,omitempty" validate:"omitempty,min=10,max=15"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// UpdateCustomerInput is the payload for customer updates
type UpdateCustomerInput struct {
	Name    string  `json:"name" validate:"required,min=2,max=255"`
	Mobile  *string `json:"mobile,omitempty" validate:"omitempty,min=10,max=15"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// CustomerService implements customer management
type CustomerService struct {
	customers  *repository.CustomerRepository
	businesses *staffrepo.BusinessRepository
	logger     *logger.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(customers *repository.CustomerRepository, businesses *staffrepo.BusinessRepository, log *logger.Logger) *CustomerService {
	return &CustomerService{
		customers:  customers,
		businesses: businesses,
		logger:     log.WithComponent("customer_service"),
	}
}

// Create adds a customer under the owner's business
func (s *CustomerService) Create(ctx context.Context, ownerID string, input *CreateCustomerInput) (*repository.Customer, error) {
	business, err := s.businesses.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	cust := &repository.Customer{
		BusinessID: business.ID,
		OwnerID:    ownerID,
		Name:       input.Name,
		Mobile:     input.Mobile,
		Email:      input.Email,
		Address:    input.Address,
	}
	if err := s.customers.Create(ctx, cust); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("customer_id", cust.ID).
		Str("owner_id", ownerID).
		Msg("Customer created")

	return cust, nil
}

// Get returns one of the owner's customers
func (s *CustomerService) Get(ctx context.Context, customerID, ownerID string) (*repository.Customer, error) {
	cust, err := s.customers.GetOwned(ctx, customerID, ownerID)
	if err != nil {
		return nil, err
	}
	if cust == nil {
		return nil, errors.NotFound("customer")
	}
	return cust, nil
}

// List returns the owner's active customers
func (s *CustomerService) List(ctx context.Context, ownerID string) ([]*repository.Customer, error) {
	return s.customers.ListByOwner(ctx, ownerID)
}

// Update overwrites a customer's profile fields
func (s *CustomerService) Update(ctx context.Context, customerID, ownerID string, input *UpdateCustomerInput) (*repository.Customer, error) {
	cust, err := s.customers.GetOwned(ctx, customerID, ownerID)
	if err != nil {
		return nil, err
	}
	if cust == nil {
		return nil, errors.NotFound("customer")
	}

	cust.Name = input.Name
	cust.Mobile = input.Mobile
	cust.Email = input.Email
	cust.Address = input.Address
	if err := s.customers.Update(ctx, cust); err != nil {
		return nil, err
	}

	return cust, nil
}

// Deactivate soft-deletes a customer
func (s *CustomerService) Deactivate(ctx context.Context, customerID, ownerID string) error {
	return s.customers.Deactivate(ctx, customerID, ownerID)
}

// Self returns the customer row matching the caller's token identity.
// Customer tokens carry the shop owner's ID and the customer's mobile.
func (s *CustomerService) Self(ctx context.Context, ownerID, mobile string) (*repository.Customer, error) {
	if ownerID == "" || mobile == "" {
		return nil, errors.Forbidden("customer identity missing from token")
	}

	cust, err := s.customers.GetByMobile(ctx, ownerID, mobile)
	if err != nil {
		return nil, err
	}
	if cust == nil {
		return nil, errors.NotFound("customer")
	}
	return cust, nil
}
