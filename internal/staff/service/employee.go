package service

import (
	"context"
	"time"

	"github.com/karobar-labs/karobar-backend/internal/staff/repository"
	"github.com/karobar-labs/karobar-backend/pkg/civiltime"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
	"github.com/karobar-labs/karobar-backend/pkg/logger"
)

// EmployeeService handles employee management logic
type EmployeeService struct {
	repo     *repository.EmployeeRepository
	bizRepo  *repository.BusinessRepository
	logger   *logger.Logger
}

// NewEmployeeService creates a new employee service
func NewEmployeeService(repo *repository.EmployeeRepository, bizRepo *repository.BusinessRepository, log *logger.Logger) *EmployeeService {
	return &EmployeeService{
		repo:    repo,
		bizRepo: bizRepo,
		logger:  log,
	}
}

// CreateEmployeeInput holds employee creation parameters
type CreateEmployeeInput struct {
	Name            string  `json:"name" validate:"required,min=1,max=255"`
	Mobile          string  `json:"mobile" validate:"required,min=10,max=15"`
	SalaryType      string  `json:"salary_type" validate:"required,oneof=monthly daily hourly"`
	SalaryAmount    float64 `json:"salary_amount" validate:"required,gt=0"`
	EmployeeType    *string `json:"employee_type,omitempty" validate:"omitempty,max=50"`
	JoiningDate     *string `json:"joining_date,omitempty"`
	ContractEndDate *string `json:"contract_end_date,omitempty"`
}

// Create adds an employee to the owner's business. Mobile numbers must be
// unique across all active employees, checked here and backed by a partial
// unique index.
func (s *EmployeeService) Create(ctx context.Context, ownerID string, input *CreateEmployeeInput) (*repository.Employee, error) {
	biz, err := s.bizRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetActiveByMobile(ctx, input.Mobile)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Conflict("An active employee with this mobile number already exists")
	}

	joining, err := parseOptionalDate(input.JoiningDate)
	if err != nil {
		return nil, errors.BadRequest("invalid joining_date: expected YYYY-MM-DD")
	}
	contractEnd, err := parseOptionalDate(input.ContractEndDate)
	if err != nil {
		return nil, errors.BadRequest("invalid contract_end_date: expected YYYY-MM-DD")
	}

	emp := &repository.Employee{
		OwnerID:         ownerID,
		BusinessID:      biz.ID,
		Name:            input.Name,
		Mobile:          input.Mobile,
		SalaryType:      input.SalaryType,
		SalaryAmount:    input.SalaryAmount,
		EmployeeType:    input.EmployeeType,
		JoiningDate:     joining,
		ContractEndDate: contractEnd,
		IsActive:        true,
	}

	if err := s.repo.Create(ctx, emp); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("employee_id", emp.ID).
		Str("business_id", biz.ID).
		Msg("employee created")

	return emp, nil
}

// List returns all employees of the owner
func (s *EmployeeService) List(ctx context.Context, ownerID string) ([]*repository.Employee, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get returns one employee, scoped to the owner
func (s *EmployeeService) Get(ctx context.Context, ownerID, employeeID string) (*repository.Employee, error) {
	emp, err := s.repo.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp.OwnerID != ownerID {
		return nil, errors.NotFound("employee")
	}
	return emp, nil
}

// UpdateEmployeeInput holds employee update parameters
type UpdateEmployeeInput struct {
	Name            string  `json:"name" validate:"required,min=1,max=255"`
	Mobile          string  `json:"mobile" validate:"required,min=10,max=15"`
	SalaryType      string  `json:"salary_type" validate:"required,oneof=monthly daily hourly"`
	SalaryAmount    float64 `json:"salary_amount" validate:"required,gt=0"`
	EmployeeType    *string `json:"employee_type,omitempty" validate:"omitempty,max=50"`
	JoiningDate     *string `json:"joining_date,omitempty"`
	ContractEndDate *string `json:"contract_end_date,omitempty"`
}

// Update updates an employee, scoped to the owner
func (s *EmployeeService) Update(ctx context.Context, ownerID, employeeID string, input *UpdateEmployeeInput) (*repository.Employee, error) {
	current, err := s.Get(ctx, ownerID, employeeID)
	if err != nil {
		return nil, err
	}

	if input.Mobile != current.Mobile {
		existing, err := s.repo.GetActiveByMobile(ctx, input.Mobile)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != employeeID {
			return nil, errors.Conflict("An active employee with this mobile number already exists")
		}
	}

	joining, err := parseOptionalDate(input.JoiningDate)
	if err != nil {
		return nil, errors.BadRequest("invalid joining_date: expected YYYY-MM-DD")
	}
	contractEnd, err := parseOptionalDate(input.ContractEndDate)
	if err != nil {
		return nil, errors.BadRequest("invalid contract_end_date: expected YYYY-MM-DD")
	}

	emp := &repository.Employee{
		ID:              employeeID,
		OwnerID:         ownerID,
		Name:            input.Name,
		Mobile:          input.Mobile,
		SalaryType:      input.SalaryType,
		SalaryAmount:    input.SalaryAmount,
		EmployeeType:    input.EmployeeType,
		JoiningDate:     joining,
		ContractEndDate: contractEnd,
	}

	if err := s.repo.Update(ctx, emp); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, employeeID)
}

// Deactivate marks an employee inactive
func (s *EmployeeService) Deactivate(ctx context.Context, ownerID, employeeID string) error {
	return s.repo.Deactivate(ctx, employeeID, ownerID)
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := civiltime.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
