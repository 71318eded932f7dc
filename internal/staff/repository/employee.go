package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/karobar-labs/karobar-backend/pkg/database"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
)

// Employee represents a business employee
type Employee struct {
	ID              string     `db:"id" json:"id"`
	OwnerID         string     `db:"owner_id" json:"owner_id"`
	BusinessID      string     `db:"business_id" json:"business_id"`
	Name            string     `db:"name" json:"name"`
	Mobile          string     `db:"mobile" json:"mobile"`
	SalaryType      string     `db:"salary_type" json:"salary_type"`
	SalaryAmount    float64    `db:"salary_amount" json:"salary_amount"`
	EmployeeType    *string    `db:"employee_type" json:"employee_type,omitempty"`
	JoiningDate     *time.Time `db:"joining_date" json:"joining_date,omitempty"`
	ContractEndDate *time.Time `db:"contract_end_date" json:"contract_end_date,omitempty"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

const employeeColumns = `
	id, owner_id, business_id, name, mobile, salary_type, salary_amount,
	employee_type, joining_date, contract_end_date, is_active, created_at, updated_at
`

// EmployeeRepository handles employee persistence
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create inserts a new employee. A partial unique index on mobile enforces
// uniqueness across all active employees.
func (r *EmployeeRepository) Create(ctx context.Context, emp *Employee) error {
	if emp.ID == "" {
		emp.ID = uuid.New().String()
	}

	query := `
		INSERT INTO employees (
			id, owner_id, business_id, name, mobile, salary_type, salary_amount,
			employee_type, joining_date, contract_end_date, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		emp.ID, emp.OwnerID, emp.BusinessID, emp.Name, emp.Mobile, emp.SalaryType,
		emp.SalaryAmount, emp.EmployeeType, emp.JoiningDate, emp.ContractEndDate, emp.IsActive,
	).Scan(&emp.CreatedAt, &emp.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets an employee by ID
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*Employee, error) {
	var emp Employee

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	err := r.db.GetContext(ctx, &emp, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, err
	}

	return &emp, nil
}

// GetActiveByID gets an active employee by ID.
// Returns (nil, nil) when no active employee matches.
func (r *EmployeeRepository) GetActiveByID(ctx context.Context, id string) (*Employee, error) {
	var emp Employee

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 AND is_active = TRUE`
	err := r.db.GetContext(ctx, &emp, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &emp, nil
}

// GetActiveByMobile gets an active employee by mobile number.
// Returns (nil, nil) when no active employee matches.
func (r *EmployeeRepository) GetActiveByMobile(ctx context.Context, mobile string) (*Employee, error) {
	var emp Employee

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE mobile = $1 AND is_active = TRUE`
	err := r.db.GetContext(ctx, &emp, query, mobile)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &emp, nil
}

// ListByOwner lists all employees belonging to an owner, newest first
func (r *EmployeeRepository) ListByOwner(ctx context.Context, ownerID string) ([]*Employee, error) {
	employees := make([]*Employee, 0)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE owner_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &employees, query, ownerID); err != nil {
		return nil, err
	}

	return employees, nil
}

// ListActiveByBusiness lists all active employees of a business
func (r *EmployeeRepository) ListActiveByBusiness(ctx context.Context, businessID string) ([]*Employee, error) {
	employees := make([]*Employee, 0)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE business_id = $1 AND is_active = TRUE ORDER BY name`
	if err := r.db.SelectContext(ctx, &employees, query, businessID); err != nil {
		return nil, err
	}

	return employees, nil
}

// CountActiveByBusiness returns the number of active employees of a business
func (r *EmployeeRepository) CountActiveByBusiness(ctx context.Context, businessID string) (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM employees WHERE business_id = $1 AND is_active = TRUE`
	if err := r.db.GetContext(ctx, &count, query, businessID); err != nil {
		return 0, err
	}

	return count, nil
}

// Update updates an employee's mutable fields, scoped to the owner
func (r *EmployeeRepository) Update(ctx context.Context, emp *Employee) error {
	query := `
		UPDATE employees SET
			name = $2, mobile = $3, salary_type = $4, salary_amount = $5,
			employee_type = $6, joining_date = $7, contract_end_date = $8, updated_at = NOW()
		WHERE id = $1 AND owner_id = $9
	`
	result, err := r.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Mobile, emp.SalaryType, emp.SalaryAmount,
		emp.EmployeeType, emp.JoiningDate, emp.ContractEndDate, emp.OwnerID,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("employee")
	}

	return nil
}

// Deactivate marks an employee inactive, scoped to the owner
func (r *EmployeeRepository) Deactivate(ctx context.Context, id, ownerID string) error {
	query := `
		UPDATE employees SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND is_active = TRUE
	`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFoundMsg("Employee not found or inactive")
	}

	return nil
}
