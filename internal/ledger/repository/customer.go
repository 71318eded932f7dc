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

// Queryer lets repository methods run against either the pool or an open
// transaction.
type Queryer = sqlx.ExtContext

// Customer represents a business's credit customer. balance_due and
// total_spent are derived fields owned by the ledger recompute; nothing else
// writes them.
type Customer struct {
	ID         string    `db:"id" json:"id"`
	BusinessID string    `db:"business_id" json:"business_id"`
	OwnerID    string    `db:"owner_id" json:"owner_id"`
	Name       string    `db:"name" json:"name"`
	Mobile     *string   `db:"mobile" json:"mobile,omitempty"`
	Email      *string   `db:"email" json:"email,omitempty"`
	Address    *string   `db:"address" json:"address,omitempty"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	BalanceDue float64   `db:"balance_due" json:"balance_due"`
	TotalSpent float64   `db:"total_spent" json:"total_spent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

const customerColumns = `
	id, business_id, owner_id, name, mobile, email, address, is_active,
	balance_due, total_spent, created_at, updated_at
`

// CustomerRepository handles customer persistence
type CustomerRepository struct {
	db *database.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *database.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create inserts a new customer
func (r *CustomerRepository) Create(ctx context.Context, cust *Customer) error {
	if cust.ID == "" {
		cust.ID = uuid.New().String()
	}

	query := `
		INSERT INTO customers (id, business_id, owner_id, name, mobile, email, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING is_active, balance_due, total_spent, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		cust.ID, cust.BusinessID, cust.OwnerID, cust.Name, cust.Mobile, cust.Email, cust.Address,
	).Scan(&cust.IsActive, &cust.BalanceDue, &cust.TotalSpent, &cust.CreatedAt, &cust.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetOwned gets a customer scoped to an owner. Returns (nil, nil) when
// no matching customer exists.
func (r *CustomerRepository) GetOwned(ctx context.Context, id, ownerID string) (*Customer, error) {
	var cust Customer

	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 AND owner_id = $2`
	err := r.db.GetContext(ctx, &cust, query, id, ownerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &cust, nil
}

// GetByMobile finds an owner's customer by mobile number. Used for the
// customer-facing self view, where identity comes from the token's mobile
// claim. Returns (nil, nil) when none exists.
func (r *CustomerRepository) GetByMobile(ctx context.Context, ownerID, mobile string) (*Customer, error) {
	var cust Customer

	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE owner_id = $1 AND mobile = $2 AND is_active = TRUE
	`
	err := r.db.GetContext(ctx, &cust, query, ownerID, mobile)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &cust, nil
}

// ListByOwner returns an owner's active customers
func (r *CustomerRepository) ListByOwner(ctx context.Context, ownerID string) ([]*Customer, error) {
	customers := make([]*Customer, 0)

	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE owner_id = $1 AND is_active = TRUE
		ORDER BY name
	`
	if err := r.db.SelectContext(ctx, &customers, query, ownerID); err != nil {
		return nil, err
	}

	return customers, nil
}

// Update updates a customer's profile fields, scoped to the owner
func (r *CustomerRepository) Update(ctx context.Context, cust *Customer) error {
	query := `
		UPDATE customers
		SET name = $3, mobile = $4, email = $5, address = $6, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`
	result, err := r.db.ExecContext(ctx, query,
		cust.ID, cust.OwnerID, cust.Name, cust.Mobile, cust.Email, cust.Address,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("customer")
	}

	return nil
}

// Deactivate soft-deletes a customer, scoped to the owner
func (r *CustomerRepository) Deactivate(ctx context.Context, id, ownerID string) error {
	query := `
		UPDATE customers SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND is_active = TRUE
	`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("customer")
	}

	return nil
}

// RecomputeBalance recalculates balance_due and total_spent from the
// customer's sales and payments and persists both. Runs inside the same
// transaction as the mutation that triggered it.
func (r *CustomerRepository) RecomputeBalance(ctx context.Context, q Queryer, customerID string) (balanceDue, totalSpent float64, err error) {
	query := `
		UPDATE customers SET
			balance_due = COALESCE((SELECT SUM(total_amount) FROM customer_sales WHERE customer_id = $1), 0)
			            - COALESCE((SELECT SUM(amount) FROM customer_payments WHERE customer_id = $1), 0),
			total_spent = COALESCE((SELECT SUM(amount) FROM customer_payments WHERE customer_id = $1), 0),
			updated_at = NOW()
		WHERE id = $1
		RETURNING balance_due, total_spent
	`
	err = q.QueryRowxContext(ctx, query, customerID).Scan(&balanceDue, &totalSpent)
	if err == sql.ErrNoRows {
		return 0, 0, errors.NotFound("customer")
	}
	if err != nil {
		return 0, 0, err
	}

	return balanceDue, totalSpent, nil
}
