package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/karobar-labs/karobar-backend/pkg/database"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
)

// Payment represents one payment received from a customer
type Payment struct {
	ID            string    `db:"id" json:"id"`
	CustomerID    string    `db:"customer_id" json:"customer_id"`
	OwnerID       string    `db:"owner_id" json:"owner_id"`
	Amount        float64   `db:"amount" json:"amount"`
	PaymentMethod *string   `db:"payment_method" json:"payment_method,omitempty"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	PaymentDate   time.Time `db:"payment_date" json:"payment_date"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// PaymentRepository handles customer payment persistence
type PaymentRepository struct {
	db *database.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment inside the ledger transaction
func (r *PaymentRepository) Create(ctx context.Context, q Queryer, payment *Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}

	query := `
		INSERT INTO customer_payments (id, customer_id, owner_id, amount, payment_method, notes, payment_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := q.QueryRowxContext(ctx, query,
		payment.ID, payment.CustomerID, payment.OwnerID, payment.Amount,
		payment.PaymentMethod, payment.Notes, payment.PaymentDate,
	).Scan(&payment.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetOwned gets a payment scoped to an owner. Returns (nil, nil) when none.
func (r *PaymentRepository) GetOwned(ctx context.Context, id, ownerID string) (*Payment, error) {
	var payment Payment

	query := `
		SELECT id, customer_id, owner_id, amount, payment_method, notes, payment_date, created_at
		FROM customer_payments
		WHERE id = $1 AND owner_id = $2
	`
	err := r.db.GetContext(ctx, &payment, query, id, ownerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// Update overwrites a payment's amount, method, notes and date inside the
// ledger transaction
func (r *PaymentRepository) Update(ctx context.Context, q Queryer, payment *Payment) error {
	query := `
		UPDATE customer_payments
		SET amount = $3, payment_method = $4, notes = $5, payment_date = $6
		WHERE id = $1 AND owner_id = $2
	`
	result, err := q.ExecContext(ctx, query,
		payment.ID, payment.OwnerID, payment.Amount,
		payment.PaymentMethod, payment.Notes, payment.PaymentDate,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("payment")
	}

	return nil
}

// Delete removes a payment inside the ledger transaction
func (r *PaymentRepository) Delete(ctx context.Context, q Queryer, id, ownerID string) error {
	query := `DELETE FROM customer_payments WHERE id = $1 AND owner_id = $2`
	result, err := q.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("payment")
	}

	return nil
}

// HistoryByCustomer returns a customer's payments, most recent first
func (r *PaymentRepository) HistoryByCustomer(ctx context.Context, customerID string, limit int) ([]*Payment, error) {
	payments := make([]*Payment, 0)

	query := `
		SELECT id, customer_id, owner_id, amount, payment_method, notes, payment_date, created_at
		FROM customer_payments
		WHERE customer_id = $1
		ORDER BY payment_date DESC, created_at DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &payments, query, customerID, limit); err != nil {
		return nil, err
	}

	return payments, nil
}

// HistoryByOwner returns an owner's payments across all customers, most recent first
func (r *PaymentRepository) HistoryByOwner(ctx context.Context, ownerID string, limit int) ([]*Payment, error) {
	payments := make([]*Payment, 0)

	query := `
		SELECT id, customer_id, owner_id, amount, payment_method, notes, payment_date, created_at
		FROM customer_payments
		WHERE owner_id = $1
		ORDER BY payment_date DESC, created_at DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &payments, query, ownerID, limit); err != nil {
		return nil, err
	}

	return payments, nil
}
