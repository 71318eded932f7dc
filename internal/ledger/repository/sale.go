package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/karobar-labs/karobar-backend/pkg/database"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
)

// Sale represents one credit sale to a customer
type Sale struct {
	ID          string    `db:"id" json:"id"`
	CustomerID  string    `db:"customer_id" json:"customer_id"`
	OwnerID     string    `db:"owner_id" json:"owner_id"`
	TotalAmount float64   `db:"total_amount" json:"total_amount"`
	Items       *string   `db:"items" json:"items,omitempty"`
	SaleDate    time.Time `db:"sale_date" json:"sale_date"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SaleRepository handles customer sale persistence
type SaleRepository struct {
	db *database.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *database.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// Create inserts a sale inside the ledger transaction
func (r *SaleRepository) Create(ctx context.Context, q Queryer, sale *Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}

	query := `
		INSERT INTO customer_sales (id, customer_id, owner_id, total_amount, items, sale_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := q.QueryRowxContext(ctx, query,
		sale.ID, sale.CustomerID, sale.OwnerID, sale.TotalAmount, sale.Items, sale.SaleDate,
	).Scan(&sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetOwned gets a sale scoped to an owner. Returns (nil, nil) when none.
func (r *SaleRepository) GetOwned(ctx context.Context, id, ownerID string) (*Sale, error) {
	var sale Sale

	query := `
		SELECT id, customer_id, owner_id, total_amount, items, sale_date, created_at, updated_at
		FROM customer_sales
		WHERE id = $1 AND owner_id = $2
	`
	err := r.db.GetContext(ctx, &sale, query, id, ownerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &sale, nil
}

// Update overwrites a sale's amount, items and date inside the ledger
// transaction
func (r *SaleRepository) Update(ctx context.Context, q Queryer, sale *Sale) error {
	query := `
		UPDATE customer_sales
		SET total_amount = $3, items = $4, sale_date = $5, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`
	result, err := q.ExecContext(ctx, query,
		sale.ID, sale.OwnerID, sale.TotalAmount, sale.Items, sale.SaleDate,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("sale")
	}

	return nil
}

// Delete removes a sale inside the ledger transaction
func (r *SaleRepository) Delete(ctx context.Context, q Queryer, id, ownerID string) error {
	query := `DELETE FROM customer_sales WHERE id = $1 AND owner_id = $2`
	result, err := q.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("sale")
	}

	return nil
}

// HistoryByCustomer returns a customer's sales, most recent first
func (r *SaleRepository) HistoryByCustomer(ctx context.Context, customerID string, limit int) ([]*Sale, error) {
	sales := make([]*Sale, 0)

	query := `
		SELECT id, customer_id, owner_id, total_amount, items, sale_date, created_at, updated_at
		FROM customer_sales
		WHERE customer_id = $1
		ORDER BY sale_date DESC, created_at DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &sales, query, customerID, limit); err != nil {
		return nil, err
	}

	return sales, nil
}

// HistoryByOwner returns an owner's sales across all customers, most recent first
func (r *SaleRepository) HistoryByOwner(ctx context.Context, ownerID string, limit int) ([]*Sale, error) {
	sales := make([]*Sale, 0)

	query := `
		SELECT id, customer_id, owner_id, total_amount, items, sale_date, created_at, updated_at
		FROM customer_sales
		WHERE owner_id = $1
		ORDER BY sale_date DESC, created_at DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &sales, query, ownerID, limit); err != nil {
		return nil, err
	}

	return sales, nil
}
