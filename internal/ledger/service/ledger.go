package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/karobar-labs/karobar-backend/internal/ledger/repository"
	"github.com/karobar-labs/karobar-backend/pkg/civiltime"
	"github.com/karobar-labs/karobar-backend/pkg/database"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
	"github.com/karobar-labs/karobar-backend/pkg/logger"
	"github.com/karobar-labs/karobar-backend/pkg/messaging"
)

// EventPublisher publishes domain events. May be nil when messaging is
// disabled.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// RecordSaleInput is the payload for recording or updating a sale
type RecordSaleInput struct {
	CustomerID  string  `json:"customer_id" validate:"required,uuid"`
	TotalAmount float64 `json:"total_amount" validate:"required,gt=0"`
	Items       *string `json:"items,omitempty" validate:"omitempty,max=1000"`
	SaleDate    string  `json:"sale_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// RecordPaymentInput is the payload for recording or updating a payment
type RecordPaymentInput struct {
	CustomerID    string  `json:"customer_id" validate:"required,uuid"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod *string `json:"payment_method,omitempty" validate:"omitempty,max=50"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=500"`
	PaymentDate   string  `json:"payment_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// SaleResult carries a sale mutation's outcome with the recomputed balance
type SaleResult struct {
	Sale       *repository.Sale `json:"sale"`
	BalanceDue float64          `json:"balance_due"`
	TotalSpent float64          `json:"total_spent"`
}

// PaymentResult carries a payment mutation's outcome with the recomputed
// balance
type PaymentResult struct {
	Payment    *repository.Payment `json:"payment"`
	BalanceDue float64             `json:"balance_due"`
	TotalSpent float64             `json:"total_spent"`
}

// LedgerService maintains customer balances. Every sale or payment mutation
// and its balance recompute commit in one transaction, so balance_due never
// drifts from its sources.
type LedgerService struct {
	db        *database.DB
	customers *repository.CustomerRepository
	sales     *repository.SaleRepository
	payments  *repository.PaymentRepository
	publisher EventPublisher
	clock     civiltime.Clock
	logger    *logger.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	db *database.DB,
	customers *repository.CustomerRepository,
	sales *repository.SaleRepository,
	payments *repository.PaymentRepository,
	publisher EventPublisher,
	clock civiltime.Clock,
	log *logger.Logger,
) *LedgerService {
	if clock == nil {
		clock = civiltime.SystemClock{}
	}
	return &LedgerService{
		db:        db,
		customers: customers,
		sales:     sales,
		payments:  payments,
		publisher: publisher,
		clock:     clock,
		logger:    log.WithComponent("ledger_service"),
	}
}

func (s *LedgerService) ownedCustomer(ctx context.Context, customerID, ownerID string) (*repository.Customer, error) {
	cust, err := s.customers.GetOwned(ctx, customerID, ownerID)
	if err != nil {
		return nil, err
	}
	if cust == nil {
		return nil, errors.NotFound("customer")
	}
	return cust, nil
}

func (s *LedgerService) resolveDate(raw string) (time.Time, error) {
	if raw == "" {
		date := civiltime.Date(s.clock.Now(), civiltime.DefaultOffsetMinutes)
		return civiltime.ParseDate(date)
	}
	t, err := civiltime.ParseDate(raw)
	if err != nil {
		return time.Time{}, errors.BadRequest("Invalid date format. Use YYYY-MM-DD")
	}
	return t, nil
}

// RecordSale inserts a sale and recomputes the customer's balance atomically
func (s *LedgerService) RecordSale(ctx context.Context, ownerID string, input *RecordSaleInput) (*SaleResult, error) {
	cust, err := s.ownedCustomer(ctx, input.CustomerID, ownerID)
	if err != nil {
		return nil, err
	}

	saleDate, err := s.resolveDate(input.SaleDate)
	if err != nil {
		return nil, err
	}

	sale := &repository.Sale{
		CustomerID:  cust.ID,
		OwnerID:     ownerID,
		TotalAmount: input.TotalAmount,
		Items:       input.Items,
		SaleDate:    saleDate,
	}

	var balanceDue, totalSpent float64
	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.sales.Create(ctx, tx, sale); err != nil {
			return err
		}
		balanceDue, totalSpent, err = s.customers.RecomputeBalance(ctx, tx, cust.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.EventSaleRecorded, messaging.SaleRecordedEvent{
		SaleID:     sale.ID,
		CustomerID: cust.ID,
		OwnerID:    ownerID,
		Amount:     sale.TotalAmount,
		BalanceDue: balanceDue,
	})

	s.logger.Info().
		Str("sale_id", sale.ID).
		Str("customer_id", cust.ID).
		Float64("amount", sale.TotalAmount).
		Float64("balance_due", balanceDue).
		Msg("Sale recorded")

	return &SaleResult{Sale: sale, BalanceDue: balanceDue, TotalSpent: totalSpent}, nil
}

// UpdateSale overwrites a sale and recomputes the balance atomically
func (s *LedgerService) UpdateSale(ctx context.Context, saleID, ownerID string, input *RecordSaleInput) (*SaleResult, error) {
	sale, err := s.sales.GetOwned(ctx, saleID, ownerID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, errors.NotFound("sale")
	}
	if sale.CustomerID != input.CustomerID {
		return nil, errors.BadRequest("Sale does not belong to this customer")
	}

	saleDate, err := s.resolveDate(input.SaleDate)
	if err != nil {
		return nil, err
	}

	sale.TotalAmount = input.TotalAmount
	sale.Items = input.Items
	sale.SaleDate = saleDate

	var balanceDue, totalSpent float64
	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.sales.Update(ctx, tx, sale); err != nil {
			return err
		}
		balanceDue, totalSpent, err = s.customers.RecomputeBalance(ctx, tx, sale.CustomerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &SaleResult{Sale: sale, BalanceDue: balanceDue, TotalSpent: totalSpent}, nil
}

// DeleteSale removes a sale and recomputes the balance atomically
func (s *LedgerService) DeleteSale(ctx context.Context, saleID, ownerID string) error {
	sale, err := s.sales.GetOwned(ctx, saleID, ownerID)
	if err != nil {
		return err
	}
	if sale == nil {
		return errors.NotFound("sale")
	}

	return s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.sales.Delete(ctx, tx, saleID, ownerID); err != nil {
			return err
		}
		_, _, err := s.customers.RecomputeBalance(ctx, tx, sale.CustomerID)
		return err
	})
}

// RecordPayment inserts a payment and recomputes the balance atomically
func (s *LedgerService) RecordPayment(ctx context.Context, ownerID string, input *RecordPaymentInput) (*PaymentResult, error) {
	cust, err := s.ownedCustomer(ctx, input.CustomerID, ownerID)
	if err != nil {
		return nil, err
	}

	paymentDate, err := s.resolveDate(input.PaymentDate)
	if err != nil {
		return nil, err
	}

	payment := &repository.Payment{
		CustomerID:    cust.ID,
		OwnerID:       ownerID,
		Amount:        input.Amount,
		PaymentMethod: input.PaymentMethod,
		Notes:         input.Notes,
		PaymentDate:   paymentDate,
	}

	var balanceDue, totalSpent float64
	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.payments.Create(ctx, tx, payment); err != nil {
			return err
		}
		balanceDue, totalSpent, err = s.customers.RecomputeBalance(ctx, tx, cust.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.EventPaymentRecorded, messaging.PaymentRecordedEvent{
		PaymentID:  payment.ID,
		CustomerID: cust.ID,
		OwnerID:    ownerID,
		Amount:     payment.Amount,
		BalanceDue: balanceDue,
	})

	s.logger.Info().
		Str("payment_id", payment.ID).
		Str("customer_id", cust.ID).
		Float64("amount", payment.Amount).
		Float64("balance_due", balanceDue).
		Msg("Payment recorded")

	return &PaymentResult{Payment: payment, BalanceDue: balanceDue, TotalSpent: totalSpent}, nil
}

// UpdatePayment overwrites a payment and recomputes the balance atomically
func (s *LedgerService) UpdatePayment(ctx context.Context, paymentID, ownerID string, input *RecordPaymentInput) (*PaymentResult, error) {
	payment, err := s.payments.GetOwned(ctx, paymentID, ownerID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errors.NotFound("payment")
	}
	if payment.CustomerID != input.CustomerID {
		return nil, errors.BadRequest("Payment does not belong to this customer")
	}

	paymentDate, err := s.resolveDate(input.PaymentDate)
	if err != nil {
		return nil, err
	}

	payment.Amount = input.Amount
	payment.PaymentMethod = input.PaymentMethod
	payment.Notes = input.Notes
	payment.PaymentDate = paymentDate

	var balanceDue, totalSpent float64
	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.payments.Update(ctx, tx, payment); err != nil {
			return err
		}
		balanceDue, totalSpent, err = s.customers.RecomputeBalance(ctx, tx, payment.CustomerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &PaymentResult{Payment: payment, BalanceDue: balanceDue, TotalSpent: totalSpent}, nil
}

// DeletePayment removes a payment and recomputes the balance atomically
func (s *LedgerService) DeletePayment(ctx context.Context, paymentID, ownerID string) error {
	payment, err := s.payments.GetOwned(ctx, paymentID, ownerID)
	if err != nil {
		return err
	}
	if payment == nil {
		return errors.NotFound("payment")
	}

	return s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.payments.Delete(ctx, tx, paymentID, ownerID); err != nil {
			return err
		}
		_, _, err := s.customers.RecomputeBalance(ctx, tx, payment.CustomerID)
		return err
	})
}

// SaleHistory returns a customer's most recent sales
func (s *LedgerService) SaleHistory(ctx context.Context, customerID, ownerID string) ([]*repository.Sale, error) {
	if _, err := s.ownedCustomer(ctx, customerID, ownerID); err != nil {
		return nil, err
	}
	return s.sales.HistoryByCustomer(ctx, customerID, 30)
}

// PaymentHistory returns a customer's most recent payments
func (s *LedgerService) PaymentHistory(ctx context.Context, customerID, ownerID string) ([]*repository.Payment, error) {
	if _, err := s.ownedCustomer(ctx, customerID, ownerID); err != nil {
		return nil, err
	}
	return s.payments.HistoryByCustomer(ctx, customerID, 30)
}

// OwnerSaleHistory returns an owner's most recent sales across all customers
func (s *LedgerService) OwnerSaleHistory(ctx context.Context, ownerID string) ([]*repository.Sale, error) {
	return s.sales.HistoryByOwner(ctx, ownerID, 30)
}

// OwnerPaymentHistory returns an owner's most recent payments across all customers
func (s *LedgerService) OwnerPaymentHistory(ctx context.Context, ownerID string) ([]*repository.Payment, error) {
	return s.payments.HistoryByOwner(ctx, ownerID, 30)
}

func (s *LedgerService) publish(ctx context.Context, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("Failed to publish event")
	}
}
