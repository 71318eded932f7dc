package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BusinessFixture represents test business data
type BusinessFixture struct {
	ID               string
	OwnerID          string
	Name             string
	BusinessType     string
	Address          string
	UTCOffsetMinutes int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EmployeeFixture represents test employee data
type EmployeeFixture struct {
	ID           string
	OwnerID      string
	BusinessID   string
	Name         string
	Mobile       string
	SalaryType   string
	SalaryAmount float64
	EmployeeType string
	JoiningDate  time.Time
	IsActive     bool
	CreatedAt    time.Time
}

// CustomerFixture represents test customer data
type CustomerFixture struct {
	ID         string
	BusinessID string
	OwnerID    string
	Name       string
	Mobile     string
	Email      string
	Address    string
	IsActive   bool
	BalanceDue float64
	TotalSpent float64
	CreatedAt  time.Time
}

// SaleFixture represents test customer sale data
type SaleFixture struct {
	ID          string
	CustomerID  string
	OwnerID     string
	TotalAmount float64
	Items       string
	SaleDate    time.Time
}

// PaymentFixture represents test customer payment data
type PaymentFixture struct {
	ID            string
	CustomerID    string
	OwnerID       string
	Amount        float64
	PaymentMethod string
	PaymentDate   time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Business creates a business fixture with defaults
func (f *FixtureFactory) Business(opts ...func(*BusinessFixture)) BusinessFixture {
	seq := f.nextSeq()

	biz := BusinessFixture{
		ID:               uuid.New().String(),
		OwnerID:          uuid.New().String(),
		Name:             fmt.Sprintf("Test Business %d", seq),
		BusinessType:     "retail",
		Address:          "12 Market Road",
		UTCOffsetMinutes: 330,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	for _, opt := range opts {
		opt(&biz)
	}

	return biz
}

// WithOwner sets the business owner ID
func WithOwner(ownerID string) func(*BusinessFixture) {
	return func(b *BusinessFixture) {
		b.OwnerID = ownerID
	}
}

// WithOffset sets the business UTC offset in minutes
func WithOffset(minutes int) func(*BusinessFixture) {
	return func(b *BusinessFixture) {
		b.UTCOffsetMinutes = minutes
	}
}

// Employee creates an employee fixture with defaults
func (f *FixtureFactory) Employee(opts ...func(*EmployeeFixture)) EmployeeFixture {
	seq := f.nextSeq()

	emp := EmployeeFixture{
		ID:           uuid.New().String(),
		OwnerID:      uuid.New().String(),
		BusinessID:   uuid.New().String(),
		Name:         fmt.Sprintf("Employee %d", seq),
		Mobile:       fmt.Sprintf("98%08d", seq),
		SalaryType:   "monthly",
		SalaryAmount: 15000,
		EmployeeType: "full_time",
		JoiningDate:  time.Now().AddDate(-1, 0, 0),
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	for _, opt := range opts {
		opt(&emp)
	}

	return emp
}

// WithEmployeeOwner sets the employee's owner and business
func WithEmployeeOwner(ownerID, businessID string) func(*EmployeeFixture) {
	return func(e *EmployeeFixture) {
		e.OwnerID = ownerID
		e.BusinessID = businessID
	}
}

// WithMobile sets the employee mobile number
func WithMobile(mobile string) func(*EmployeeFixture) {
	return func(e *EmployeeFixture) {
		e.Mobile = mobile
	}
}

// Inactive marks the employee as inactive
func Inactive() func(*EmployeeFixture) {
	return func(e *EmployeeFixture) {
		e.IsActive = false
	}
}

// Customer creates a customer fixture with defaults
func (f *FixtureFactory) Customer(opts ...func(*CustomerFixture)) CustomerFixture {
	seq := f.nextSeq()

	cust := CustomerFixture{
		ID:         uuid.New().String(),
		BusinessID: uuid.New().String(),
		OwnerID:    uuid.New().String(),
		Name:       fmt.Sprintf("Customer %d", seq),
		Mobile:     fmt.Sprintf("97%08d", seq),
		Email:      fmt.Sprintf("customer%d@example.com", seq),
		Address:    "45 Main Street",
		IsActive:   true,
		CreatedAt:  time.Now(),
	}

	for _, opt := range opts {
		opt(&cust)
	}

	return cust
}

// WithCustomerOwner sets the customer's owner ID
func WithCustomerOwner(ownerID string) func(*CustomerFixture) {
	return func(c *CustomerFixture) {
		c.OwnerID = ownerID
	}
}

// WithCustomerBusiness sets the customer's business ID
func WithCustomerBusiness(businessID string) func(*CustomerFixture) {
	return func(c *CustomerFixture) {
		c.BusinessID = businessID
	}
}

// Sale creates a sale fixture for the given customer
func (f *FixtureFactory) Sale(customerID, ownerID string, amount float64) SaleFixture {
	return SaleFixture{
		ID:          uuid.New().String(),
		CustomerID:  customerID,
		OwnerID:     ownerID,
		TotalAmount: amount,
		Items:       "general goods",
		SaleDate:    time.Now(),
	}
}

// Payment creates a payment fixture for the given customer
func (f *FixtureFactory) Payment(customerID, ownerID string, amount float64) PaymentFixture {
	return PaymentFixture{
		ID:            uuid.New().String(),
		CustomerID:    customerID,
		OwnerID:       ownerID,
		Amount:        amount,
		PaymentMethod: "cash",
		PaymentDate:   time.Now(),
	}
}
