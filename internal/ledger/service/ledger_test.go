package service_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/karobar-labs/karobar-backend/internal/ledger/repository"
	"github.com/karobar-labs/karobar-backend/internal/ledger/service"
	staffrepo "github.com/karobar-labs/karobar-backend/internal/staff/repository"
	"github.com/karobar-labs/karobar-backend/pkg/civiltime"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
	"github.com/karobar-labs/karobar-backend/pkg/messaging"
	"github.com/karobar-labs/karobar-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	code := m.Run()
	testutil.TerminateContainer(ctx)
	os.Exit(code)
}

type env struct {
	customers *service.CustomerService
	ledger    *service.LedgerService
	publisher *testutil.MockPublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()

	publisher := testutil.NewMockPublisher()
	clock := civiltime.FixedClock{T: time.Date(2026, 3, 10, 4, 30, 0, 0, time.UTC)}

	businessRepo := staffrepo.NewBusinessRepository(suite.DB)
	customerRepo := repository.NewCustomerRepository(suite.DB)
	saleRepo := repository.NewSaleRepository(suite.DB)
	paymentRepo := repository.NewPaymentRepository(suite.DB)

	return &env{
		customers: service.NewCustomerService(customerRepo, businessRepo, suite.Logger),
		ledger:    service.NewLedgerService(suite.DB, customerRepo, saleRepo, paymentRepo, publisher, clock, suite.Logger),
		publisher: publisher,
	}
}

func seedBusiness(t *testing.T, ctx context.Context) (string, string) {
	t.Helper()
	biz := suite.Fixtures.Business()
	_, err := suite.RawDB.ExecContext(ctx, `
		INSERT INTO businesses (id, owner_id, name, utc_offset_minutes)
		VALUES ($1, $2, $3, $4)
	`, biz.ID, biz.OwnerID, biz.Name, biz.UTCOffsetMinutes)
	require.NoError(t, err)
	return biz.ID, biz.OwnerID
}

func seedCustomer(t *testing.T, ctx context.Context, e *env, ownerID string) *repository.Customer {
	t.Helper()
	cust, err := e.customers.Create(ctx, ownerID, &service.CreateCustomerInput{
		Name:   "Ramesh Traders",
		Mobile: strPtr("9812345670"),
	})
	require.NoError(t, err)
	return cust
}

func strPtr(s string) *string { return &s }

func TestLedgerService_BalanceAfterInterleavedMutations(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t)
	_, ownerID := seedBusiness(t, ctx)
	cust := seedCustomer(t, ctx, e, ownerID)

	sale1, err := e.ledger.RecordSale(ctx, ownerID, &service.RecordSaleInput{
		CustomerID:  cust.ID,
		TotalAmount: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, 500.0, sale1.BalanceDue)
	assert.Equal(t, 0.0, sale1.TotalSpent)
	e.publisher.AssertEventPublished(t, messaging.EventSaleRecorded)

	pay1, err := e.ledger.RecordPayment(ctx, ownerID, &service.RecordPaymentInput{
		CustomerID: cust.ID,
		Amount:     200,
	})
	require.NoError(t, err)
	assert.Equal(t, 300.0, pay1.BalanceDue)
	assert.Equal(t, 200.0, pay1.TotalSpent)
	e.publisher.AssertEventPublished(t, messaging.EventPaymentRecorded)

	sale2, err := e.ledger.RecordSale(ctx, ownerID, &service.RecordSaleInput{
		CustomerID:  cust.ID,
		TotalAmount: 150.50,
	})
	require.NoError(t, err)
	assert.InDelta(t, 450.50, sale2.BalanceDue, 0.001)

	// The customer row carries the recomputed values
	got, err := e.customers.Get(ctx, cust.ID, ownerID)
	require.NoError(t, err)
	assert.InDelta(t, 450.50, got.BalanceDue, 0.001)
	assert.InDelta(t, 200.0, got.TotalSpent, 0.001)
}

func TestLedgerService_UpdateAndDeleteRecompute(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t)
	_, ownerID := seedBusiness(t, ctx)
	cust := seedCustomer(t, ctx, e, ownerID)

	sale, err := e.ledger.RecordSale(ctx, ownerID, &service.RecordSaleInput{
		CustomerID:  cust.ID,
		TotalAmount: 1000,
	})
	require.NoError(t, err)

	updated, err := e.ledger.UpdateSale(ctx, sale.Sale.ID, ownerID, &service.RecordSaleInput{
		CustomerID:  cust.ID,
		TotalAmount: 800,
	})
	require.NoError(t, err)
	assert.Equal(t, 800.0, updated.BalanceDue)

	pay, err := e.ledger.RecordPayment(ctx, ownerID, &service.RecordPaymentInput{
		CustomerID: cust.ID,
		Amount:     300,
	})
	require.NoError(t, err)
	assert.Equal(t, 500.0, pay.BalanceDue)

	require.NoError(t, e.ledger.DeletePayment(ctx, pay.Payment.ID, ownerID))

	got, err := e.customers.Get(ctx, cust.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, 800.0, got.BalanceDue)
	assert.Equal(t, 0.0, got.TotalSpent)

	require.NoError(t, e.ledger.DeleteSale(ctx, sale.Sale.ID, ownerID))

	got, err = e.customers.Get(ctx, cust.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.BalanceDue)
}

func TestLedgerService_OwnerScoping(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t)
	_, ownerID := seedBusiness(t, ctx)
	_, otherOwner := seedBusiness(t, ctx)
	cust := seedCustomer(t, ctx, e, ownerID)

	_, err := e.ledger.RecordSale(ctx, otherOwner, &service.RecordSaleInput{
		CustomerID:  cust.ID,
		TotalAmount: 100,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	sale, err := e.ledger.RecordSale(ctx, ownerID, &service.RecordSaleInput{
		CustomerID:  cust.ID,
		TotalAmount: 100,
	})
	require.NoError(t, err)

	err = e.ledger.DeleteSale(ctx, sale.Sale.ID, otherOwner)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestLedgerService_History(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t)
	_, ownerID := seedBusiness(t, ctx)
	cust := seedCustomer(t, ctx, e, ownerID)

	for i := 0; i < 3; i++ {
		_, err := e.ledger.RecordSale(ctx, ownerID, &service.RecordSaleInput{
			CustomerID:  cust.ID,
			TotalAmount: float64(100 * (i + 1)),
		})
		require.NoError(t, err)
	}
	_, err := e.ledger.RecordPayment(ctx, ownerID, &service.RecordPaymentInput{
		CustomerID: cust.ID,
		Amount:     50,
	})
	require.NoError(t, err)

	sales, err := e.ledger.SaleHistory(ctx, cust.ID, ownerID)
	require.NoError(t, err)
	assert.Len(t, sales, 3)

	payments, err := e.ledger.PaymentHistory(ctx, cust.ID, ownerID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	ownerSales, err := e.ledger.OwnerSaleHistory(ctx, ownerID)
	require.NoError(t, err)
	assert.Len(t, ownerSales, 3)

	otherSales, err := e.ledger.OwnerSaleHistory(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Empty(t, otherSales)

	ownerPayments, err := e.ledger.OwnerPaymentHistory(ctx, ownerID)
	require.NoError(t, err)
	assert.Len(t, ownerPayments, 1)
}

func TestCustomerService_SelfView(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t)
	_, ownerID := seedBusiness(t, ctx)
	cust := seedCustomer(t, ctx, e, ownerID)

	_, err := e.ledger.RecordSale(ctx, ownerID, &service.RecordSaleInput{
		CustomerID:  cust.ID,
		TotalAmount: 250,
	})
	require.NoError(t, err)

	self, err := e.customers.Self(ctx, ownerID, "9812345670")
	require.NoError(t, err)
	assert.Equal(t, cust.ID, self.ID)
	assert.Equal(t, 250.0, self.BalanceDue)

	_, err = e.customers.Self(ctx, ownerID, "0000000000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = e.customers.Self(ctx, "", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestCustomerService_Deactivate(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	e := newEnv(t)
	_, ownerID := seedBusiness(t, ctx)
	cust := seedCustomer(t, ctx, e, ownerID)

	require.NoError(t, e.customers.Deactivate(ctx, cust.ID, ownerID))

	customers, err := e.customers.List(ctx, ownerID)
	require.NoError(t, err)
	assert.Empty(t, customers)

	// Deactivating twice reports not found
	err = e.customers.Deactivate(ctx, cust.ID, ownerID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
