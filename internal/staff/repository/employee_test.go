package repository_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/karobar-labs/karobar-backend/internal/staff/repository"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
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

func createBusiness(t *testing.T, ctx context.Context) *repository.Business {
	t.Helper()
	fix := suite.Fixtures.Business()
	biz := &repository.Business{
		ID:               fix.ID,
		OwnerID:          fix.OwnerID,
		Name:             fix.Name,
		UTCOffsetMinutes: fix.UTCOffsetMinutes,
	}
	repo := repository.NewBusinessRepository(suite.DB)
	require.NoError(t, repo.Create(ctx, biz))
	return biz
}

func newEmployee(biz *repository.Business, mobile string) *repository.Employee {
	return &repository.Employee{
		OwnerID:      biz.OwnerID,
		BusinessID:   biz.ID,
		Mobile:       mobile,
		Name:         "Suresh Kumar",
		SalaryType:   "monthly",
		SalaryAmount: 18000,
		IsActive:     true,
	}
}

func TestEmployeeRepository_CreateAndGet(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	biz := createBusiness(t, ctx)
	repo := repository.NewEmployeeRepository(suite.DB)

	emp := newEmployee(biz, "9811111111")
	require.NoError(t, repo.Create(ctx, emp))
	assert.NotEmpty(t, emp.ID)

	got, err := repo.GetByID(ctx, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Suresh Kumar", got.Name)
	assert.Equal(t, "monthly", got.SalaryType)
	assert.True(t, got.IsActive)

	active, err := repo.GetActiveByID(ctx, emp.ID)
	require.NoError(t, err)
	require.NotNil(t, active)

	byMobile, err := repo.GetActiveByMobile(ctx, "9811111111")
	require.NoError(t, err)
	require.NotNil(t, byMobile)
	assert.Equal(t, emp.ID, byMobile.ID)
}

func TestEmployeeRepository_ActiveMobileUnique(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	biz := createBusiness(t, ctx)
	repo := repository.NewEmployeeRepository(suite.DB)

	require.NoError(t, repo.Create(ctx, newEmployee(biz, "9822222222")))

	// Same mobile under a different owner still collides while active
	otherBiz := createBusiness(t, ctx)
	err := repo.Create(ctx, newEmployee(otherBiz, "9822222222"))
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "An active employee with this mobile number already exists", appErr.Message)
}

func TestEmployeeRepository_DeactivateFreesMobile(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	biz := createBusiness(t, ctx)
	repo := repository.NewEmployeeRepository(suite.DB)

	emp := newEmployee(biz, "9833333333")
	require.NoError(t, repo.Create(ctx, emp))
	require.NoError(t, repo.Deactivate(ctx, emp.ID, biz.OwnerID))

	active, err := repo.GetActiveByID(ctx, emp.ID)
	require.NoError(t, err)
	assert.Nil(t, active)

	// Once inactive, the mobile can be reused
	require.NoError(t, repo.Create(ctx, newEmployee(biz, "9833333333")))

	// Deactivating again reports the inactive record
	err = repo.Deactivate(ctx, emp.ID, biz.OwnerID)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Employee not found or inactive", appErr.Message)
}

func TestBusinessRepository_OnePerOwner(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	biz := createBusiness(t, ctx)
	repo := repository.NewBusinessRepository(suite.DB)

	dup := &repository.Business{
		OwnerID:          biz.OwnerID,
		Name:             "Second Shop",
		UTCOffsetMinutes: 330,
	}
	err := repo.Create(ctx, dup)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Business already exists for this owner", appErr.Message)
}

func TestBusinessRepository_GetOwned(t *testing.T) {
	testutil.SkipIfNoDocker(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	biz := createBusiness(t, ctx)
	other := createBusiness(t, ctx)
	repo := repository.NewBusinessRepository(suite.DB)

	got, err := repo.GetOwned(ctx, biz.ID, biz.OwnerID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 330, got.UTCOffsetMinutes)

	scoped, err := repo.GetOwned(ctx, biz.ID, other.OwnerID)
	require.NoError(t, err)
	assert.Nil(t, scoped)
}
