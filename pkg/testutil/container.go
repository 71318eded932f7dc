// Package testutil provides testing utilities for the backend: a
// testcontainers PostgreSQL harness, sqlmock wrappers, mock factories,
// and common test fixtures.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "karobar_test",
		Username: "test",
		Password: "test",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer creates a new PostgreSQL test container.
//
// Usage:
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer container.Terminate(ctx)
//
//	    code := m.Run()
//	    os.Exit(code)
//	}
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	if cfg.Image == "" {
		cfg.Image = "postgres:15-alpine"
	}
	if cfg.Database == "" {
		cfg.Database = "karobar_test"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}

// CreateSchema creates all application tables in the test database.
// The constraint names matter: the error mapper translates violations of
// these constraints into user-facing conflict messages.
func (c *PostgresContainer) CreateSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS businesses (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL,
			name VARCHAR(255) NOT NULL,
			business_type VARCHAR(100),
			address TEXT,
			utc_offset_minutes INT NOT NULL DEFAULT 330,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT uq_businesses_owner UNIQUE (owner_id)
		);

		CREATE TABLE IF NOT EXISTS employees (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL,
			business_id UUID NOT NULL REFERENCES businesses(id),
			name VARCHAR(255) NOT NULL,
			mobile VARCHAR(20) NOT NULL,
			salary_type VARCHAR(20) NOT NULL,
			salary_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			employee_type VARCHAR(50),
			joining_date DATE,
			contract_end_date DATE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS uq_employees_active_mobile
			ON employees (mobile) WHERE is_active;

		CREATE TABLE IF NOT EXISTS attendance_sessions (
			session_id VARCHAR(64) PRIMARY KEY,
			business_id UUID NOT NULL REFERENCES businesses(id),
			owner_id UUID NOT NULL,
			qr_payload TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS attendance (
			id UUID PRIMARY KEY,
			employee_id UUID NOT NULL REFERENCES employees(id),
			business_id UUID NOT NULL REFERENCES businesses(id),
			owner_id UUID NOT NULL,
			session_id VARCHAR(64) REFERENCES attendance_sessions(session_id),
			attendance_date DATE NOT NULL,
			check_in_time TIME,
			check_out_time TIME,
			status VARCHAR(20) NOT NULL,
			absent_reason TEXT,
			qr_scanned_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT uq_attendance_employee_date UNIQUE (employee_id, attendance_date),
			CONSTRAINT attendance_status_valid CHECK
				(status IN ('present', 'absent', 'late', 'half_day', 'paid_leave', 'holiday'))
		);

		CREATE TABLE IF NOT EXISTS holidays (
			id UUID PRIMARY KEY,
			business_id UUID NOT NULL REFERENCES businesses(id),
			holiday_date DATE NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT uq_holidays_business_date UNIQUE (business_id, holiday_date)
		);

		CREATE TABLE IF NOT EXISTS customers (
			id UUID PRIMARY KEY,
			business_id UUID NOT NULL REFERENCES businesses(id),
			owner_id UUID NOT NULL,
			name VARCHAR(255) NOT NULL,
			mobile VARCHAR(20),
			email VARCHAR(255),
			address TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			balance_due NUMERIC(12,2) NOT NULL DEFAULT 0,
			total_spent NUMERIC(12,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS customer_sales (
			id UUID PRIMARY KEY,
			customer_id UUID NOT NULL REFERENCES customers(id),
			owner_id UUID NOT NULL,
			total_amount NUMERIC(12,2) NOT NULL,
			items TEXT,
			sale_date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT sales_amount_positive CHECK (total_amount > 0)
		);

		CREATE TABLE IF NOT EXISTS customer_payments (
			id UUID PRIMARY KEY,
			customer_id UUID NOT NULL REFERENCES customers(id),
			owner_id UUID NOT NULL,
			amount NUMERIC(12,2) NOT NULL,
			payment_method VARCHAR(50),
			notes TEXT,
			payment_date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT payments_amount_positive CHECK (amount > 0)
		);
	`

	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// TruncateAll wipes all application tables between tests
func (c *PostgresContainer) TruncateAll(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		TRUNCATE customer_payments, customer_sales, customers,
			attendance, holidays, attendance_sessions, employees, businesses
		CASCADE
	`)
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}
