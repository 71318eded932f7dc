package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/karobar-labs/karobar-backend/pkg/database"
)

// Session represents a QR attendance session. Sessions are append-only:
// there is no update or revocation path, expiry is checked at lookup time.
type Session struct {
	SessionID  string    `db:"session_id" json:"session_id"`
	BusinessID string    `db:"business_id" json:"business_id"`
	OwnerID    string    `db:"owner_id" json:"owner_id"`
	QRPayload  string    `db:"qr_payload" json:"qr_payload"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	ExpiresAt  time.Time `db:"expires_at" json:"expires_at"`
}

// SessionRepository handles attendance session persistence
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session
func (r *SessionRepository) Create(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO attendance_sessions (session_id, business_id, owner_id, qr_payload, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.SessionID, session.BusinessID, session.OwnerID,
		session.QRPayload, session.CreatedAt, session.ExpiresAt,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetActiveForDay finds a non-expired session for the business+owner pair
// created at or after dayStart. Returns (nil, nil) when none exists.
func (r *SessionRepository) GetActiveForDay(ctx context.Context, businessID, ownerID string, dayStart, now time.Time) (*Session, error) {
	var session Session

	query := `
		SELECT session_id, business_id, owner_id, qr_payload, created_at, expires_at
		FROM attendance_sessions
		WHERE business_id = $1 AND owner_id = $2 AND created_at >= $3 AND expires_at > $4
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &session, query, businessID, ownerID, dayStart, now)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &session, nil
}

// GetValid finds a session by ID whose expiry is still in the future.
// Returns (nil, nil) when the session is missing or expired.
func (r *SessionRepository) GetValid(ctx context.Context, sessionID string, now time.Time) (*Session, error) {
	var session Session

	query := `
		SELECT session_id, business_id, owner_id, qr_payload, created_at, expires_at
		FROM attendance_sessions
		WHERE session_id = $1 AND expires_at > $2
	`
	err := r.db.GetContext(ctx, &session, query, sessionID, now)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &session, nil
}
