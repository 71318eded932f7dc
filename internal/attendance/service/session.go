package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/karobar-labs/karobar-backend/internal/attendance/repository"
	staffrepo "github.com/karobar-labs/karobar-backend/internal/staff/repository"
	"github.com/karobar-labs/karobar-backend/pkg/civiltime"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
	"github.com/karobar-labs/karobar-backend/pkg/logger"
)

// qrPayload is the document encoded into the QR code shown at the business
type qrPayload struct {
	SessionID  string    `json:"sessionId"`
	BusinessID string    `json:"businessId"`
	OwnerID    string    `json:"ownerId"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// SessionService issues QR attendance sessions
type SessionService struct {
	sessions   *repository.SessionRepository
	businesses *staffrepo.BusinessRepository
	ttl        time.Duration
	clock      civiltime.Clock
	logger     *logger.Logger
}

// NewSessionService creates a new session service
func NewSessionService(sessions *repository.SessionRepository, businesses *staffrepo.BusinessRepository, ttl time.Duration, clock civiltime.Clock, log *logger.Logger) *SessionService {
	if clock == nil {
		clock = civiltime.SystemClock{}
	}
	return &SessionService{
		sessions:   sessions,
		businesses: businesses,
		ttl:        ttl,
		clock:      clock,
		logger:     log.WithComponent("session_service"),
	}
}

// Issue returns the business's active session for the current civil day,
// creating one when none exists. Issuance is idempotent within a day: repeat
// calls before expiry return the same session.
func (s *SessionService) Issue(ctx context.Context, businessID, ownerID string) (*repository.Session, error) {
	business, err := s.businesses.GetOwned(ctx, businessID, ownerID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, errors.NotFound("business")
	}

	now := s.clock.Now()
	dayStart := civiltime.DayStart(now, business.UTCOffsetMinutes)

	existing, err := s.sessions.GetActiveForDay(ctx, businessID, ownerID, dayStart, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, errors.Wrap(err, "INTERNAL_ERROR", "failed to generate session id", http.StatusInternalServerError)
	}

	session := &repository.Session{
		SessionID:  sessionID,
		BusinessID: businessID,
		OwnerID:    ownerID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	payload, err := json.Marshal(qrPayload{
		SessionID:  session.SessionID,
		BusinessID: session.BusinessID,
		OwnerID:    session.OwnerID,
		ExpiresAt:  session.ExpiresAt,
	})
	if err != nil {
		return nil, errors.Wrap(err, "INTERNAL_ERROR", "failed to encode qr payload", http.StatusInternalServerError)
	}
	session.QRPayload = string(payload)

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("business_id", businessID).
		Str("session_id", session.SessionID).
		Time("expires_at", session.ExpiresAt).
		Msg("Attendance session issued")

	return session, nil
}

// generateSessionID returns a 32-character hex token from 16 random bytes
func generateSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
