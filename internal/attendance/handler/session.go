package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/karobar-labs/karobar-backend/internal/attendance/service"
	"github.com/karobar-labs/karobar-backend/internal/auth"
	"github.com/karobar-labs/karobar-backend/pkg/httputil"
	"github.com/karobar-labs/karobar-backend/pkg/logger"
)

// SessionHandler handles QR attendance session endpoints
type SessionHandler struct {
	service *service.SessionService
	logger  *logger.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(svc *service.SessionService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		service: svc,
		logger:  log,
	}
}

// Issue returns the business's QR session for the current day
// POST /businesses/{businessID}/attendance/session
func (h *SessionHandler) Issue(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")

	session, err := h.service.Issue(r.Context(), businessID, auth.OwnerID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, session)
}
