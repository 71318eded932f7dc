package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/karobar-labs/karobar-backend/internal/auth"
	"github.com/karobar-labs/karobar-backend/internal/staff/service"
	"github.com/karobar-labs/karobar-backend/pkg/httputil"
	"github.com/karobar-labs/karobar-backend/pkg/logger"
)

// BusinessHandler handles business profile endpoints
type BusinessHandler struct {
	service *service.BusinessService
	logger  *logger.Logger
}

// NewBusinessHandler creates a new business handler
func NewBusinessHandler(svc *service.BusinessService, log *logger.Logger) *BusinessHandler {
	return &BusinessHandler{
		service: svc,
		logger:  log,
	}
}

// Create handles business creation
// POST /businesses
func (h *BusinessHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateBusinessInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	biz, err := h.service.Create(r.Context(), auth.OwnerID(r.Context()), &input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, biz)
}

// GetMine returns the caller's business
// GET /businesses/me
func (h *BusinessHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	biz, err := h.service.GetByOwner(r.Context(), auth.OwnerID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, biz)
}

// Update handles business updates
// PUT /businesses/{businessID}
func (h *BusinessHandler) Update(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")

	var input service.UpdateBusinessInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	biz, err := h.service.Update(r.Context(), auth.OwnerID(r.Context()), businessID, &input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, biz)
}
