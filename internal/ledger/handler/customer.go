package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/karobar-labs/karobar-backend/internal/auth"
	"github.com/karobar-labs/karobar-backend/internal/ledger/service"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
	"github.com/karobar-labs/karobar-backend/pkg/httputil"
	"github.com/karobar-labs/karobar-backend/pkg/logger"
)

// CustomerHandler handles customer management endpoints
type CustomerHandler struct {
	service *service.CustomerService
	logger  *logger.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(svc *service.CustomerService, log *logger.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: svc,
		logger:  log,
	}
}

// Create handles customer creation
// POST /customers
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateCustomerInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	cust, err := h.service.Create(r.Context(), auth.OwnerID(r.Context()), &input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, cust)
}

// List returns the owner's active customers
// GET /customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.List(r.Context(), auth.OwnerID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, customers)
}

// Get returns one customer with current balance
// GET /customers/{customerID}
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	cust, err := h.service.Get(r.Context(), customerID, auth.OwnerID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, cust)
}

// Update handles customer profile updates
// PUT /customers/{customerID}
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	var input service.UpdateCustomerInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	cust, err := h.service.Update(r.Context(), customerID, auth.OwnerID(r.Context()), &input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, cust)
}

// Deactivate soft-deletes a customer
// DELETE /customers/{customerID}
func (h *CustomerHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	if err := h.service.Deactivate(r.Context(), customerID, auth.OwnerID(r.Context())); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"message": "Customer deactivated"})
}

// Self returns the calling customer's own profile and balance
// GET /customers/me
func (h *CustomerHandler) Self(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	cust, err := h.service.Self(r.Context(), claims.OwnerID, claims.CustomerMobile)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, cust)
}
