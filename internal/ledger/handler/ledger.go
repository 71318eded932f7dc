package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/karobar-labs/karobar-backend/internal/auth"
	"github.com/karobar-labs/karobar-backend/internal/ledger/service"
	"github.com/karobar-labs/karobar-backend/pkg/httputil"
	"github.com/karobar-labs/karobar-backend/pkg/logger"
)

// LedgerHandler handles sale and payment endpoints
type LedgerHandler struct {
	service *service.LedgerService
	logger  *logger.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(svc *service.LedgerService, log *logger.Logger) *LedgerHandler {
	return &LedgerHandler{
		service: svc,
		logger:  log,
	}
}

// RecordSale records a credit sale
// POST /sales
func (h *LedgerHandler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var input service.RecordSaleInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.RecordSale(r.Context(), auth.OwnerID(r.Context()), &input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, result)
}

// UpdateSale overwrites a sale
// PUT /sales/{saleID}
func (h *LedgerHandler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	saleID := chi.URLParam(r, "saleID")

	var input service.RecordSaleInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.UpdateSale(r.Context(), saleID, auth.OwnerID(r.Context()), &input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// DeleteSale removes a sale
// DELETE /sales/{saleID}
func (h *LedgerHandler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	saleID := chi.URLParam(r, "saleID")

	if err := h.service.DeleteSale(r.Context(), saleID, auth.OwnerID(r.Context())); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"message": "Sale deleted"})
}

// RecordPayment records a customer payment
// POST /payments
func (h *LedgerHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var input service.RecordPaymentInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.RecordPayment(r.Context(), auth.OwnerID(r.Context()), &input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, result)
}

// UpdatePayment overwrites a payment
// PUT /payments/{paymentID}
func (h *LedgerHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")

	var input service.RecordPaymentInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.UpdatePayment(r.Context(), paymentID, auth.OwnerID(r.Context()), &input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// DeletePayment removes a payment
// DELETE /payments/{paymentID}
func (h *LedgerHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")

	if err := h.service.DeletePayment(r.Context(), paymentID, auth.OwnerID(r.Context())); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"message": "Payment deleted"})
}

// SaleHistory returns a customer's recent sales
// GET /customers/{customerID}/sales
func (h *LedgerHandler) SaleHistory(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	sales, err := h.service.SaleHistory(r.Context(), customerID, auth.OwnerID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sales)
}

// PaymentHistory returns a customer's recent payments
// GET /customers/{customerID}/payments
func (h *LedgerHandler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	payments, err := h.service.PaymentHistory(r.Context(), customerID, auth.OwnerID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, payments)
}

// ListSales returns the owner's recent sales across all customers
// GET /sales
func (h *LedgerHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.OwnerSaleHistory(r.Context(), auth.OwnerID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sales)
}

// ListPayments returns the owner's recent payments across all customers
// GET /payments
func (h *LedgerHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.OwnerPaymentHistory(r.Context(), auth.OwnerID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, payments)
}
