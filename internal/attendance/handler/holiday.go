package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/karobar-labs/karobar-backend/internal/attendance/service"
	"github.com/karobar-labs/karobar-backend/internal/auth"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
	"github.com/karobar-labs/karobar-backend/pkg/httputil"
	"github.com/karobar-labs/karobar-backend/pkg/logger"
)

// HolidayHandler handles holiday endpoints
type HolidayHandler struct {
	service *service.HolidayService
	logger  *logger.Logger
}

// NewHolidayHandler creates a new holiday handler
func NewHolidayHandler(svc *service.HolidayService, log *logger.Logger) *HolidayHandler {
	return &HolidayHandler{
		service: svc,
		logger:  log,
	}
}

// Mark declares a holiday for a business
// POST /businesses/{businessID}/holidays
func (h *HolidayHandler) Mark(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")

	var input service.MarkHolidayInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	holiday, err := h.service.Mark(r.Context(), businessID, auth.OwnerID(r.Context()), &input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, holiday)
}

// Unmark removes a holiday
// DELETE /businesses/{businessID}/holidays/{date}
func (h *HolidayHandler) Unmark(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	date := chi.URLParam(r, "date")

	if err := h.service.Unmark(r.Context(), businessID, auth.OwnerID(r.Context()), date); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"message": "Holiday removed"})
}

// List returns a business's holidays
// GET /businesses/{businessID}/holidays
func (h *HolidayHandler) List(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	year, month := yearMonthQuery(r)

	holidays, err := h.service.List(r.Context(), businessID, auth.OwnerID(r.Context()), year, month)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, holidays)
}

// ListSelf returns the holidays of the authenticated employee's business
// GET /attendance/holidays
func (h *HolidayHandler) ListSelf(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil || claims.BusinessID == "" {
		httputil.Error(w, errors.Forbidden("business missing from token"))
		return
	}
	year, month := yearMonthQuery(r)

	holidays, err := h.service.ListForBusiness(r.Context(), claims.BusinessID, year, month)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, holidays)
}

func yearMonthQuery(r *http.Request) (int, int) {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	if year < 0 {
		year = 0
	}
	month, _ := strconv.Atoi(r.URL.Query().Get("month"))
	if month < 1 || month > 12 {
		month = 0
	}
	return year, month
}
