package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/karobar-labs/karobar-backend/internal/attendance/service"
	"github.com/karobar-labs/karobar-backend/internal/auth"
	"github.com/karobar-labs/karobar-backend/pkg/httputil"
	"github.com/karobar-labs/karobar-backend/pkg/logger"
)

// AttendanceHandler handles attendance endpoints
type AttendanceHandler struct {
	service *service.AttendanceService
	logger  *logger.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(svc *service.AttendanceService, log *logger.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: svc,
		logger:  log,
	}
}

// CheckIn records a QR check-in from an employee's scan
// POST /attendance/check-in
func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var input service.QRAttendanceInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	rec, err := h.service.CheckInQR(r.Context(), &input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, rec)
}

// CheckOut records a QR check-out
// POST /attendance/check-out
func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	var input service.QRAttendanceInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	rec, err := h.service.CheckOutQR(r.Context(), &input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rec)
}

// CheckInDirect records an owner-initiated check-in without a QR session
// POST /employees/{employeeID}/attendance/check-in
func (h *AttendanceHandler) CheckInDirect(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	rec, err := h.service.CheckInDirect(r.Context(), employeeID, auth.OwnerID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, rec)
}

// CheckOutDirect records an owner-initiated check-out
// POST /employees/{employeeID}/attendance/check-out
func (h *AttendanceHandler) CheckOutDirect(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	rec, err := h.service.CheckOutDirect(r.Context(), employeeID, auth.OwnerID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rec)
}

// MarkManual sets today's status for an employee
// POST /attendance/manual
func (h *AttendanceHandler) MarkManual(w http.ResponseWriter, r *http.Request) {
	var input service.ManualMarkInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	rec, err := h.service.MarkManual(r.Context(), auth.OwnerID(r.Context()), &input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rec)
}

// MarkForDate sets attendance for a specific (usually past) date
// POST /attendance/date
func (h *AttendanceHandler) MarkForDate(w http.ResponseWriter, r *http.Request) {
	var input service.BackdatedMarkInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&input); err != nil {
		httputil.Error(w, err)
		return
	}

	rec, err := h.service.MarkForDate(r.Context(), auth.OwnerID(r.Context()), &input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rec)
}

// History returns an employee's recent records, owner-scoped
// GET /employees/{employeeID}/attendance
func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	records, err := h.service.History(r.Context(), employeeID, auth.OwnerID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, records)
}

// HistorySelf returns the calling employee's own records
// GET /attendance/me
func (h *AttendanceHandler) HistorySelf(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.HistorySelf(r.Context(), httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, records)
}

// Summary returns a business's attendance for one date
// GET /businesses/{businessID}/attendance/summary?date=YYYY-MM-DD
func (h *AttendanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	date := r.URL.Query().Get("date")

	summary, err := h.service.Summary(r.Context(), businessID, auth.OwnerID(r.Context()), date)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}
