package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"campusticketing/internal/delivery/http/helpers"
	"campusticketing/internal/delivery/http/middleware"
	"campusticketing/internal/domain"
)

// ScanRequest is the request body for POST /api/attendance/scan.
type ScanRequest struct {
	TicketNumber string `json:"ticket_number"`
}

// Validate implements Validator.
func (s ScanRequest) Validate() []string {
	if s.TicketNumber == "" {
		return []string{"ticket_number is required"}
	}
	return nil
}

// ScanSuccessResponse is the success response envelope for POST /api/attendance/scan (200).
type ScanSuccessResponse struct {
	Success bool                  `json:"success"`
	Data    *domain.CheckinResult `json:"data"`
	Error   *helpers.APIError     `json:"error"`
}

type AttendanceController struct {
	Logger  *slog.Logger
	Service domain.RegistrarService
}

func NewAttendanceController(logger *slog.Logger, svc domain.RegistrarService) *AttendanceController {
	return &AttendanceController{
		Logger:  logger,
		Service: svc,
	}
}

// Scan godoc
// @Summary Record a ticket scan
// @Description Marks attendance for the ticket. The first scan classifies as success; every later scan classifies as duplicate with the original attendee details. Scanning is idempotent.
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param scan body ScanRequest true "Ticket number"
// @Success 200 {object} controllers.ScanSuccessResponse "data contains the classification and attendee details"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (unknown ticket)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/attendance/scan [post]
func (c *AttendanceController) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if _, ok := middleware.SessionFromContext(r.Context()); !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	result, err := c.Service.MarkAttendance(r.Context(), req.TicketNumber)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTicketNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "ticket not found")
		case errors.Is(err, domain.ErrValidation):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}
