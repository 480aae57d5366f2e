package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"campusticketing/internal/delivery/http/helpers"
	"campusticketing/internal/delivery/http/middleware"
	"campusticketing/internal/domain"
)

// RegisterBody is the request body for POST /api/events/{eventID}/registrations.
// payment_id and order_id are set only on the verification fallback path.
type RegisterBody struct {
	AttendeeID string                   `json:"attendee_id"`
	Draft      domain.RegistrationDraft `json:"draft"`
	PaymentID  string                   `json:"payment_id"`
	OrderID    string                   `json:"order_id"`
	Amount     int64                    `json:"amount"`
}

// RegisterSuccessResponse is the success response envelope for POST /api/events/{eventID}/registrations (200/201).
type RegisterSuccessResponse struct {
	Success bool                 `json:"success"`
	Data    *domain.Registration `json:"data"`
	Error   *helpers.APIError    `json:"error"`
}

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrarService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrarService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// Register godoc
// @Summary Register for an event
// @Description Creates a registration from the draft: the free path, and the fallback path when the body carries a payment reference. Registering twice returns the existing registration with 200 instead of creating a duplicate.
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param registration body RegisterBody true "Registration draft, optionally with a payment reference"
// @Success 200 {object} controllers.RegisterSuccessResponse "data contains the existing registration"
// @Success 201 {object} controllers.RegisterSuccessResponse "data contains the created registration"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (validation)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (event full)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventID}/registrations [post]
func (c *RegistrationController) Register(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req RegisterBody
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	reg, created, err := c.Service.Register(r.Context(), session, eventID, &domain.RegistrationRequest{
		Draft:     req.Draft,
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		Amount:    req.Amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		case errors.Is(err, domain.ErrEventNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrEventFull):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "event is at capacity")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	helpers.WriteJSONSuccess(w, status, reg)
}
