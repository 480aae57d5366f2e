package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"campusticketing/internal/delivery/http/helpers"
	"campusticketing/internal/delivery/http/middleware"
	"campusticketing/internal/domain"
)

// CreateOrderRequest is the request body for POST /api/payments/orders.
// attendee_id is accepted for compatibility but the authenticated session is
// authoritative; amount 0 means "use the current price".
type CreateOrderRequest struct {
	EventID    string `json:"event_id"`
	AttendeeID string `json:"attendee_id"`
	Amount     int64  `json:"amount"`
}

// Validate implements Validator.
func (c CreateOrderRequest) Validate() []string {
	var errs []string
	if c.EventID == "" {
		errs = append(errs, "event_id is required")
	}
	if c.Amount < 0 {
		errs = append(errs, "amount must not be negative")
	}
	return errs
}

// CreateOrderSuccessResponse is the success response envelope for POST /api/payments/orders (201).
type CreateOrderSuccessResponse struct {
	Success bool                 `json:"success"`
	Data    *domain.PaymentOrder `json:"data"`
	Error   *helpers.APIError    `json:"error"`
}

// VerifyPaymentBody is the request body for POST /api/payments/verify.
type VerifyPaymentBody struct {
	EventID    string                   `json:"event_id"`
	AttendeeID string                   `json:"attendee_id"`
	PaymentID  string                   `json:"payment_id"`
	OrderID    string                   `json:"order_id"`
	Signature  string                   `json:"signature"`
	Amount     int64                    `json:"amount"`
	Draft      domain.RegistrationDraft `json:"draft"`
}

// Validate implements Validator. Signature presence is checked here; its
// correctness is the service's concern.
func (v VerifyPaymentBody) Validate() []string {
	var errs []string
	if v.EventID == "" {
		errs = append(errs, "event_id is required")
	}
	if v.PaymentID == "" {
		errs = append(errs, "payment_id is required")
	}
	if v.OrderID == "" {
		errs = append(errs, "order_id is required")
	}
	if v.Signature == "" {
		errs = append(errs, "signature is required")
	}
	return errs
}

// VerifyPaymentSuccessResponse is the success response envelope for POST /api/payments/verify (200).
type VerifyPaymentSuccessResponse struct {
	Success bool                 `json:"success"`
	Data    *domain.Registration `json:"data"`
	Error   *helpers.APIError    `json:"error"`
}

type PaymentController struct {
	Logger  *slog.Logger
	Service domain.RegistrarService
}

func NewPaymentController(logger *slog.Logger, svc domain.RegistrarService) *PaymentController {
	return &PaymentController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateOrder godoc
// @Summary Create a payment order
// @Description Mints a single-use gateway order for the event's current price. The amount is recomputed server-side; a non-zero amount that disagrees with the current price is rejected.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param order body CreateOrderRequest true "Order request"
// @Success 201 {object} controllers.CreateOrderSuccessResponse "data contains the order"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (event full)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/payments/orders [post]
func (c *PaymentController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	order, err := c.Service.CreateOrder(r.Context(), session, req.EventID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEventNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrEventFull):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "event is at capacity")
		case errors.Is(err, domain.ErrOrderCreation):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, order)
}

// VerifyPayment godoc
// @Summary Verify a payment and register
// @Description Checks the gateway signature for (order, payment) and creates the registration the payment pays for. Verification and registration are one operation; an already registered attendee gets the existing registration back.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payment body VerifyPaymentBody true "Gateway callback payload with the registration draft"
// @Success 200 {object} controllers.VerifyPaymentSuccessResponse "data contains the registration"
// @Failure 400 {object} helpers.APIResponse "error.code: payment_rejected (signature mismatch)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/payments/verify [post]
func (c *PaymentController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentBody
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	reg, err := c.Service.VerifyAndRegister(r.Context(), session, &domain.VerifyPaymentRequest{
		EventID: req.EventID,
		Ref: domain.PaymentReference{
			PaymentID: req.PaymentID,
			OrderID:   req.OrderID,
			Signature: req.Signature,
		},
		Draft:  req.Draft,
		Amount: req.Amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSignatureRejected):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodePaymentRejected, "payment verification failed")
		case errors.Is(err, domain.ErrEventNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrValidation):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}
