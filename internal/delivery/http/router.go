package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"campusticketing/internal/delivery/http/controllers"
	"campusticketing/internal/delivery/http/middleware"
	"campusticketing/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(
	eventController *controllers.EventController,
	paymentController *controllers.PaymentController,
	registrationController *controllers.RegistrationController,
	attendanceController *controllers.AttendanceController,
	tokens domain.TokenParser,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireSession(tokens, logger)

	// Events
	mux.HandleFunc("GET /api/events/{eventID}", auth(eventController.GetEvent))
	mux.HandleFunc("POST /api/events/{eventID}/registrations", auth(registrationController.Register))

	// Payments
	mux.HandleFunc("POST /api/payments/orders", auth(paymentController.CreateOrder))
	mux.HandleFunc("POST /api/payments/verify", auth(paymentController.VerifyPayment))

	// Attendance
	mux.HandleFunc("POST /api/attendance/scan", auth(attendanceController.Scan))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
