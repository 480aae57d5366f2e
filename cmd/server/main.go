// @title Campus Ticketing API
// @version 1.0
// @description Registration, payment, and attendance API for college events.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"campusticketing/config"
	_ "campusticketing/docs"
	"campusticketing/internal/adapters/auth"
	"campusticketing/internal/adapters/catalog"
	"campusticketing/internal/adapters/email"
	delivery "campusticketing/internal/delivery/http"
	"campusticketing/internal/delivery/http/controllers"
	"campusticketing/internal/delivery/http/middleware"
	"campusticketing/internal/repository/postgres"
	"campusticketing/internal/services"
)

func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to reach database", "err", err)
		os.Exit(1)
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Mailer.Provider,
		FromAddress: cfg.Mailer.FromAddress,
		FromName:    cfg.Mailer.FromName,
		SES: email.SESConfig{
			Region:          cfg.Mailer.SESRegion,
			AccessKeyID:     cfg.Mailer.SESAccessKeyID,
			SecretAccessKey: cfg.Mailer.SESSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}

	eventCatalog := catalog.NewHTTPLoader(cfg.CatalogBaseURL, nil)
	registrations := postgres.NewRegistrationRepository(db)
	emailSvc := services.NewEmailService(mailer)
	registrar := services.NewRegistrarService(
		eventCatalog, registrations, emailSvc, logger,
		cfg.GatewayKeyID, cfg.GatewaySecret, cfg.Currency,
	)
	tokens := auth.NewJWTParser(cfg.SessionSecret)

	router := delivery.NewRouter(
		controllers.NewEventController(logger, registrar),
		controllers.NewPaymentController(logger, registrar),
		controllers.NewRegistrationController(logger, registrar),
		controllers.NewAttendanceController(logger, registrar),
		tokens,
		logger,
	)

	var handler http.Handler = router
	if len(cfg.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.AllowedOrigins, handler)
	}
	handler = middleware.Logging(logger, handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
