package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payment-system/infrastructure/config"
	"payment-system/infrastructure/di"
	"payment-system/interfaces/http/rest/middleware"
	"payment-system/pkg/common"
	apperrors "payment-system/pkg/errors"
	"payment-system/pkg/observability"
	"payment-system/pkg/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// tokenRequest is the credential exchange payload
type tokenRequest struct {
	UserID string `json:"userId" validate:"required,min=1,max=64"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int64  `json:"expiresIn"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ServiceName = "payment-token"
	if cfg.ServerAddress == ":8080" {
		cfg.ServerAddress = ":8081"
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	logger := container.Logger
	errorHandler := apperrors.NewErrorHandler(logger, !cfg.IsProduction())

	router := mux.NewRouter()

	// The token service sits downstream of the gateway and never fabricates
	// correlation ids.
	router.Use(middleware.RequestContext(logger, middleware.ContextOptions{
		GenerateCorrelationID: false,
	}))
	router.Use(middleware.Recovery(logger, container.Metrics, errorHandler))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"payment-token"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		reqCtx := r.Context()

		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errorHandler.Handle(w, r, apperrors.NewValidationError("Invalid request body: "+err.Error()))
			return
		}
		if err := utils.ValidateStruct(req); err != nil {
			errorHandler.Handle(w, r, apperrors.NewValidationError(err.Error()))
			return
		}

		token, err := container.JWTManager.Issue(req.UserID)
		if err != nil {
			errorHandler.Handle(w, r, apperrors.NewInternalError("failed to issue token", err).WithCode("TOKEN_ISSUE"))
			return
		}

		container.Metrics.Count(reqCtx, "TokenIssued")
		logger.Info(reqCtx, "Token issued", observability.Fields{
			"userId": req.UserID,
		})

		common.RespondJSON(w, r, http.StatusOK, tokenResponse{
			Token:     token,
			TokenType: "Bearer",
			ExpiresIn: int64((15 * time.Minute).Seconds()),
		})
	}).Methods(http.MethodPost)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		container.ZapLogger.Info("Starting token service",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.ZapLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	container.ZapLogger.Info("Shutting down token service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.ZapLogger.Error("Server shutdown error", zap.Error(err))
	}
}
