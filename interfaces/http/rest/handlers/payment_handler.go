package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"payment-system/application/services"
	"payment-system/pkg/common"
	apperrors "payment-system/pkg/errors"
	"payment-system/pkg/observability"

	"github.com/go-chi/chi/v5"
)

// PaymentHandler handles payment HTTP requests
type PaymentHandler struct {
	service      *services.PaymentService
	logger       *observability.ServiceLogger
	errorHandler *apperrors.ErrorHandler
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(
	service *services.PaymentService,
	logger *observability.ServiceLogger,
	errorHandler *apperrors.ErrorHandler,
) *PaymentHandler {
	return &PaymentHandler{
		service:      service,
		logger:       logger,
		errorHandler: errorHandler,
	}
}

// ProcessPayment handles POST /payments
func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := observability.UserID(ctx)
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.NewUnauthorizedError("Unauthenticated"))
		return
	}

	var req services.ProcessPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewValidationError("Invalid request body: "+err.Error()))
		return
	}

	p, err := h.service.ProcessPayment(ctx, userID, req)
	if err != nil {
		h.errorHandler.WriteResponse(w, r, err)
		return
	}

	common.RespondJSON(w, r, http.StatusCreated, p)
}

// GetPayment handles GET /payments/{paymentID}
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := observability.UserID(ctx)
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.NewUnauthorizedError("Unauthenticated"))
		return
	}

	p, err := h.service.GetPayment(ctx, userID, chi.URLParam(r, "paymentID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, r, http.StatusOK, p)
}

// ListPayments handles GET /payments
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := observability.UserID(ctx)
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.NewUnauthorizedError("Unauthenticated"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	items, err := h.service.ListPayments(ctx, userID, limit)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, r, http.StatusOK, items)
}
