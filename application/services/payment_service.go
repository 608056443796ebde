package services

import (
	"context"
	"time"

	"payment-system/application/ports"
	"payment-system/domain/payment"
	apperrors "payment-system/pkg/errors"
	"payment-system/pkg/observability"
	"payment-system/pkg/utils"
)

// ProcessPaymentRequest is the inbound payment payload
type ProcessPaymentRequest struct {
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Currency  string `json:"currency" validate:"required,len=3"`
	Method    string `json:"method" validate:"required,oneof=card bank_transfer wallet"`
	Reference string `json:"reference,omitempty" validate:"omitempty,max=64"`
}

// PaymentService processes payments and emits the observability signals for
// each outcome: a PaymentProcessed counter and processing timer on success,
// a PaymentError counter with a structured ErrorType dimension on failure.
type PaymentService struct {
	repo      ports.PaymentRepository
	publisher ports.EventPublisher
	logger    *observability.ServiceLogger
	metrics   *observability.Metrics
	tracer    *observability.Tracer
}

// NewPaymentService creates a payment service
func NewPaymentService(
	repo ports.PaymentRepository,
	publisher ports.EventPublisher,
	logger *observability.ServiceLogger,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
) *PaymentService {
	return &PaymentService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
	}
}

// ProcessPayment validates and persists a payment, publishes the state
// change event and records the outcome metrics.
func (s *PaymentService) ProcessPayment(ctx context.Context, userID string, req ProcessPaymentRequest) (*payment.Payment, error) {
	start := time.Now()

	if err := utils.ValidateStruct(req); err != nil {
		appErr := apperrors.NewValidationError(err.Error()).WithCode("INVALID_PAYMENT")
		s.recordFailure(ctx, appErr)
		return nil, appErr
	}

	p := payment.New(userID, req.Amount, req.Currency, req.Method, req.Reference)
	if id, ok := observability.CorrelationID(ctx); ok {
		p.CorrelationID = id
	}
	p.Complete()

	err := s.tracer.Trace(ctx, "payment.save", func(ctx context.Context) error {
		return s.repo.Save(ctx, p)
	})
	if err != nil {
		appErr := apperrors.NewInternalError("failed to persist payment", err).WithCode("PERSISTENCE")
		s.recordFailure(ctx, appErr)
		return nil, appErr
	}

	// Event delivery is best-effort; a broker outage must not fail the payment.
	if pubErr := s.publisher.Publish(ctx, payment.Event{
		Type:          "PaymentProcessed",
		PaymentID:     p.ID,
		UserID:        p.UserID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        p.Status,
		CorrelationID: p.CorrelationID,
		Timestamp:     time.Now().UTC(),
	}); pubErr != nil {
		s.logger.Warn(ctx, "Payment event not published", observability.Fields{
			"paymentId": p.ID,
			"reason":    pubErr.Error(),
		})
	}

	duration := time.Since(start)
	s.metrics.Count(ctx, "PaymentProcessed")
	s.metrics.Duration(ctx, "PaymentProcessingTime", duration)

	s.logger.Info(ctx, "Payment processed", observability.Fields{
		"paymentId": p.ID,
		"amount":    p.Amount,
		"currency":  p.Currency,
		"method":    p.Method,
	})
	s.logger.Performance(ctx, "ProcessPayment", duration, observability.Fields{
		"paymentId": p.ID,
	})

	return p, nil
}

// GetPayment fetches one payment owned by the given user
func (s *PaymentService) GetPayment(ctx context.Context, userID, paymentID string) (*payment.Payment, error) {
	p, err := s.repo.FindByID(ctx, userID, paymentID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load payment", err).WithCode("PERSISTENCE")
	}
	if p == nil {
		return nil, apperrors.NewNotFoundError("payment")
	}
	return p, nil
}

// ListPayments returns the user's most recent payments
func (s *PaymentService) ListPayments(ctx context.Context, userID string, limit int) ([]*payment.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	items, err := s.repo.FindByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list payments", err).WithCode("PERSISTENCE")
	}
	return items, nil
}

// recordFailure emits the error counter with its structured error code as
// the ErrorType dimension. Codes come from AppError, never from parsing
// message text.
func (s *PaymentService) recordFailure(ctx context.Context, appErr *apperrors.AppError) {
	s.metrics.Count(ctx, "PaymentError", observability.Dimension{
		Name:  "ErrorType",
		Value: appErr.ErrorCode(),
	})
	s.logger.Error(ctx, "Payment processing failed", appErr, nil)
}
