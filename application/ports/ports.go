package ports

import (
	"context"

	"payment-system/domain/payment"
)

// PaymentRepository persists payments
type PaymentRepository interface {
	Save(ctx context.Context, p *payment.Payment) error
	FindByID(ctx context.Context, userID, paymentID string) (*payment.Payment, error)
	FindByUser(ctx context.Context, userID string, limit int) ([]*payment.Payment, error)
}

// EventPublisher publishes payment domain events. Publishing is best-effort:
// implementations report failures through their own logging and the service
// treats them as non-fatal.
type EventPublisher interface {
	Publish(ctx context.Context, event payment.Event) error
}
