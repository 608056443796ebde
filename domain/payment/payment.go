package payment

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a payment
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Payment represents one payment transaction. Amounts are in minor currency
// units.
type Payment struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Method        string    `json:"method"`
	Reference     string    `json:"reference,omitempty"`
	Status        Status    `json:"status"`
	CorrelationID string    `json:"correlationId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// New creates a pending payment for the given user
func New(userID string, amount int64, currency, method, reference string) *Payment {
	now := time.Now().UTC()
	return &Payment{
		ID:        uuid.New().String(),
		UserID:    userID,
		Amount:    amount,
		Currency:  currency,
		Method:    method,
		Reference: reference,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Complete marks the payment as successfully processed
func (p *Payment) Complete() {
	p.Status = StatusCompleted
	p.UpdatedAt = time.Now().UTC()
}

// Fail marks the payment as failed
func (p *Payment) Fail() {
	p.Status = StatusFailed
	p.UpdatedAt = time.Now().UTC()
}

// Event is the domain event published when a payment changes state
type Event struct {
	Type          string    `json:"type"`
	PaymentID     string    `json:"paymentId"`
	UserID        string    `json:"userId"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Status        Status    `json:"status"`
	CorrelationID string    `json:"correlationId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
