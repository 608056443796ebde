package observability

import (
	"context"
	"time"
)

// ContextKey represents a context key type
type ContextKey string

// Context keys
const (
	ContextKeyCorrelationID ContextKey = "correlation_id"
	ContextKeyRequestID     ContextKey = "request_id"
	ContextKeyUserID        ContextKey = "user_id"
	ContextKeyStartTime     ContextKey = "start_time"
)

// WithCorrelationID adds the correlation ID to context
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationID, correlationID)
}

// CorrelationID extracts the correlation ID from context
func CorrelationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyCorrelationID).(string)
	return id, ok
}

// WithRequestID adds the request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestID extracts the request ID from context
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyRequestID).(string)
	return id, ok
}

// WithUserID adds the authenticated user ID to context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// UserID extracts the user ID from context
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(string)
	return id, ok
}

// WithStartTime records when request handling began
func WithStartTime(ctx context.Context, startTime time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyStartTime, startTime)
}

// StartTime extracts the request start time from context
func StartTime(ctx context.Context) (time.Time, bool) {
	start, ok := ctx.Value(ContextKeyStartTime).(time.Time)
	return start, ok
}

// Elapsed calculates elapsed time since the request start time
func Elapsed(ctx context.Context) time.Duration {
	if start, ok := StartTime(ctx); ok {
		return time.Since(start)
	}
	return 0
}

// ContextMetadata contains the identifiers carried by a request context
type ContextMetadata struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	UserID        string `json:"user_id,omitempty"`
}

// ExtractMetadata extracts all identifiers from context
func ExtractMetadata(ctx context.Context) ContextMetadata {
	meta := ContextMetadata{}

	if id, ok := CorrelationID(ctx); ok {
		meta.CorrelationID = id
	}
	if id, ok := RequestID(ctx); ok {
		meta.RequestID = id
	}
	if id, ok := UserID(ctx); ok {
		meta.UserID = id
	}

	return meta
}
