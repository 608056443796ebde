package observability

import (
	"context"
	"time"
)

// SlowOperationThreshold is the duration above which a performance record is
// emitted as a warning instead of plain info.
const SlowOperationThreshold = 5000 * time.Millisecond

// ServiceLogger is a per-component logging facade. Every record it emits is
// tagged with the component's service name and the ambient correlation,
// request and user identifiers; caller-supplied fields win on collision
// except for the service name, which is always the facade's own.
type ServiceLogger struct {
	service string
	emitter *Emitter
}

// NewServiceLogger creates a facade bound to a fixed service name
func NewServiceLogger(service string, emitter *Emitter) *ServiceLogger {
	return &ServiceLogger{
		service: service,
		emitter: emitter,
	}
}

// Service returns the facade's service name
func (l *ServiceLogger) Service() string {
	return l.service
}

func (l *ServiceLogger) log(ctx context.Context, level Level, message string, fields Fields) {
	rec := NewRecord(ctx, level, l.service, message, fields)
	rec.Service = l.service
	l.emitter.Emit(rec)
}

// Debug logs a debug message
func (l *ServiceLogger) Debug(ctx context.Context, message string, fields Fields) {
	l.log(ctx, LevelDebug, message, fields)
}

// Info logs an info message
func (l *ServiceLogger) Info(ctx context.Context, message string, fields Fields) {
	l.log(ctx, LevelInfo, message, fields)
}

// Warn logs a warning message
func (l *ServiceLogger) Warn(ctx context.Context, message string, fields Fields) {
	l.log(ctx, LevelWarn, message, fields)
}

// Error logs an error message. err may be a structured application error or
// any plain error value; its message, stack, code and HTTP status are
// derived into the record where available.
func (l *ServiceLogger) Error(ctx context.Context, message string, err error, fields Fields) {
	merged := make(Fields, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	if err != nil {
		merged["error"] = err
	}
	l.log(ctx, LevelError, message, merged)
}

// Performance logs a timed operation: WARN above the slow-operation
// threshold, INFO otherwise. The record always carries the operation name
// and its duration in milliseconds.
func (l *ServiceLogger) Performance(ctx context.Context, operation string, duration time.Duration, fields Fields) {
	level := LevelInfo
	if duration > SlowOperationThreshold {
		level = LevelWarn
	}

	merged := make(Fields, len(fields)+2)
	for k, v := range fields {
		merged[k] = v
	}
	merged["operation"] = operation
	merged["durationMs"] = duration.Milliseconds()

	l.log(ctx, level, "Performance: "+operation, merged)
}
