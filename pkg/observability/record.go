package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Level represents log severity. Higher values are more severe.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel parses a level name, defaulting to INFO for unknown input.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// String returns the upper-case level name
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// wireName returns the lower-case level name used in remote payloads
func (l Level) wireName() string {
	return strings.ToLower(l.String())
}

// Fields is open-ended caller-supplied metadata attached to a log record.
// Values must be JSON-serializable.
type Fields map[string]interface{}

// Record is a single structured log record. The console line and the remote
// JSON payload are both rendered from this one value so they can never
// disagree on content.
type Record struct {
	Timestamp     string
	Level         Level
	Message       string
	Service       string
	CorrelationID string
	RequestID     string
	UserID        string
	Fields        Fields
}

// coder is implemented by errors that carry a structured code and HTTP status,
// such as pkg/errors.AppError.
type coder interface {
	ErrorCode() string
	HTTPStatusCode() int
}

// stackTracer is implemented by errors that captured a stack trace.
type stackTracer interface {
	StackTrace() string
}

// NewRecord builds a record from the ambient context and caller metadata.
// Ambient identifiers are merged first; caller fields win on key collision
// for that one record only (the context itself is never mutated). When
// fields["error"] holds an error value the record additionally derives
// error/errorStack/errorCode/statusCode fields from it.
func NewRecord(ctx context.Context, level Level, service, message string, fields Fields) Record {
	rec := Record{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Message:   message,
		Service:   service,
	}

	if id, ok := CorrelationID(ctx); ok {
		rec.CorrelationID = id
	}
	if id, ok := RequestID(ctx); ok {
		rec.RequestID = id
	}
	if id, ok := UserID(ctx); ok {
		rec.UserID = id
	}

	merged := make(Fields, len(fields)+4)

	if err, ok := fields["error"].(error); ok {
		for k, v := range errorFields(err) {
			merged[k] = v
		}
	}

	for k, v := range fields {
		if err, ok := v.(error); ok {
			// Error values are not JSON-serializable; keep the message.
			merged[k] = err.Error()
			continue
		}
		merged[k] = v
	}

	// Caller metadata overrides the ambient identifiers for this record.
	if v, ok := stringField(merged, "correlationId"); ok {
		rec.CorrelationID = v
		delete(merged, "correlationId")
	}
	if v, ok := stringField(merged, "requestId"); ok {
		rec.RequestID = v
		delete(merged, "requestId")
	}
	if v, ok := stringField(merged, "userId"); ok {
		rec.UserID = v
		delete(merged, "userId")
	}
	if v, ok := stringField(merged, "service"); ok {
		rec.Service = v
		delete(merged, "service")
	}

	if len(merged) > 0 {
		rec.Fields = merged
	}

	return rec
}

// errorFields derives the structured error fields from an error value
func errorFields(err error) Fields {
	derived := Fields{"error": err.Error()}

	if st, ok := err.(stackTracer); ok && st.StackTrace() != "" {
		derived["errorStack"] = st.StackTrace()
	}
	if c, ok := err.(coder); ok {
		if code := c.ErrorCode(); code != "" {
			derived["errorCode"] = code
		}
		if status := c.HTTPStatusCode(); status != 0 {
			derived["statusCode"] = status
		}
	}

	return derived
}

func stringField(fields Fields, key string) (string, bool) {
	v, ok := fields[key].(string)
	return v, ok
}

// ConsoleLine renders the compact human-readable form: timestamp, level,
// service and identifier tags in brackets, message, remaining metadata as
// inline JSON.
func (r Record) ConsoleLine() string {
	var b strings.Builder

	b.WriteString(r.Timestamp)
	b.WriteString(fmt.Sprintf(" %-5s", r.Level))

	if r.Service != "" {
		fmt.Fprintf(&b, " [%s]", r.Service)
	}
	if r.CorrelationID != "" {
		fmt.Fprintf(&b, " [%s]", r.CorrelationID)
	}
	if r.RequestID != "" {
		fmt.Fprintf(&b, " [%s]", r.RequestID)
	}

	b.WriteString(" ")
	b.WriteString(r.Message)

	if len(r.Fields) > 0 {
		if data, err := json.Marshal(r.Fields); err == nil {
			b.WriteString(" ")
			b.Write(data)
		}
	}

	return b.String()
}

// JSON renders the canonical remote payload. It fails only when caller
// metadata cannot be represented as JSON.
func (r Record) JSON() ([]byte, error) {
	payload := make(map[string]interface{}, len(r.Fields)+7)
	for k, v := range r.Fields {
		payload[k] = v
	}

	payload["timestamp"] = r.Timestamp
	payload["level"] = r.Level.wireName()
	payload["message"] = r.Message
	if r.Service != "" {
		payload["service"] = r.Service
	}
	if r.CorrelationID != "" {
		payload["correlationId"] = r.CorrelationID
	}
	if r.RequestID != "" {
		payload["requestId"] = r.RequestID
	}
	if r.UserID != "" {
		payload["userId"] = r.UserID
	}

	return json.Marshal(payload)
}
