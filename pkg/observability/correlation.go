package observability

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// HTTP headers used to propagate identifiers across services
const (
	HeaderCorrelationID = "X-Correlation-Id"
	HeaderRequestID     = "X-Request-Id"
)

const correlationIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewCorrelationID generates a correlation identifier of the form
// COR-{unixMillis}-{9 random alphanumerics}, e.g. COR-1706234567890-abc123def.
// Only the outermost service in a call chain should mint one; every
// downstream hop forwards the inbound value verbatim.
func NewCorrelationID() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = correlationIDAlphabet[rand.Intn(len(correlationIDAlphabet))]
	}
	return fmt.Sprintf("COR-%d-%s", time.Now().UnixMilli(), suffix)
}

// NewRequestID generates an identifier unique to one HTTP request/response
// pair within one process.
func NewRequestID() string {
	return uuid.New().String()
}
