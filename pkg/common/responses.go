package common

import (
	"encoding/json"
	"net/http"
	"time"

	"payment-system/pkg/observability"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// MetaInfo tags a response with the identifiers needed to join it against
// the logs
type MetaInfo struct {
	CorrelationID string `json:"correlationId,omitempty"`
	RequestID     string `json:"requestId,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// RespondJSON sends a JSON response carrying the ambient identifiers
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	meta := observability.ExtractMetadata(r.Context())

	response := APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
		Meta: &MetaInfo{
			CorrelationID: meta.CorrelationID,
			RequestID:     meta.RequestID,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
