package errors

import (
	"encoding/json"
	"net/http"

	"payment-system/pkg/observability"
)

// ErrorResponse represents the API error response format. Responses are
// tagged with the active correlation and request identifiers so a client
// report can be joined against the logs.
type ErrorResponse struct {
	Error         bool                   `json:"error"`
	Type          string                 `json:"type"`
	Message       string                 `json:"message"`
	Code          string                 `json:"code,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
	CorrelationID string                 `json:"correlationId,omitempty"`
	RequestID     string                 `json:"requestId,omitempty"`
}

// ErrorHandler maps errors to HTTP responses and logs them
type ErrorHandler struct {
	logger        *observability.ServiceLogger
	debug         bool
	defaultStatus int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *observability.ServiceLogger, debug bool) *ErrorHandler {
	return &ErrorHandler{
		logger:        logger,
		debug:         debug,
		defaultStatus: http.StatusInternalServerError,
	}
}

// Handle logs an error and sends the mapped HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	status := h.defaultStatus
	if appErr := GetAppError(err); appErr != nil && appErr.HTTPStatus != 0 {
		status = appErr.HTTPStatus
	}

	h.logger.Error(r.Context(), "Request failed", err, observability.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"statusCode": status,
	})

	h.WriteResponse(w, r, err)
}

// WriteResponse sends the mapped HTTP response without logging, for callers
// that already produced their own error record
func (h *ErrorHandler) WriteResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	ctx := r.Context()
	meta := observability.ExtractMetadata(ctx)

	status := h.defaultStatus
	response := ErrorResponse{
		Error:         true,
		Type:          string(ErrorTypeInternal),
		Message:       "An internal error occurred",
		CorrelationID: meta.CorrelationID,
		RequestID:     meta.RequestID,
	}

	if appErr := GetAppError(err); appErr != nil {
		if appErr.HTTPStatus != 0 {
			status = appErr.HTTPStatus
		}
		response.Type = string(appErr.Type)
		response.Message = appErr.Message
		response.Code = appErr.Code
		response.Details = appErr.Details

		if h.debug && appErr.Stack != "" {
			if response.Details == nil {
				response.Details = make(map[string]interface{})
			}
			response.Details["stackTrace"] = appErr.Stack
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		h.logger.Error(ctx, "Failed to encode error response", encodeErr, nil)
	}
}
