package middleware

import (
	"net/http"
	"time"

	"payment-system/pkg/observability"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// ContextOptions controls how the boundary hook treats a missing
// correlation id.
type ContextOptions struct {
	// GenerateCorrelationID marks the outermost service in the call chain:
	// only there is a missing correlation id replaced by a freshly minted
	// one. Downstream services log a warning and proceed with the id unset
	// rather than fabricate a disconnected id that would break traceability.
	GenerateCorrelationID bool
}

// RequestContext seeds the request context with correlation, request and
// timing identifiers, echoes them on the response, and logs the inbound
// request and outbound response with duration.
func RequestContext(logger *observability.ServiceLogger, opts ContextOptions) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			correlationID := r.Header.Get(observability.HeaderCorrelationID)
			if correlationID == "" && opts.GenerateCorrelationID {
				correlationID = observability.NewCorrelationID()
			}

			requestID := r.Header.Get(observability.HeaderRequestID)
			if requestID == "" {
				requestID = observability.NewRequestID()
			}

			if correlationID != "" {
				ctx = observability.WithCorrelationID(ctx, correlationID)
			}
			ctx = observability.WithRequestID(ctx, requestID)
			ctx = observability.WithStartTime(ctx, start)
			r = r.WithContext(ctx)

			if correlationID == "" {
				logger.Warn(ctx, "Missing correlation ID", observability.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
				})
			}

			w.Header().Set(observability.HeaderRequestID, requestID)
			if correlationID != "" {
				w.Header().Set(observability.HeaderCorrelationID, correlationID)
			}

			requestFields := observability.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"remoteAddr": r.RemoteAddr,
				"userAgent":  r.UserAgent(),
			}
			if query := r.URL.RawQuery; query != "" {
				requestFields["query"] = query
			}
			logger.Info(ctx, "HTTP Request", requestFields)

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			responseFields := observability.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"statusCode": status,
				"durationMs": time.Since(start).Milliseconds(),
			}
			if status >= http.StatusBadRequest {
				logger.Error(ctx, "HTTP Response", nil, responseFields)
			} else {
				logger.Info(ctx, "HTTP Response", responseFields)
			}
		})
	}
}
