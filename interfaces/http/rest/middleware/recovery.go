package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "payment-system/pkg/errors"
	"payment-system/pkg/observability"
)

// Recovery converts panics from business logic into a logged "Request Error"
// record, an UnhandledError counter and a structured 500 response. The
// observability calls inside are themselves non-throwing, so this handler is
// safe even when the remote sinks are down.
func Recovery(logger *observability.ServiceLogger, metrics *observability.Metrics, errorHandler *apperrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				ctx := r.Context()
				appErr := apperrors.NewInternalError("unhandled panic", fmt.Errorf("%v", rec))

				logger.Error(ctx, "Request Error", appErr, observability.Fields{
					"method":     r.Method,
					"path":       r.URL.Path,
					"statusCode": http.StatusInternalServerError,
					"durationMs": observability.Elapsed(ctx).Milliseconds(),
					"errorStack": string(debug.Stack()),
				})
				metrics.Count(ctx, "UnhandledError", observability.Dimension{
					Name:  "ErrorType",
					Value: "PANIC",
				})

				errorHandler.WriteResponse(w, r, appErr)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
