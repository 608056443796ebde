package middleware

import (
	"net/http"
	"strings"

	"payment-system/pkg/auth"
	apperrors "payment-system/pkg/errors"
	"payment-system/pkg/observability"
)

// Authenticate validates the bearer token and seeds the request context
// with the authenticated user id, so every record emitted during handling
// carries it.
func Authenticate(manager *auth.JWTManager, logger *observability.ServiceLogger, errorHandler *apperrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				errorHandler.Handle(w, r, apperrors.NewUnauthorizedError("Missing authorization header"))
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				errorHandler.Handle(w, r, apperrors.NewUnauthorizedError("Authorization header must be a bearer token"))
				return
			}

			claims, err := manager.Validate(tokenString)
			if err != nil {
				logger.Warn(ctx, "Token validation failed", observability.Fields{
					"reason": err.Error(),
				})
				errorHandler.Handle(w, r, apperrors.NewUnauthorizedError("Invalid or expired token"))
				return
			}

			ctx = observability.WithUserID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
