package rest

import (
	"io"
	"net/http"

	"payment-system/infrastructure/config"
	"payment-system/infrastructure/downstream"
	"payment-system/interfaces/http/rest/middleware"
	apperrors "payment-system/pkg/errors"
	"payment-system/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// GatewayRouter is the outermost entry point of the payment flow. It mints
// a correlation id when the client supplied none and forwards every call to
// the backend service with the id attached.
type GatewayRouter struct {
	cfg          *config.Config
	backend      *downstream.Client
	logger       *observability.ServiceLogger
	metrics      *observability.Metrics
	errorHandler *apperrors.ErrorHandler
}

// NewGatewayRouter creates a gateway router
func NewGatewayRouter(
	cfg *config.Config,
	backend *downstream.Client,
	logger *observability.ServiceLogger,
	metrics *observability.Metrics,
) *GatewayRouter {
	return &GatewayRouter{
		cfg:          cfg,
		backend:      backend,
		logger:       logger,
		metrics:      metrics,
		errorHandler: apperrors.NewErrorHandler(logger, !cfg.IsProduction()),
	}
}

// Setup configures gateway routes and middleware
func (rt *GatewayRouter) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestContext(rt.logger, middleware.ContextOptions{
		GenerateCorrelationID: true,
	}))
	router.Use(middleware.Recovery(rt.logger, rt.metrics, rt.errorHandler))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"payment-gateway"}`))
	})

	router.HandleFunc("/api/v1/payments", rt.proxyToBackend)
	router.HandleFunc("/api/v1/payments/*", rt.proxyToBackend)

	return router
}

// proxyToBackend forwards the request to the backend payment service. The
// downstream client attaches the ambient correlation id verbatim.
func (rt *GatewayRouter) proxyToBackend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := rt.backend.Do(ctx, r.Method, r.URL.RequestURI(), r.Body, r.Header.Get("Authorization"))
	if err != nil {
		rt.metrics.Count(ctx, "GatewayProxyError", observability.Dimension{
			Name:  "ErrorType",
			Value: "EXTERNAL_SERVICE",
		})
		rt.errorHandler.WriteResponse(w, r, err)
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		rt.logger.Warn(ctx, "Response relay interrupted", observability.Fields{
			"reason": err.Error(),
		})
	}
}
