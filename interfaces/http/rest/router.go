package rest

import (
	"net/http"

	"payment-system/application/services"
	"payment-system/infrastructure/config"
	"payment-system/interfaces/http/rest/handlers"
	"payment-system/interfaces/http/rest/middleware"
	"payment-system/pkg/auth"
	apperrors "payment-system/pkg/errors"
	"payment-system/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Router creates and configures the backend payment service HTTP router
type Router struct {
	cfg            *config.Config
	paymentService *services.PaymentService
	jwtManager     *auth.JWTManager
	logger         *observability.ServiceLogger
	metrics        *observability.Metrics
	errorHandler   *apperrors.ErrorHandler
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	paymentService *services.PaymentService,
	jwtManager *auth.JWTManager,
	logger *observability.ServiceLogger,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		cfg:            cfg,
		paymentService: paymentService,
		jwtManager:     jwtManager,
		logger:         logger,
		metrics:        metrics,
		errorHandler:   apperrors.NewErrorHandler(logger, !cfg.IsProduction()),
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// The backend sits downstream of the gateway: a missing correlation id
	// is warned about, never replaced.
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestContext(rt.logger, middleware.ContextOptions{
		GenerateCorrelationID: false,
	}))
	router.Use(middleware.Recovery(rt.logger, rt.metrics, rt.errorHandler))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", observability.HeaderCorrelationID, observability.HeaderRequestID},
			ExposedHeaders:   []string{observability.HeaderCorrelationID, observability.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)

	// API routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.jwtManager, rt.logger, rt.errorHandler))

		r.Route("/payments", func(r chi.Router) {
			paymentHandler := handlers.NewPaymentHandler(rt.paymentService, rt.logger, rt.errorHandler)
			r.Post("/", paymentHandler.ProcessPayment)
			r.Get("/", paymentHandler.ListPayments)
			r.Get("/{paymentID}", paymentHandler.GetPayment)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"` + rt.cfg.ServiceName + `"}`))
}
