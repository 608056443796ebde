package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	apperrors "payment-system/pkg/errors"
	"payment-system/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*observability.ServiceLogger, *bytes.Buffer) {
	t.Helper()
	console := &bytes.Buffer{}
	emitter := observability.NewEmitter(nil, observability.EmitterConfig{Console: console}, nil)
	return observability.NewServiceLogger("payment-gateway", emitter), console
}

func TestInboundCorrelationHeaderPropagated(t *testing.T) {
	logger, console := newTestLogger(t)

	var seenCorrelation, seenRequest string
	handler := RequestContext(logger, ContextOptions{GenerateCorrelationID: true})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenCorrelation, _ = observability.CorrelationID(r.Context())
			seenRequest, _ = observability.RequestID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", nil)
	req.Header.Set(observability.HeaderCorrelationID, "COR-TEST-1")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, "COR-TEST-1", seenCorrelation)
	assert.NotEmpty(t, seenRequest)
	assert.Equal(t, "COR-TEST-1", rec.Header().Get(observability.HeaderCorrelationID))
	assert.NotEmpty(t, rec.Header().Get(observability.HeaderRequestID))

	out := console.String()
	assert.Contains(t, out, "HTTP Request")
	assert.Contains(t, out, "HTTP Response")
	assert.Contains(t, out, "COR-TEST-1")
}

func TestOutermostServiceGeneratesMissingID(t *testing.T) {
	logger, _ := newTestLogger(t)

	var seen string
	handler := RequestContext(logger, ContextOptions{GenerateCorrelationID: true})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = observability.CorrelationID(r.Context())
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil))

	assert.Regexp(t, regexp.MustCompile(`^COR-\d+-[a-z0-9]{9}$`), seen)
	assert.Equal(t, seen, rec.Header().Get(observability.HeaderCorrelationID))
}

func TestDownstreamServiceNeverFabricatesID(t *testing.T) {
	logger, console := newTestLogger(t)

	var ok bool
	handler := RequestContext(logger, ContextOptions{GenerateCorrelationID: false})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok = observability.CorrelationID(r.Context())
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/internal", nil))

	assert.False(t, ok, "downstream hop must not invent a correlation id")
	assert.Contains(t, console.String(), "Missing correlation ID")
}

func TestInboundRequestIDReused(t *testing.T) {
	logger, _ := newTestLogger(t)

	var seen string
	handler := RequestContext(logger, ContextOptions{})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = observability.RequestID(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(observability.HeaderRequestID, "req-supplied")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "req-supplied", seen)
}

func TestErrorStatusLoggedAsError(t *testing.T) {
	logger, console := newTestLogger(t)

	handler := RequestContext(logger, ContextOptions{GenerateCorrelationID: true})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil))

	out := console.String()
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, `"statusCode":502`)
}

func TestQueryParametersLogged(t *testing.T) {
	logger, console := newTestLogger(t)

	handler := RequestContext(logger, ContextOptions{GenerateCorrelationID: true})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/payments?limit=10", nil))

	assert.Contains(t, console.String(), `"query":"limit=10"`)
}

func TestRecoveryConvertsPanic(t *testing.T) {
	logger, console := newTestLogger(t)
	metrics := observability.NewMetrics(nil, "", "", false, nil)
	errorHandler := apperrors.NewErrorHandler(logger, false)

	handler := RequestContext(logger, ContextOptions{GenerateCorrelationID: true})(
		Recovery(logger, metrics, errorHandler)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("kaboom")
			})))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payments", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	out := console.String()
	assert.Contains(t, out, "Request Error")
	assert.Contains(t, out, "kaboom")
}
