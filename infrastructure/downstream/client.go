package downstream

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "payment-system/pkg/errors"
	"payment-system/pkg/observability"
)

// Client calls a downstream service of the payment flow. The ambient
// correlation id is forwarded verbatim on every call; the client never
// substitutes its own.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	logger     *observability.ServiceLogger
	tracer     *observability.Tracer
}

// NewClient creates a downstream client for the named service
func NewClient(name, baseURL string, logger *observability.ServiceLogger, tracer *observability.Tracer) *Client {
	return &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		tracer:     tracer,
	}
}

// Do performs one downstream HTTP call. The Authorization header is passed
// through when supplied so the downstream service can authenticate the
// original principal.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, authorization string) (*http.Response, error) {
	var resp *http.Response

	err := c.tracer.Trace(ctx, c.name+path, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return err
		}

		req.Header.Set("Content-Type", "application/json")
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		if id, ok := observability.CorrelationID(ctx); ok && id != "" {
			req.Header.Set(observability.HeaderCorrelationID, id)
		}

		start := time.Now()
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return err
		}

		c.logger.Debug(ctx, "Downstream call completed", observability.Fields{
			"target":     c.name,
			"method":     method,
			"path":       path,
			"statusCode": resp.StatusCode,
			"durationMs": time.Since(start).Milliseconds(),
		})
		return nil
	})
	if err != nil {
		c.logger.Error(ctx, "Downstream call failed", err, observability.Fields{
			"target": c.name,
			"method": method,
			"path":   path,
		})
		return nil, apperrors.NewExternalError(c.name, err)
	}

	return resp, nil
}
