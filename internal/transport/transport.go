// Package transport provides the outbound HTTP client shared by the GitHub and
// Notion wrappers.
package transport

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// LoggingTransport logs every outbound request with its status and duration.
// It never retries: a failed round trip is returned to the caller as-is.
type LoggingTransport struct {
	base   http.RoundTripper
	logger *slog.Logger
}

// WithLogging wraps base (http.DefaultTransport when nil) with request logging.
func WithLogging(base http.RoundTripper, logger *slog.Logger) *LoggingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &LoggingTransport{base: base, logger: logger}
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	attrs := []any{
		"method", req.Method,
		"host", req.URL.Host,
		"path", req.URL.Path,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		t.logger.WarnContext(req.Context(), "upstream request failed", append(attrs, "error", err)...)
		return resp, err
	}

	attrs = append(attrs, "status", resp.StatusCode)
	if resp.StatusCode >= http.StatusBadRequest {
		t.logger.WarnContext(req.Context(), "upstream request returned error status", attrs...)
	} else {
		t.logger.DebugContext(req.Context(), "upstream request", attrs...)
	}
	return resp, err
}

// NewClient returns an HTTP client whose transport logs each request and
// records an OpenTelemetry client span for it.
func NewClient(base http.RoundTripper, logger *slog.Logger) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(WithLogging(base, logger)),
	}
}
