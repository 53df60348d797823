// Package server exposes the relay's HTTP surface: the GitHub webhook
// endpoint, the capability documents and a liveness route.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cchalm/issue-relay/internal/capabilities"
	"github.com/cchalm/issue-relay/internal/signature"
	"github.com/cchalm/issue-relay/internal/telemetry"
	"github.com/cchalm/issue-relay/internal/webhook"
)

const capabilitiesSuffix = "-capabilities"

// Processor handles a verified, parsed webhook event.
type Processor interface {
	Process(ctx context.Context, ev webhook.Event) error
}

// Catalog looks up capability documents by service name.
type Catalog interface {
	Get(service string) (capabilities.Document, bool)
}

// Config holds the listener settings.
type Config struct {
	Port          int
	MaxBodySize   int64
	WebhookSecret string
}

// Response is the JSON body of every webhook and error response.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Server represents the relay HTTP server.
type Server struct {
	config    Config
	processor Processor
	catalog   Catalog
	logger    *slog.Logger
	server    *http.Server
}

// New creates a new server instance.
func New(config Config, processor Processor, catalog Catalog, logger *slog.Logger) *Server {
	return &Server{
		config:    config,
		processor: processor,
		catalog:   catalog,
		logger:    logger,
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails. Cancellation triggers a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("server starting", "port", s.config.Port)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "issue-relay",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(s.recoverMiddleware)

	r.Get("/", s.handleRoot)
	r.Post("/webhook/github", s.handleWebhook)
	r.Get("/resources/{document}", s.handleCapabilities)

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	return r
}

// loggingMiddleware writes one access log line per request. Bodies are never
// logged here.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.ErrorContext(r.Context(), "panic while handling request",
				"panic", fmt.Sprint(rec),
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()),
			)
			s.respondError(w, http.StatusInternalServerError, "Internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Hello World")
}

// handleWebhook handles GitHub webhook deliveries.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, readLimit(s.config.MaxBodySize)))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read webhook body", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to read request body")
		return
	}
	if int64(len(body)) > s.config.MaxBodySize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "Payload too large")
		return
	}

	if err := signature.Check(body, r.Header.Get(signature.HeaderName), s.config.WebhookSecret); err != nil {
		s.logger.WarnContext(ctx, "webhook signature verification failed",
			"request_id", middleware.GetReqID(ctx),
			"error", err,
		)
		s.respondError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	event := r.Header.Get(webhook.EventHeader)
	delivery := r.Header.Get(webhook.DeliveryHeader)
	if delivery == "" {
		delivery = uuid.NewString()
	}
	s.logger.InfoContext(ctx, "webhook received", "event", event, "delivery", delivery)
	s.logger.DebugContext(ctx, "webhook payload", "delivery", delivery, "payload", string(body))

	if err := s.process(ctx, body, event, delivery); err != nil {
		s.logger.ErrorContext(ctx, "error processing webhook", "delivery", delivery, "error", err)
		s.respondError(w, http.StatusInternalServerError, "Internal server error processing webhook")
		return
	}

	s.respondJSON(w, http.StatusOK, Response{Status: "success", Message: "Webhook received and processed"})
}

// readLimit is one byte past limit so an oversized body can be told apart from
// one that exactly fits.
func readLimit(limit int64) int64 {
	if limit >= math.MaxInt64 {
		return math.MaxInt64
	}
	return limit + 1
}

func (s *Server) process(ctx context.Context, body []byte, event, delivery string) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "webhook.process",
		attribute.String("github.event", event),
		attribute.String("github.delivery", delivery),
	)
	defer func() { telemetry.End(span, err) }()

	ev, err := webhook.Parse(body)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("webhook.kind", ev.Kind.String()))

	return s.processor.Process(ctx, ev)
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	service, ok := strings.CutSuffix(chi.URLParam(r, "document"), capabilitiesSuffix)
	if !ok || service == "" {
		s.handleNotFound(w, r)
		return
	}

	doc, ok := s.catalog.Get(service)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	s.respondError(w, http.StatusNotFound, "Route not found")
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, Response{Status: "error", Message: message})
}
