package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/skillbroker/skillbroker/pkg/audit"
	"github.com/skillbroker/skillbroker/pkg/telemetry"
)

// Server exposes the broker process's operational surface: a liveness
// probe, Prometheus metrics, and a snapshot of the running audit summary.
// It never touches decision-making — a simulation runs identically with
// or without this package mounted.
type Server struct {
	Audit   *audit.Writer
	Metrics *telemetry.Metrics
	Tracer  trace.Tracer
	Logger  *slog.Logger

	router chi.Router
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) tracer() trace.Tracer {
	if s.Tracer != nil {
		return s.Tracer
	}
	return noop.NewTracerProvider().Tracer("skillbroker/server")
}

// Handler builds (once) and returns the chi router backing this Server.
func (s *Server) Handler() http.Handler {
	if s.router != nil {
		return s.router
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.traceMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/audit/summary", s.handleAuditSummary)

	s.router = r
	return r
}

// ListenAndServe starts an HTTP server bound to addr. It blocks until the
// server stops or errors.
func (s *Server) ListenAndServe(addr string) error {
	s.logger().Info("server starting", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.Metrics.Handler().ServeHTTP(w, r)
}

func (s *Server) handleAuditSummary(w http.ResponseWriter, _ *http.Request) {
	if s.Audit == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Audit.Snapshot())
}

// traceMiddleware wraps every request in a span and, once Metrics is
// configured, records an HTTP request observation.
func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := s.tracer().Start(r.Context(), "http.request",
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.path", r.URL.Path),
			))
		defer span.End()

		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		if wrapped.status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(wrapped.status))
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.SetAttributes(attribute.Int("http.status_code", wrapped.status))
		s.Metrics.RecordHTTPRequest(chi.RouteContext(ctx).RoutePattern(), wrapped.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
