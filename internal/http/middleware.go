package httpapi

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/example/swiftride/internal/observability"
)

type traceKey struct{}

// trace carries per-request facts that handlers add for the access log.
type trace struct {
	id string

	mu    sync.Mutex
	attrs []any
}

func (t *trace) annotate(args ...any) {
	t.mu.Lock()
	t.attrs = append(t.attrs, args...)
	t.mu.Unlock()
}

func (t *trace) logArgs() []any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]any{"request_id", t.id}, t.attrs...)
}

// annotate attaches key/value pairs to the request's access-log line.
func annotate(ctx context.Context, args ...any) {
	if t, ok := ctx.Value(traceKey{}).(*trace); ok {
		t.annotate(args...)
	}
}

func requestIDFromContext(ctx context.Context) string {
	if t, ok := ctx.Value(traceKey{}).(*trace); ok {
		return t.id
	}
	return ""
}

func (s *Server) registerMiddleware() {
	s.mux.Use(s.traceMiddleware)
	s.mux.Use(s.accessLogMiddleware)
	s.mux.Use(s.recoverMiddleware)
}

// traceMiddleware reuses an incoming X-Request-ID and echoes it back.
func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), traceKey{}, &trace{id: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := routeTemplate(r)
		elapsed := time.Since(start)
		observability.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		observability.HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Observe(elapsed.Seconds())

		level := slog.LevelInfo
		switch {
		case route == "/metrics" || route == "/healthz":
			level = slog.LevelDebug
		case sw.status >= 500:
			level = slog.LevelWarn
		}
		args := []any{
			"method", r.Method,
			"route", route,
			"status", sw.status,
			"duration_ms", elapsed.Milliseconds(),
			"remote_addr", clientIP(r),
		}
		if t, ok := r.Context().Value(traceKey{}).(*trace); ok {
			args = append(args, t.logArgs()...)
		}
		s.logger.Log(r.Context(), level, "view_request", args...)
	})
}

// recoverMiddleware sits innermost so a panic still gets an access-log line.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "error", rec, "request_id", requestIDFromContext(r.Context()))
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Hijack is needed by the websocket upgrader on /ws.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

func routeTemplate(r *http.Request) string {
	if current := mux.CurrentRoute(r); current != nil {
		if tmpl, err := current.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
