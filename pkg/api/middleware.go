package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shelfd/shelfd/pkg/auth"
	"github.com/shelfd/shelfd/pkg/httputil"
)

type contextKey string

const (
	ctxKeyRequestID contextKey = "request_id"
	ctxKeyClaims    contextKey = "claims"
)

// RequestIDFromContext returns the request ID assigned by the middleware,
// or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// ClaimsFromContext returns the verified token claims, or nil when the
// request was not authenticated.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(ctxKeyClaims).(*auth.Claims)
	return claims
}

// withMiddleware wraps the mux with the server-wide middleware chain.
// Order, outermost first: recovery, request ID, logging, CORS, rate
// limiting.
func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	wrapped := handler
	if s.limiter != nil {
		wrapped = s.limiter.Middleware(wrapped)
	}
	if s.cfg.CORS.Enabled {
		wrapped = s.corsMiddleware(wrapped)
	}
	wrapped = s.loggingMiddleware(wrapped)
	wrapped = s.requestIDMiddleware(wrapped)
	return s.recoveryMiddleware(wrapped)
}

// recoveryMiddleware turns handler panics into 500 responses instead of
// dropped connections.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("handler panic",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", RequestIDFromContext(r.Context()),
				)
				httputil.WriteInternalError(w, "internal_error", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware assigns each request a UUID, honoring one supplied
// by the client, and echoes it in the X-Request-ID header.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id)))
	})
}

// loggingMiddleware logs each request, counts it, and reports the
// handler latency in the X-Response-Time header.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.requestCount.Add(1)
		_ = s.httpRequests.Inc(r.Method)

		sw := &statusCapturingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK, start: start}
		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		_ = s.httpResponses.Inc(strconv.Itoa(sw.statusCode))

		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.statusCode,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", RequestIDFromContext(r.Context()),
		)
	})
}

// corsMiddleware sets cross-origin headers and answers preflight
// requests. Disallowed origins get no CORS headers; the browser blocks
// the response.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		w.Header().Add("Vary", "Origin")

		allowed := s.allowOrigin(origin)
		if allowed == "" {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", allowed)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "300")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allowOrigin returns the Access-Control-Allow-Origin value for the
// given request origin, or empty when the origin is not allowed.
func (s *Server) allowOrigin(origin string) string {
	if origin == "" {
		// Same-origin or non-browser client.
		return ""
	}
	for _, o := range s.cfg.CORS.Origins {
		if o == "*" {
			return "*"
		}
		if strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

// requireAuth verifies the bearer token and stores its claims in the
// request context. When no signing secret is configured the check is
// skipped entirely (dev mode).
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authn == nil {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := s.verifyRequest(r)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyClaims, claims)))
	})
}

// requireAdmin is requireAuth plus an admin role check.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return s.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authn != nil {
			claims := ClaimsFromContext(r.Context())
			if claims == nil || claims.Role != auth.RoleAdmin {
				s.writeDomainError(w, auth.ErrForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	}))
}

func (s *Server) verifyRequest(r *http.Request) (*auth.Claims, error) {
	token, err := auth.FromHeader(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	return s.authn.Verify(token)
}

// statusCapturingResponseWriter records the response status code and
// sets the X-Response-Time header just before headers go out.
type statusCapturingResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
	start         time.Time
}

func (w *statusCapturingResponseWriter) WriteHeader(code int) {
	if !w.headerWritten {
		w.statusCode = code
		w.headerWritten = true
		w.Header().Set("X-Response-Time", time.Since(w.start).String())
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusCapturingResponseWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap supports http.ResponseController, which the streaming handlers
// use for flushing.
func (w *statusCapturingResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Flush forwards to the wrapped writer so SSE works through the
// middleware chain.
func (w *statusCapturingResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		w.headerWritten = true
		f.Flush()
	}
}
