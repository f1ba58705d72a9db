package api

import (
	"io"
	"net/http"

	"github.com/shelfd/shelfd/pkg/httputil"
)

// maxEchoBytes caps the request body reflected by /echo.
const maxEchoBytes = 1 << 20

// handleRoot handles GET / with service identification.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, map[string]string{
		"service": "shelfd",
		"version": s.version,
	})
}

// handleHealth handles GET /health. Liveness: answers ok whenever the
// process can serve at all.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, map[string]any{
		"status": "ok",
		"uptime": s.Uptime(),
	})
}

// handleReady handles GET /ready. Readiness flips off during shutdown so
// load balancers drain before connections drop.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		httputil.WriteServiceUnavailable(w, "not_ready", "server is not ready")
		return
	}
	httputil.WriteOK(w, map[string]string{"status": "ready"})
}

// handleStatus handles GET /status with a detailed runtime snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, map[string]any{
		"status":          "ok",
		"version":         s.version,
		"uptime_seconds":  s.Uptime(),
		"request_count":   s.requestCount.Load(),
		"todo_count":      s.todos.Len(),
		"user_count":      s.users.Len(),
		"sse_subscribers": s.hub.SubscriberCount(),
		"auth_enabled":    s.authn != nil,
	})
}

// handleEcho reflects the request back to the caller: any method, any
// path query, headers, and up to maxEchoBytes of body.
func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEchoBytes))
	if err != nil {
		httputil.WriteBadRequest(w, "bad_request", "failed to read request body")
		return
	}

	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}

	httputil.WriteOK(w, map[string]any{
		"method":  r.Method,
		"path":    r.URL.Path,
		"query":   r.URL.RawQuery,
		"headers": headers,
		"body":    string(body),
	})
}
