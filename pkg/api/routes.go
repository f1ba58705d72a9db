package api

import (
	"net/http"

	"github.com/shelfd/shelfd/pkg/httputil"
)

// registerRoutes sets up all API routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Service and operational endpoints
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", s.registry.Handler())
	mux.HandleFunc("/echo", s.handleEcho)

	// Todo resource
	mux.HandleFunc("GET /todos", s.handleListTodos)
	mux.HandleFunc("POST /todos", s.handleCreateTodo)
	mux.HandleFunc("GET /todos/{id}", s.handleGetTodo)
	mux.HandleFunc("PUT /todos/{id}", s.handleReplaceTodo)
	mux.HandleFunc("PATCH /todos/{id}", s.handlePatchTodo)
	mux.HandleFunc("DELETE /todos/{id}", s.handleDeleteTodo)

	// Authentication
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.Handle("GET /auth/me", s.requireAuth(http.HandlerFunc(s.handleMe)))

	// User administration
	mux.Handle("GET /users", s.requireAdmin(http.HandlerFunc(s.handleListUsers)))
	mux.Handle("GET /users/{id}", s.requireAdmin(http.HandlerFunc(s.handleGetUser)))
	mux.Handle("DELETE /users/{id}", s.requireAdmin(http.HandlerFunc(s.handleDeleteUser)))

	// Streaming
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /events", s.handleEvents)

	// Files
	mux.HandleFunc("POST /upload", s.handleUpload)
	if s.cfg.Files.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.cfg.Files.StaticDir))
		mux.Handle("GET /static/", http.StripPrefix("/static/", fs))
	}

	// State management
	mux.HandleFunc("GET /state", s.handleState)
	mux.Handle("POST /state/reset", s.requireAdmin(http.HandlerFunc(s.handleStateReset)))
	mux.HandleFunc("GET /export", s.handleExport)
	mux.Handle("POST /import", s.requireAdmin(http.HandlerFunc(s.handleImport)))

	// JSON fallback for unknown paths
	mux.HandleFunc("/", s.handleNotFound)
}

// handleNotFound answers unmatched paths with a JSON 404 instead of the
// default text response.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteNotFound(w, "not_found", "no route for "+r.URL.Path)
}
