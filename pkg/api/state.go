package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shelfd/shelfd/pkg/httputil"
)

// exportVersion tags the export format so future shapes can be told
// apart on import.
const exportVersion = "1"

// exportDocument is the /export and /import wire format. Only record
// contents travel; IDs are reassigned on import.
type exportDocument struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Todos      []Todo    `json:"todos"`
}

// handleState handles GET /state with a summary of all stores.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, map[string]any{
		"todo_count":      s.todos.Len(),
		"user_count":      s.users.Len(),
		"sse_subscribers": s.hub.SubscriberCount(),
		"request_count":   s.requestCount.Load(),
	})
}

// handleStateReset handles POST /state/reset: todos return to their
// seed state. Users are untouched; accounts outlive data resets.
func (s *Server) handleStateReset(w http.ResponseWriter, r *http.Request) {
	s.todos.Reset()
	s.log.Info("state reset", "todo_count", s.todos.Len())
	httputil.WriteOK(w, map[string]any{
		"status":     "reset",
		"todo_count": s.todos.Len(),
	})
}

// handleExport handles GET /export with a JSON snapshot of the todo
// store.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc := exportDocument{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		Todos:      s.todos.Snapshot(),
	}
	w.Header().Set("Content-Disposition", `attachment; filename="shelfd-export.json"`)
	httputil.WriteOK(w, doc)
}

// handleImport handles POST /import: replaces the todo store contents
// with the uploaded snapshot. Fresh IDs are assigned so identifiers
// stay monotonic across imports.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var doc exportDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		httputil.WriteBadRequest(w, "bad_request", "invalid JSON body")
		return
	}
	if doc.Version != "" && doc.Version != exportVersion {
		httputil.WriteBadRequest(w, "bad_request", "unsupported export version "+doc.Version)
		return
	}
	for i, t := range doc.Todos {
		if _, ok := validateTitle(t.Title); !ok {
			httputil.WriteBadRequest(w, "bad_request", "todos["+strconv.Itoa(i)+"]: title must be 1-500 characters")
			return
		}
	}

	imported := s.todos.Restore(doc.Todos)
	s.log.Info("state imported", "todo_count", len(imported))
	httputil.WriteOK(w, map[string]any{
		"status":     "imported",
		"todo_count": len(imported),
	})
}
