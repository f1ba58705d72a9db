package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shelfd/shelfd/pkg/httputil"
)

// maxTitleLen bounds todo titles.
const maxTitleLen = 500

// defaultListLimit applies when no limit query parameter is given.
const defaultListLimit = 100

// Todo is the primary resource. IDs are assigned by the store and never
// reused.
type Todo struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WithID returns a copy of the todo with the given ID.
func (t Todo) WithID(id uint64) Todo {
	t.ID = id
	return t
}

// todoFeed forwards store mutations to the SSE hub and the change
// counter. Callbacks run outside the store lock.
type todoFeed struct {
	server *Server
}

func (f *todoFeed) RecordCreated(id uint64) { f.publish("created", id) }
func (f *todoFeed) RecordUpdated(id uint64) { f.publish("updated", id) }
func (f *todoFeed) RecordDeleted(id uint64) { f.publish("deleted", id) }

func (f *todoFeed) publish(action string, id uint64) {
	_ = f.server.recordEvents.Inc(action)
	f.server.hub.Publish(sseEvent("todo."+action, map[string]uint64{"id": id}))
}

// createTodoRequest is the POST /todos body. Any client-supplied ID is
// ignored; the store assigns identifiers.
type createTodoRequest struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// replaceTodoRequest is the PUT /todos/{id} body.
type replaceTodoRequest struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// patchTodoRequest is the PATCH /todos/{id} body. Absent fields keep
// their current value.
type patchTodoRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

// todoListResponse is the GET /todos envelope.
type todoListResponse struct {
	Todos  []Todo `json:"todos"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

func validateTitle(title string) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTitleLen {
		return "", false
	}
	return title, true
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	return id, err == nil
}

// handleCreateTodo handles POST /todos.
func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "bad_request", "invalid JSON body")
		return
	}
	title, ok := validateTitle(req.Title)
	if !ok {
		httputil.WriteBadRequest(w, "bad_request", "title must be 1-500 characters")
		return
	}

	now := time.Now().UTC()
	todo := s.todos.Create(Todo{
		Title:     title,
		Completed: req.Completed,
		CreatedAt: now,
		UpdatedAt: now,
	})
	httputil.WriteCreated(w, todo)
}

// handleListTodos handles GET /todos with limit/offset pagination over
// a consistent snapshot.
func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	offset := 0

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.WriteBadRequest(w, "bad_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.WriteBadRequest(w, "bad_request", "offset must be a non-negative integer")
			return
		}
		offset = n
	}

	all := s.todos.List()
	total := len(all)

	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := all[offset:end]

	httputil.WriteOK(w, todoListResponse{
		Todos:  page,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// handleGetTodo handles GET /todos/{id}.
func (s *Server) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.WriteBadRequest(w, "bad_request", "id must be a positive integer")
		return
	}
	todo, err := s.todos.Get(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	httputil.WriteOK(w, todo)
}

// handleReplaceTodo handles PUT /todos/{id}, replacing title and
// completion while keeping identity and creation time.
func (s *Server) handleReplaceTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.WriteBadRequest(w, "bad_request", "id must be a positive integer")
		return
	}
	var req replaceTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "bad_request", "invalid JSON body")
		return
	}
	title, okTitle := validateTitle(req.Title)
	if !okTitle {
		httputil.WriteBadRequest(w, "bad_request", "title must be 1-500 characters")
		return
	}

	todo, err := s.todos.Mutate(id, func(t Todo) Todo {
		t.Title = title
		t.Completed = req.Completed
		t.UpdatedAt = time.Now().UTC()
		return t
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	httputil.WriteOK(w, todo)
}

// handlePatchTodo handles PATCH /todos/{id} with partial updates.
func (s *Server) handlePatchTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.WriteBadRequest(w, "bad_request", "id must be a positive integer")
		return
	}
	var req patchTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "bad_request", "invalid JSON body")
		return
	}

	var title string
	if req.Title != nil {
		var okTitle bool
		title, okTitle = validateTitle(*req.Title)
		if !okTitle {
			httputil.WriteBadRequest(w, "bad_request", "title must be 1-500 characters")
			return
		}
	}

	todo, err := s.todos.Mutate(id, func(t Todo) Todo {
		if req.Title != nil {
			t.Title = title
		}
		if req.Completed != nil {
			t.Completed = *req.Completed
		}
		t.UpdatedAt = time.Now().UTC()
		return t
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	httputil.WriteOK(w, todo)
}

// handleDeleteTodo handles DELETE /todos/{id}. Deleting twice reports
// not found the second time.
func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.WriteBadRequest(w, "bad_request", "id must be a positive integer")
		return
	}
	if err := s.todos.Delete(id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
