package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shelfd/shelfd/pkg/auth"
	"github.com/shelfd/shelfd/pkg/httputil"
)

// minPasswordLen is the minimum accepted password length.
const minPasswordLen = 8

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresIn int       `json:"expires_in"`
	User      auth.User `json:"user"`
}

// handleRegister handles POST /auth/register. New accounts always get
// the user role; admins come from the bootstrap config.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "bad_request", "invalid JSON body")
		return
	}
	if !strings.Contains(req.Email, "@") {
		httputil.WriteBadRequest(w, "bad_request", "email must be a valid address")
		return
	}
	if len(req.Password) < minPasswordLen {
		httputil.WriteBadRequest(w, "bad_request", "password must be at least 8 characters")
		return
	}

	user, err := s.users.Register(req.Email, req.Password, auth.RoleUser)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.log.Info("user registered", "user_id", user.ID)
	httputil.WriteCreated(w, user)
}

// handleLogin handles POST /auth/login and issues an access token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.authn == nil {
		httputil.WriteServiceUnavailable(w, "auth_disabled", "no signing secret configured")
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "bad_request", "invalid JSON body")
		return
	}

	user, err := s.users.Authenticate(req.Email, req.Password)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	token, err := s.authn.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		s.log.Error("token issuance failed", "error", err)
		httputil.WriteInternalError(w, "internal_error", "failed to issue token")
		return
	}

	httputil.WriteOK(w, tokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(s.authn.TTL().Seconds()),
		User:      user,
	})
}

// handleMe handles GET /auth/me for the authenticated user.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		// Auth disabled: there is no caller identity to report.
		httputil.WriteServiceUnavailable(w, "auth_disabled", "no signing secret configured")
		return
	}

	id, err := claims.UserID()
	if err != nil {
		s.writeDomainError(w, auth.ErrInvalidToken)
		return
	}
	user, err := s.users.Get(id)
	if err != nil {
		// Account deleted after the token was issued.
		s.writeDomainError(w, auth.ErrInvalidToken)
		return
	}
	httputil.WriteOK(w, user)
}

// handleListUsers handles GET /users (admin).
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users := s.users.List()
	httputil.WriteOK(w, map[string]any{
		"users": users,
		"total": len(users),
	})
}

// handleGetUser handles GET /users/{id} (admin).
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.WriteBadRequest(w, "bad_request", "id must be a positive integer")
		return
	}
	user, err := s.users.Get(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	httputil.WriteOK(w, user)
}

// handleDeleteUser handles DELETE /users/{id} (admin).
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httputil.WriteBadRequest(w, "bad_request", "id must be a positive integer")
		return
	}
	if err := s.users.Delete(id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
