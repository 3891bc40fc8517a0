package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/newsletter-builder/internal/domain"
	"github.com/ignite/newsletter-builder/internal/pkg/httputil"
)

func (s *Server) listRecipients(w http.ResponseWriter, r *http.Request) {
	recipients, err := s.roster.ListRecipients(r.Context(), claims(r))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, recipients)
}

// replaceRecipients reconciles the stored recipient set against an uploaded
// list and reports what changed.
func (s *Server) replaceRecipients(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recipients []string `json:"recipients"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	delta, err := s.roster.ReplaceRecipients(r.Context(), claims(r), req.Recipients)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"added":   len(delta.Additions),
		"removed": len(delta.Removals),
	})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.roster.ListUsers(r.Context(), claims(r))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, users)
}

func (s *Server) importUsers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Users []domain.User `json:"users"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	delta, err := s.roster.ImportUsers(r.Context(), claims(r), req.Users)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"added":   len(delta.Additions),
		"removed": len(delta.Removals),
	})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var u domain.User
	if !httputil.Decode(w, r, &u) {
		return
	}
	if err := s.roster.CreateUser(r.Context(), claims(r), u); err != nil {
		writeError(w, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, map[string]string{"username": u.Username})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.roster.DeleteUser(r.Context(), claims(r), chi.URLParam(r, "username")); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}
