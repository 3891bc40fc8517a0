package api

import (
	"net/http"

	"github.com/ignite/newsletter-builder/internal/domain"
	"github.com/ignite/newsletter-builder/internal/pkg/httputil"
)

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := s.calendar.List(r.Context(), claims(r), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, events)
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var key domain.EventKey
	if !httputil.Decode(w, r, &key) {
		return
	}
	if err := s.calendar.Create(r.Context(), claims(r), key); err != nil {
		writeError(w, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, key)
}

func (s *Server) approveEvent(w http.ResponseWriter, r *http.Request) {
	var key domain.EventKey
	if !httputil.Decode(w, r, &key) {
		return
	}
	if err := s.calendar.Approve(r.Context(), claims(r), key); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	var key domain.EventKey
	if !httputil.Decode(w, r, &key) {
		return
	}
	if err := s.calendar.Delete(r.Context(), claims(r), key); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}
