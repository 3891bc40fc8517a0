// Package api exposes the newsletter engine over HTTP. Routes live under
// /api behind the identity-provider claims middleware; authorization beyond
// the editor gate stays in the service layer.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/newsletter-builder/internal/ai"
	"github.com/ignite/newsletter-builder/internal/service/calendar"
	"github.com/ignite/newsletter-builder/internal/service/content"
	"github.com/ignite/newsletter-builder/internal/service/publish"
	"github.com/ignite/newsletter-builder/internal/service/roster"
)

// Server is the HTTP front of the engine.
type Server struct {
	content   *content.Service
	publish   *publish.Service
	roster    *roster.Service
	calendar  *calendar.Service
	assistant ai.Assistant

	router *chi.Mux
	server *http.Server
}

// NewServer wires the services into a router.
func NewServer(contentSvc *content.Service, publishSvc *publish.Service, rosterSvc *roster.Service, calendarSvc *calendar.Service, assistant ai.Assistant) *Server {
	s := &Server{
		content:   contentSvc,
		publish:   publishSvc,
		roster:    rosterSvc,
		calendar:  calendarSvc,
		assistant: assistant,
	}
	s.router = s.routes()
	s.server = &http.Server{
		Handler:           s.router,
		ReadTimeout:       time.Minute,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// ListenAndServe starts the HTTP server on addr. Write timeouts stay
// generous for the streamed send-progress and review responses.
func (s *Server) ListenAndServe(addr string) error {
	s.server.Addr = addr
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
