package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/newsletter-builder/internal/auth"
)

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*.newsletter-builder.org", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Auth-Tenant", "X-Auth-User", "X-Auth-Role"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Route("/newsletters", func(r chi.Router) {
			r.Get("/", s.listNewsletters)
			r.Post("/", s.createNewsletter)
			r.Route("/{date}", func(r chi.Router) {
				r.Get("/", s.getNewsletter)
				r.Delete("/", s.deleteNewsletter)
				r.Put("/order", s.reorderNewsletter)
				r.Put("/cover-photo", s.setCoverPhoto)
				r.Get("/images", s.listIssueImages)
				r.Post("/publish", s.publishNewsletter)
				r.Post("/send", s.sendNewsletter)
				r.Get("/articles", s.listIssueArticles)
				r.Post("/articles", s.createArticle)
			})
		})

		r.Get("/articles", s.listUpcomingArticles)
		r.Route("/articles/{date}/{shortName}", func(r chi.Router) {
			r.Get("/", s.getArticle)
			r.Delete("/", s.deleteArticle)
			r.Put("/content", s.editContent)
			r.Post("/submit", s.submitArticle)
			r.Post("/unsubmit", s.unsubmitArticle)
			r.Post("/approve", s.approveArticle)
			r.Post("/unapprove", s.unapproveArticle)
			r.Post("/move", s.moveArticle)
			r.Post("/images", s.uploadImage)
			r.Delete("/images/{image}", s.deleteImage)
			r.Get("/images/{image}/url", s.imageURL)
		})

		r.Route("/assistant", func(r chi.Router) {
			r.Post("/describe", s.describePhoto)
			r.Post("/draft", s.draftArticle)
			r.Post("/review", s.reviewArticle)
		})

		r.Route("/recipients", func(r chi.Router) {
			r.Get("/", s.listRecipients)
			r.Put("/", s.replaceRecipients)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.listUsers)
			r.Put("/", s.importUsers)
			r.Post("/", s.createUser)
			r.Delete("/{username}", s.deleteUser)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.listEvents)
			r.Post("/", s.createEvent)
			r.Post("/approve", s.approveEvent)
			r.Delete("/", s.deleteEvent)
		})
	})

	return r
}
