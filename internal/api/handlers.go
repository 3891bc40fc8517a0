package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/newsletter-builder/internal/auth"
	"github.com/ignite/newsletter-builder/internal/domain"
)

// claims extracts the identity the middleware stored. The /api router
// guarantees presence.
func claims(r *http.Request) auth.Claims {
	c, _ := auth.FromContext(r.Context())
	return c
}

// issueDate reads and validates the {date} route parameter.
func issueDate(r *http.Request) (string, error) {
	date := chi.URLParam(r, "date")
	if !domain.ValidDate(date) {
		return "", fmt.Errorf("invalid issue date %q", date)
	}
	return date, nil
}

// articleKey reads the {date}/{shortName} route parameters.
func articleKey(r *http.Request) (domain.ArticleKey, error) {
	date, err := issueDate(r)
	if err != nil {
		return domain.ArticleKey{}, err
	}
	short := chi.URLParam(r, "shortName")
	if short == "" {
		return domain.ArticleKey{}, fmt.Errorf("article short name required")
	}
	return domain.ArticleKey{Date: date, ShortName: short}, nil
}

// articleKeyFor builds a key from an issue date and a request-supplied
// short name.
func articleKeyFor(date, shortName string) (domain.ArticleKey, error) {
	if shortName == "" {
		return domain.ArticleKey{}, fmt.Errorf("article short name required")
	}
	return domain.ArticleKey{Date: date, ShortName: shortName}, nil
}

// versionRequest is the body of mutations guarded only by a version token.
type versionRequest struct {
	Version string `json:"version"`
}

// versionResponse returns the fresh token after a successful write.
type versionResponse struct {
	Version string `json:"version"`
}
