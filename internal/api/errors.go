package api

import (
	"errors"
	"net/http"

	"github.com/ignite/newsletter-builder/internal/ai"
	"github.com/ignite/newsletter-builder/internal/domain"
	"github.com/ignite/newsletter-builder/internal/pkg/httputil"
	"github.com/ignite/newsletter-builder/internal/service/calendar"
	"github.com/ignite/newsletter-builder/internal/service/content"
	"github.com/ignite/newsletter-builder/internal/service/publish"
	"github.com/ignite/newsletter-builder/internal/service/roster"
)

// writeError maps service sentinels onto HTTP statuses. Anything unmapped
// is an internal error and stays out of the response body.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, content.ErrSourceMissing),
		errors.Is(err, content.ErrDestMissing):
		httputil.NotFound(w, err.Error())

	case errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, publish.ErrAlreadySent),
		errors.Is(err, publish.ErrStaleContent):
		httputil.Conflict(w, err.Error())

	case errors.Is(err, content.ErrForbidden),
		errors.Is(err, roster.ErrForbidden),
		errors.Is(err, publish.ErrForbidden),
		errors.Is(err, calendar.ErrForbidden):
		httputil.Forbidden(w)

	case errors.Is(err, content.ErrInvalidOrder),
		errors.Is(err, content.ErrIntroReserved),
		errors.Is(err, content.ErrNewsletterNotEmpty),
		errors.Is(err, content.ErrMissingContent),
		errors.Is(err, content.ErrNoContributors),
		errors.Is(err, content.ErrUnknownContributor),
		errors.Is(err, content.ErrInvalidImage),
		errors.Is(err, roster.ErrInvalidUsername),
		errors.Is(err, roster.ErrEmptyRoster),
		errors.Is(err, publish.ErrNoCoverPhoto),
		errors.Is(err, publish.ErrUnapproved),
		errors.Is(err, publish.ErrNotPublished),
		errors.Is(err, publish.ErrBeforeCutoff),
		errors.Is(err, publish.ErrNoRecipients),
		errors.Is(err, publish.ErrUnknownAudience),
		errors.Is(err, calendar.ErrInvalidDate),
		errors.Is(err, calendar.ErrInvalidTitle):
		httputil.BadRequest(w, err.Error())

	case errors.Is(err, ai.ErrDisabled):
		httputil.NotFound(w, err.Error())

	case errors.Is(err, domain.ErrDownstream):
		// The row-store change committed; only the follow-up effect failed.
		httputil.Error(w, http.StatusBadGateway, err.Error())

	default:
		httputil.InternalError(w, err)
	}
}
