package content

import "errors"

// Sentinel errors for the content service layer. Storage-contract failures
// (not found, stale version, duplicate key) surface as the domain sentinels;
// these cover the invariants this service enforces on top.
var (
	ErrForbidden          = errors.New("not allowed to modify this article")
	ErrInvalidOrder       = errors.New("article order does not match the newsletter's articles")
	ErrIntroReserved      = errors.New("the intro article cannot be deleted or moved")
	ErrNewsletterNotEmpty = errors.New("cannot delete newsletter which contains articles")
	ErrMissingContent     = errors.New("article content is missing")
	ErrNoContributors     = errors.New("contributors required")
	ErrUnknownContributor = errors.New("contributor is not a user of this organisation")
	ErrInvalidImage       = errors.New("image does not exist")
	ErrSourceMissing      = errors.New("source newsletter does not exist")
	ErrDestMissing        = errors.New("destination newsletter does not exist")
)
