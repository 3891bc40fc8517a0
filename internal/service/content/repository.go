package content

import (
	"context"
	"io"
	"time"

	"github.com/ignite/newsletter-builder/internal/domain"
)

// Repository defines the row-store contract for the content lifecycle.
// Implementations must be safe for concurrent use.
//
// Version discipline: Create* and Update* assign a fresh version token and
// UpdatedAt to the passed entity on success. Update* and DeleteArticle take
// an expected version; a non-empty value makes the write conditional and a
// mismatch returns domain.ErrVersionConflict with nothing applied. The empty
// string requests an unconditional write, permitted only for server-derived
// mutations that no concurrent human edit can race (see package doc).
type Repository interface {
	// GetArticle returns one article, or domain.ErrNotFound.
	GetArticle(ctx context.Context, tenant string, key domain.ArticleKey) (*domain.Article, error)

	// ListArticles returns the articles of one issue when date is set, or
	// all articles from today's issues onward when date is empty.
	ListArticles(ctx context.Context, tenant, date string) ([]domain.Article, error)

	// CreateArticle inserts a new article; domain.ErrAlreadyExists on key collision.
	CreateArticle(ctx context.Context, a *domain.Article) error

	// UpdateArticle replaces an article conditioned on expectedVersion.
	UpdateArticle(ctx context.Context, a *domain.Article, expectedVersion string) error

	// DeleteArticle removes an article, conditionally when expectedVersion is set.
	DeleteArticle(ctx context.Context, tenant string, key domain.ArticleKey, expectedVersion string) error

	// GetNewsletter returns one issue, or domain.ErrNotFound.
	GetNewsletter(ctx context.Context, tenant, date string) (*domain.Newsletter, error)

	// ListNewsletters returns issues dated today or later.
	ListNewsletters(ctx context.Context, tenant string) ([]domain.Newsletter, error)

	// CreateNewsletter inserts a new issue; domain.ErrAlreadyExists on date collision.
	CreateNewsletter(ctx context.Context, n *domain.Newsletter) error

	// UpdateNewsletter replaces an issue conditioned on expectedVersion.
	UpdateNewsletter(ctx context.Context, n *domain.Newsletter, expectedVersion string) error

	// DeleteNewsletter removes an issue.
	DeleteNewsletter(ctx context.Context, tenant, date string) error

	// MoveArticle relocates an article between issues in two atomic phases:
	// first a transaction on the article partition (insert under the new
	// key, which must not exist, plus a version-conditioned delete of the
	// old key — both or neither), then a transaction on the newsletter
	// partition replacing source and dest together, each conditioned on its
	// own version. The first phase must commit before the second is
	// attempted; a failure in either phase applies nothing from that phase.
	MoveArticle(ctx context.Context, tenant string, oldKey domain.ArticleKey, moved *domain.Article, source, dest *domain.Newsletter) error

	// GetUser returns one user, or domain.ErrNotFound. Used to validate
	// contributor sets.
	GetUser(ctx context.Context, tenant, username string) (*domain.User, error)
}

// ImageStore defines the blob-store contract for article photographs.
// Blob state never gates row-store correctness: callers treat failures here
// as reconcilable downstream effects.
type ImageStore interface {
	// Exists reports whether an image blob is present under the article's namespace.
	Exists(ctx context.Context, tenant string, key domain.ArticleKey, imageName string) (bool, error)

	// Upload stores an image blob with its content type.
	Upload(ctx context.Context, tenant string, key domain.ArticleKey, imageName, contentType string, body io.Reader) error

	// Delete removes one image blob if present.
	Delete(ctx context.Context, tenant string, key domain.ArticleKey, imageName string) error

	// DeleteAll removes every image blob under the article's namespace.
	DeleteAll(ctx context.Context, tenant string, key domain.ArticleKey) error

	// Relocate copies every blob from the old article namespace to the new
	// one, deleting each original only after its copy is confirmed. An
	// interrupted relocation leaves orphans under the old namespace for the
	// cleanup sweep; it never loses data.
	Relocate(ctx context.Context, tenant string, oldKey, newKey domain.ArticleKey) error

	// PublishApproved copies the named images, in order, into the public
	// namespace under positional render names.
	PublishApproved(ctx context.Context, tenant string, key domain.ArticleKey, imageOrder []string) error

	// SignedURL returns a time-boxed read URL for one image blob.
	SignedURL(ctx context.Context, tenant string, key domain.ArticleKey, imageName string, ttl time.Duration) (string, error)
}
