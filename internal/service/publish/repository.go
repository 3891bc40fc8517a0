package publish

import (
	"context"

	"github.com/ignite/newsletter-builder/internal/config"
	"github.com/ignite/newsletter-builder/internal/domain"
)

// Repository is the slice of the row store the publish gate needs.
// UpdateNewsletter follows the conditional-write contract of the content
// repository: a non-empty expectedVersion makes the write a compare-and-swap.
type Repository interface {
	GetNewsletter(ctx context.Context, tenant, date string) (*domain.Newsletter, error)
	UpdateNewsletter(ctx context.Context, n *domain.Newsletter, expectedVersion string) error
	ListArticles(ctx context.Context, tenant, date string) ([]domain.Article, error)
	ListRecipients(ctx context.Context, tenant string) ([]domain.Recipient, error)
	GetUser(ctx context.Context, tenant, username string) (*domain.User, error)
}

// IssueListEntry is one row of a tenant's public issue index (list.json).
type IssueListEntry struct {
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	CoverPhoto  string `json:"coverPhoto,omitempty"`
}

// SiteStore is the public blob namespace issues are rendered into. Pages
// live under the issue date; the issue index lives at the tenant root.
type SiteStore interface {
	// PutPage writes one rendered page of an issue.
	PutPage(ctx context.Context, tenant, date, name, contentType string, body []byte) error

	// GetPage reads back a rendered page, or domain.ErrNotFound.
	GetPage(ctx context.Context, tenant, date, name string) ([]byte, error)

	// GetIssueList reads the tenant's public issue index; an absent index
	// returns an empty list, not an error.
	GetIssueList(ctx context.Context, tenant string) ([]IssueListEntry, error)

	// PutIssueList replaces the tenant's public issue index.
	PutIssueList(ctx context.Context, tenant string, entries []IssueListEntry) error
}

// Rendition is an issue rendered for the web and for email.
type Rendition struct {
	Page      []byte // standalone web page
	EmailHTML []byte
	EmailText []byte
}

// Formatter renders a published issue. Implementations receive the full
// article set in issue order, intro first.
type Formatter interface {
	Render(org *config.Organisation, n *domain.Newsletter, articles []domain.Article) (*Rendition, error)
}
