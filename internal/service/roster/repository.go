package roster

import (
	"context"

	"github.com/ignite/newsletter-builder/internal/domain"
)

// Repository defines the row-store contract for membership sets.
// Batch methods apply each Batch atomically: removals first, then
// additions, all-or-nothing, never more than MaxBatchOps operations.
type Repository interface {
	// ListRecipients returns the tenant's stored recipient set.
	ListRecipients(ctx context.Context, tenant string) ([]domain.Recipient, error)

	// ApplyRecipientBatch commits one reconciliation chunk against the
	// recipient set. Batch keys are canonical email addresses.
	ApplyRecipientBatch(ctx context.Context, tenant string, b Batch) error

	// ListUsers returns the tenant's user roster.
	ListUsers(ctx context.Context, tenant string) ([]domain.User, error)

	// GetUser returns one user, or domain.ErrNotFound.
	GetUser(ctx context.Context, tenant, username string) (*domain.User, error)

	// ApplyUserBatch commits one reconciliation chunk against the user
	// roster. Added users carry their imported attributes.
	ApplyUserBatch(ctx context.Context, tenant string, removals []string, additions []domain.User) error

	// CreateUser inserts one user; domain.ErrAlreadyExists on collision.
	CreateUser(ctx context.Context, u *domain.User) error

	// DeleteUser removes one user; domain.ErrNotFound if absent.
	DeleteUser(ctx context.Context, tenant, username string) error
}

// SuppressionSource supplies the mailer's current suppression set, as
// canonical email addresses. Suppressed addresses are kept out of the
// recipient set so bulk uploads cannot resurrect a bounced address.
type SuppressionSource interface {
	SuppressedRecipients(ctx context.Context) (map[string]bool, error)
}
