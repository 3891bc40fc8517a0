package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/newsletter-builder/internal/auth"
	"github.com/ignite/newsletter-builder/internal/domain"
)

// Repository defines the row-store contract for events. Events carry no
// version token: approval is a one-way editor action and deletion is
// idempotent, so unconditional writes cannot lose a human edit.
type Repository interface {
	// GetEvent returns one event, or domain.ErrNotFound.
	GetEvent(ctx context.Context, tenant string, key domain.EventKey) (*domain.Event, error)

	// ListEvents returns events whose start date falls in [from, to].
	ListEvents(ctx context.Context, tenant, from, to string) ([]domain.Event, error)

	// CreateEvent inserts an event; domain.ErrAlreadyExists on collision.
	CreateEvent(ctx context.Context, e *domain.Event) error

	// UpdateEvent replaces an event unconditionally.
	UpdateEvent(ctx context.Context, e *domain.Event) error

	// DeleteEvent removes an event if present.
	DeleteEvent(ctx context.Context, tenant string, key domain.EventKey) error
}

// Service manages the tenant event calendar.
type Service struct {
	repo Repository
}

// NewService creates a calendar service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// defaultListWindow bounds a List call with no explicit end date.
const defaultListWindow = 365 * 24 * time.Hour

// List returns events starting in [from, to]. An empty from means today;
// an empty to means a year after from.
func (s *Service) List(ctx context.Context, c auth.Claims, from, to string) ([]domain.Event, error) {
	if from == "" {
		from = time.Now().UTC().Format("2006-01-02")
	}
	if !domain.ValidDate(from) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, from)
	}
	if to == "" {
		start, _ := time.Parse("2006-01-02", from)
		to = start.Add(defaultListWindow).Format("2006-01-02")
	}
	if !domain.ValidDate(to) || to < from {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, to)
	}
	return s.repo.ListEvents(ctx, c.Tenant, from, to)
}

// Create adds an event owned by the caller. Events created by editors are
// approved immediately; everyone else's await editorial approval.
func (s *Service) Create(ctx context.Context, c auth.Claims, key domain.EventKey) error {
	key.Title = strings.TrimSpace(key.Title)
	if key.Title == "" {
		return ErrInvalidTitle
	}
	if !domain.ValidDate(key.StartDate) {
		return fmt.Errorf("%w: start %q", ErrInvalidDate, key.StartDate)
	}
	if key.EndDate != "" {
		if !domain.ValidDate(key.EndDate) || key.EndDate < key.StartDate {
			return fmt.Errorf("%w: end %q", ErrInvalidDate, key.EndDate)
		}
	}
	e := &domain.Event{
		Tenant:     c.Tenant,
		Key:        key,
		Owner:      c.Username,
		IsApproved: c.IsEditor,
	}
	return s.repo.CreateEvent(ctx, e)
}

// Approve marks an event fit for publication.
func (s *Service) Approve(ctx context.Context, c auth.Claims, key domain.EventKey) error {
	if !c.IsEditor {
		return ErrForbidden
	}
	e, err := s.repo.GetEvent(ctx, c.Tenant, key)
	if err != nil {
		return err
	}
	e.IsApproved = true
	return s.repo.UpdateEvent(ctx, e)
}

// Delete removes an event. Owners may remove their own; editors any.
func (s *Service) Delete(ctx context.Context, c auth.Claims, key domain.EventKey) error {
	e, err := s.repo.GetEvent(ctx, c.Tenant, key)
	if err != nil {
		return err
	}
	if !c.IsEditor && e.Owner != c.Username {
		return ErrForbidden
	}
	return s.repo.DeleteEvent(ctx, c.Tenant, key)
}
