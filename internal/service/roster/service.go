package roster

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ignite/newsletter-builder/internal/auth"
	"github.com/ignite/newsletter-builder/internal/domain"
	"github.com/ignite/newsletter-builder/internal/pkg/logger"
)

var usernameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Service reconciles recipient and user membership for a tenant.
type Service struct {
	repo         Repository
	suppressions SuppressionSource
}

// NewService creates a roster service. suppressions may be nil, in which
// case recipient uploads are not filtered.
func NewService(repo Repository, suppressions SuppressionSource) *Service {
	return &Service{repo: repo, suppressions: suppressions}
}

// ListRecipients returns the tenant's stored recipient set.
func (s *Service) ListRecipients(ctx context.Context, c auth.Claims) ([]domain.Recipient, error) {
	if !c.IsEditor {
		return nil, ErrForbidden
	}
	return s.repo.ListRecipients(ctx, c.Tenant)
}

// ReplaceRecipients reconciles the stored recipient set to the desired one.
// Addresses are canonicalized; entries that are not plausible email
// addresses are dropped, as are addresses on the mailer's suppression set.
// The committed delta is returned. Replacing with an effectively empty set
// is refused so a bad upload cannot wipe the list.
func (s *Service) ReplaceRecipients(ctx context.Context, c auth.Claims, desired []string) (Delta, error) {
	if !c.IsEditor {
		return Delta{}, ErrForbidden
	}

	valid := make([]string, 0, len(desired))
	dropped := 0
	for _, addr := range desired {
		addr = Canonical(addr)
		if addr == "" {
			continue
		}
		if !strings.Contains(addr, "@") {
			dropped++
			continue
		}
		valid = append(valid, addr)
	}

	suppressed := 0
	if s.suppressions != nil {
		sup, err := s.suppressions.SuppressedRecipients(ctx)
		if err != nil {
			return Delta{}, fmt.Errorf("fetching suppression set: %w", err)
		}
		kept := valid[:0]
		for _, addr := range valid {
			if sup[addr] {
				suppressed++
				continue
			}
			kept = append(kept, addr)
		}
		valid = kept
	}
	if dropped > 0 || suppressed > 0 {
		logger.Info("recipient upload filtered", "tenant", c.Tenant,
			"invalid", dropped, "suppressed", suppressed)
	}
	if len(valid) == 0 {
		return Delta{}, ErrEmptyRoster
	}

	current, err := s.repo.ListRecipients(ctx, c.Tenant)
	if err != nil {
		return Delta{}, err
	}
	stored := make([]string, 0, len(current))
	for _, r := range current {
		stored = append(stored, r.Email)
	}

	d := Diff(valid, stored)
	for _, b := range Batches(d) {
		if err := s.repo.ApplyRecipientBatch(ctx, c.Tenant, b); err != nil {
			return Delta{}, fmt.Errorf("applying recipient batch: %w", err)
		}
	}
	logger.Info("recipients reconciled", "tenant", c.Tenant,
		"added", len(d.Additions), "removed", len(d.Removals))
	return d, nil
}

// ListUsers returns the tenant's user roster.
func (s *Service) ListUsers(ctx context.Context, c auth.Claims) ([]domain.User, error) {
	return s.repo.ListUsers(ctx, c.Tenant)
}

// ImportUsers reconciles the user roster to the desired set, keyed by
// canonical username. Users present in both sets keep their stored
// attributes; only membership changes are applied. An import that would
// remove the importing user is refused.
func (s *Service) ImportUsers(ctx context.Context, c auth.Claims, desired []domain.User) (Delta, error) {
	if !c.IsEditor {
		return Delta{}, ErrForbidden
	}

	byName := make(map[string]domain.User, len(desired))
	names := make([]string, 0, len(desired))
	for _, u := range desired {
		name := Canonical(u.Username)
		if !usernameRe.MatchString(name) {
			return Delta{}, fmt.Errorf("%w: %q", ErrInvalidUsername, u.Username)
		}
		u.Tenant = c.Tenant
		u.Username = name
		byName[name] = u
		names = append(names, name)
	}

	current, err := s.repo.ListUsers(ctx, c.Tenant)
	if err != nil {
		return Delta{}, err
	}
	stored := make([]string, 0, len(current))
	for _, u := range current {
		stored = append(stored, u.Username)
	}

	d := Diff(names, stored)
	for _, name := range d.Removals {
		if name == Canonical(c.Username) {
			return Delta{}, fmt.Errorf("import would remove the importing user %q", c.Username)
		}
	}

	for _, b := range Batches(d) {
		additions := make([]domain.User, 0, len(b.Additions))
		for _, name := range b.Additions {
			additions = append(additions, byName[name])
		}
		if err := s.repo.ApplyUserBatch(ctx, c.Tenant, b.Removals, additions); err != nil {
			return Delta{}, fmt.Errorf("applying user batch: %w", err)
		}
	}
	logger.Info("user roster reconciled", "tenant", c.Tenant,
		"added", len(d.Additions), "removed", len(d.Removals))
	return d, nil
}

// CreateUser adds one user to the roster.
func (s *Service) CreateUser(ctx context.Context, c auth.Claims, u domain.User) error {
	if !c.IsEditor {
		return ErrForbidden
	}
	u.Tenant = c.Tenant
	u.Username = Canonical(u.Username)
	if !usernameRe.MatchString(u.Username) {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, u.Username)
	}
	return s.repo.CreateUser(ctx, &u)
}

// DeleteUser removes one user from the roster. Users cannot remove
// themselves.
func (s *Service) DeleteUser(ctx context.Context, c auth.Claims, username string) error {
	if !c.IsEditor {
		return ErrForbidden
	}
	username = Canonical(username)
	if username == Canonical(c.Username) {
		return fmt.Errorf("cannot delete your own account")
	}
	return s.repo.DeleteUser(ctx, c.Tenant, username)
}
