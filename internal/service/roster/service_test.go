package roster_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/ignite/newsletter-builder/internal/auth"
	"github.com/ignite/newsletter-builder/internal/domain"
	"github.com/ignite/newsletter-builder/internal/service/roster"
)

type memRepo struct {
	mu         sync.Mutex
	recipients map[string]bool
	users      map[string]domain.User
	batches    int
}

func newMemRepo() *memRepo {
	return &memRepo{recipients: make(map[string]bool), users: make(map[string]domain.User)}
}

func (m *memRepo) ListRecipients(_ context.Context, tenant string) ([]domain.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Recipient
	for e := range m.recipients {
		out = append(out, domain.Recipient{Tenant: tenant, Email: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *memRepo) ApplyRecipientBatch(_ context.Context, _ string, b roster.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(b.Removals)+len(b.Additions) > roster.MaxBatchOps {
		return errors.New("batch over transaction limit")
	}
	m.batches++
	for _, e := range b.Removals {
		delete(m.recipients, e)
	}
	for _, e := range b.Additions {
		m.recipients[e] = true
	}
	return nil
}

func (m *memRepo) ListUsers(_ context.Context, _ string) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memRepo) GetUser(_ context.Context, _, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *memRepo) ApplyUserBatch(_ context.Context, _ string, removals []string, additions []domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	for _, n := range removals {
		delete(m.users, n)
	}
	for _, u := range additions {
		m.users[u.Username] = u
	}
	return nil
}

func (m *memRepo) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return domain.ErrAlreadyExists
	}
	m.users[u.Username] = *u
	return nil
}

func (m *memRepo) DeleteUser(_ context.Context, _, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; !ok {
		return domain.ErrNotFound
	}
	delete(m.users, username)
	return nil
}

type fakeSuppressions struct{ set map[string]bool }

func (f *fakeSuppressions) SuppressedRecipients(_ context.Context) (map[string]bool, error) {
	return f.set, nil
}

const testTenant = "example.org"

var (
	editor = auth.Claims{Tenant: testTenant, Username: "alice", IsEditor: true}
	writer = auth.Claims{Tenant: testTenant, Username: "bob"}
)

func TestReplaceRecipients(t *testing.T) {
	repo := newMemRepo()
	repo.recipients["b@x.com"] = true
	repo.recipients["c@x.com"] = true
	svc := roster.NewService(repo, nil)

	d, err := svc.ReplaceRecipients(context.Background(), editor, []string{"a@x.com", "b@x.com"})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(d.Additions) != 1 || d.Additions[0] != "a@x.com" ||
		len(d.Removals) != 1 || d.Removals[0] != "c@x.com" {
		t.Fatalf("unexpected delta %+v", d)
	}
	got, _ := repo.ListRecipients(context.Background(), testTenant)
	if len(got) != 2 || got[0].Email != "a@x.com" || got[1].Email != "b@x.com" {
		t.Fatalf("stored set wrong: %v", got)
	}
}

func TestReplaceRecipientsIdempotent(t *testing.T) {
	repo := newMemRepo()
	svc := roster.NewService(repo, nil)
	desired := []string{"a@x.com", "b@x.com"}

	if _, err := svc.ReplaceRecipients(context.Background(), editor, desired); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	before := repo.batches
	d, err := svc.ReplaceRecipients(context.Background(), editor, desired)
	if err != nil {
		t.Fatalf("second replace: %v", err)
	}
	if !d.Empty() {
		t.Fatalf("second run should be a no-op, got %+v", d)
	}
	if repo.batches != before {
		t.Fatal("no-op reconciliation must not write any batch")
	}
}

func TestReplaceRecipientsFiltersSuppressed(t *testing.T) {
	repo := newMemRepo()
	sup := &fakeSuppressions{set: map[string]bool{"bounced@x.com": true}}
	svc := roster.NewService(repo, sup)

	d, err := svc.ReplaceRecipients(context.Background(), editor,
		[]string{"ok@x.com", "Bounced@X.com", "not-an-email"})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(d.Additions) != 1 || d.Additions[0] != "ok@x.com" {
		t.Fatalf("suppressed and invalid entries should be dropped, got %v", d.Additions)
	}
}

func TestReplaceRecipientsRefusesEmpty(t *testing.T) {
	repo := newMemRepo()
	repo.recipients["a@x.com"] = true
	svc := roster.NewService(repo, nil)

	_, err := svc.ReplaceRecipients(context.Background(), editor, []string{"junk", ""})
	if !errors.Is(err, roster.ErrEmptyRoster) {
		t.Fatalf("expected ErrEmptyRoster, got %v", err)
	}
	got, _ := repo.ListRecipients(context.Background(), testTenant)
	if len(got) != 1 {
		t.Fatal("stored set must be untouched")
	}
}

func TestReplaceRecipientsRequiresEditor(t *testing.T) {
	svc := roster.NewService(newMemRepo(), nil)
	if _, err := svc.ReplaceRecipients(context.Background(), writer, []string{"a@x.com"}); !errors.Is(err, roster.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestImportUsers(t *testing.T) {
	repo := newMemRepo()
	repo.users["alice"] = domain.User{Tenant: testTenant, Username: "alice", IsEditor: true}
	repo.users["carol"] = domain.User{Tenant: testTenant, Username: "carol"}
	svc := roster.NewService(repo, nil)

	d, err := svc.ImportUsers(context.Background(), editor, []domain.User{
		{Username: "Alice", IsEditor: true},
		{Username: "dave", FirstName: "Dave", DisplayName: "Dave D"},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(d.Additions) != 1 || d.Additions[0] != "dave" ||
		len(d.Removals) != 1 || d.Removals[0] != "carol" {
		t.Fatalf("unexpected delta %+v", d)
	}
	dave, err := repo.GetUser(context.Background(), testTenant, "dave")
	if err != nil {
		t.Fatalf("dave should exist: %v", err)
	}
	if dave.FirstName != "Dave" || dave.Tenant != testTenant {
		t.Fatalf("imported attributes lost: %+v", dave)
	}
}

func TestImportUsersCannotRemoveSelf(t *testing.T) {
	repo := newMemRepo()
	repo.users["alice"] = domain.User{Tenant: testTenant, Username: "alice", IsEditor: true}
	svc := roster.NewService(repo, nil)

	_, err := svc.ImportUsers(context.Background(), editor, []domain.User{{Username: "dave"}})
	if err == nil {
		t.Fatal("import removing the importer should be refused")
	}
	if _, err := repo.GetUser(context.Background(), testTenant, "alice"); err != nil {
		t.Fatal("roster must be untouched after a refused import")
	}
}

func TestCreateAndDeleteUser(t *testing.T) {
	repo := newMemRepo()
	svc := roster.NewService(repo, nil)

	if err := svc.CreateUser(context.Background(), editor, domain.User{Username: "Bob "}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.CreateUser(context.Background(), editor, domain.User{Username: "bob"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := svc.DeleteUser(context.Background(), editor, "alice"); err == nil {
		t.Fatal("self-deletion should be refused")
	}
	if err := svc.DeleteUser(context.Background(), editor, "bob"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
