package publish_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ignite/newsletter-builder/internal/auth"
	"github.com/ignite/newsletter-builder/internal/config"
	"github.com/ignite/newsletter-builder/internal/domain"
	"github.com/ignite/newsletter-builder/internal/mailing"
	"github.com/ignite/newsletter-builder/internal/service/publish"
)

const testTenant = "example.org"

var editor = auth.Claims{Tenant: testTenant, Username: "alice", IsEditor: true}

type memRepo struct {
	mu          sync.Mutex
	seq         int
	newsletters map[string]*domain.Newsletter
	articles    []domain.Article
	recipients  []domain.Recipient
}

func newMemRepo() *memRepo {
	return &memRepo{newsletters: make(map[string]*domain.Newsletter)}
}

func (m *memRepo) putNewsletter(n domain.Newsletter) {
	m.seq++
	n.Tenant = testTenant
	n.Version = fmt.Sprintf("v%d", m.seq)
	m.newsletters[n.Date] = &n
}

func (m *memRepo) GetNewsletter(_ context.Context, _, date string) (*domain.Newsletter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.newsletters[date]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *memRepo) UpdateNewsletter(_ context.Context, n *domain.Newsletter, expectedVersion string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.newsletters[n.Date]
	if !ok {
		return domain.ErrNotFound
	}
	if expectedVersion != "" && cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	m.seq++
	n.Version = fmt.Sprintf("v%d", m.seq)
	cp := *n
	m.newsletters[n.Date] = &cp
	return nil
}

func (m *memRepo) ListArticles(_ context.Context, _, date string) ([]domain.Article, error) {
	var out []domain.Article
	for _, a := range m.articles {
		if a.Key.Date == date {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memRepo) ListRecipients(_ context.Context, _ string) ([]domain.Recipient, error) {
	return m.recipients, nil
}

func (m *memRepo) GetUser(_ context.Context, _, username string) (*domain.User, error) {
	return &domain.User{Tenant: testTenant, Username: username}, nil
}

type memSite struct {
	pages map[string][]byte
	list  []publish.IssueListEntry
}

func newMemSite() *memSite { return &memSite{pages: make(map[string][]byte)} }

func (m *memSite) PutPage(_ context.Context, tenant, date, name, _ string, body []byte) error {
	m.pages[tenant+"/"+date+"/"+name] = body
	return nil
}

func (m *memSite) GetPage(_ context.Context, tenant, date, name string) ([]byte, error) {
	b, ok := m.pages[tenant+"/"+date+"/"+name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (m *memSite) GetIssueList(_ context.Context, _ string) ([]publish.IssueListEntry, error) {
	return m.list, nil
}

func (m *memSite) PutIssueList(_ context.Context, _ string, entries []publish.IssueListEntry) error {
	m.list = entries
	return nil
}

type stubFormatter struct{}

func (stubFormatter) Render(_ *config.Organisation, n *domain.Newsletter, articles []domain.Article) (*publish.Rendition, error) {
	var names []string
	for _, a := range articles {
		names = append(names, a.Key.ShortName)
	}
	body := n.Date + ":" + strings.Join(names, ",")
	return &publish.Rendition{
		Page:      []byte("<html>" + body),
		EmailHTML: []byte("<email>" + body),
		EmailText: []byte(body),
	}, nil
}

type fakeMailer struct {
	sent       []mailing.Message
	queue      []mailing.Message
	suppressed map[string]bool
}

func (f *fakeMailer) Enqueue(m mailing.Message) { f.queue = append(f.queue, m) }

func (f *fakeMailer) Flush(_ context.Context) (int, error) {
	n := len(f.queue)
	f.sent = append(f.sent, f.queue...)
	f.queue = nil
	return n, nil
}

func (f *fakeMailer) SuppressedRecipients(_ context.Context) (map[string]bool, error) {
	if f.suppressed == nil {
		return map[string]bool{}, nil
	}
	return f.suppressed, nil
}

func testOrgs(t *testing.T) *config.Organisations {
	t.Helper()
	orgs, err := config.NewOrganisations([]config.Organisation{{
		Name:                  "Example School",
		Domain:                testTenant,
		NewsletterURL:         "https://news.example.org/",
		FromEmail:             "news@example.org",
		QualityAssuranceEmail: "qa@example.org",
		SocialMediaEmail:      "social@example.org",
	}})
	if err != nil {
		t.Fatalf("orgs: %v", err)
	}
	return orgs
}

func fixture(t *testing.T) (*publish.Service, *memRepo, *memSite, *fakeMailer) {
	t.Helper()
	repo := newMemRepo()
	site := newMemSite()
	mailer := &fakeMailer{}
	svc := publish.NewService(repo, site, stubFormatter{}, mailer, testOrgs(t))
	return svc, repo, site, mailer
}

func seedPublishable(repo *memRepo, date string) {
	past := time.Now().Add(-time.Hour)
	repo.putNewsletter(domain.Newsletter{
		Date:          date,
		ArticleOrder:  []string{"chess"},
		CoverPhoto:    "cover.jpg",
		Description:   "Autumn issue",
		LastPublished: &past,
	})
	repo.articles = []domain.Article{
		{Tenant: testTenant, Key: domain.ArticleKey{Date: date, ShortName: "intro"},
			IsApproved: true, UpdatedAt: past.Add(-time.Hour)},
		{Tenant: testTenant, Key: domain.ArticleKey{Date: date, ShortName: "chess"},
			IsApproved: true, UpdatedAt: past.Add(-time.Hour)},
	}
}

func TestPublishGuards(t *testing.T) {
	svc, repo, _, _ := fixture(t)
	repo.putNewsletter(domain.Newsletter{Date: "2026-09-04", ArticleOrder: []string{"chess"}})
	repo.articles = []domain.Article{
		{Tenant: testTenant, Key: domain.ArticleKey{Date: "2026-09-04", ShortName: "intro"}, IsApproved: true},
		{Tenant: testTenant, Key: domain.ArticleKey{Date: "2026-09-04", ShortName: "chess"}},
	}

	err := svc.Publish(context.Background(), editor, "2026-09-04", "d")
	if !errors.Is(err, publish.ErrNoCoverPhoto) {
		t.Fatalf("expected ErrNoCoverPhoto, got %v", err)
	}

	n := repo.newsletters["2026-09-04"]
	n.CoverPhoto = "cover.jpg"
	err = svc.Publish(context.Background(), editor, "2026-09-04", "d")
	if !errors.Is(err, publish.ErrUnapproved) {
		t.Fatalf("expected ErrUnapproved, got %v", err)
	}
	if n.LastPublished != nil {
		t.Fatal("guard failure must not stamp lastPublished")
	}
}

func TestPublishSuccess(t *testing.T) {
	svc, repo, site, _ := fixture(t)
	repo.putNewsletter(domain.Newsletter{
		Date: "2026-09-04", ArticleOrder: []string{"quiz", "chess"}, CoverPhoto: "cover.jpg",
	})
	repo.articles = []domain.Article{
		{Tenant: testTenant, Key: domain.ArticleKey{Date: "2026-09-04", ShortName: "intro"}, IsApproved: true},
		{Tenant: testTenant, Key: domain.ArticleKey{Date: "2026-09-04", ShortName: "chess"}, IsApproved: true},
		{Tenant: testTenant, Key: domain.ArticleKey{Date: "2026-09-04", ShortName: "quiz"}, IsApproved: true},
	}

	if err := svc.Publish(context.Background(), editor, "2026-09-04", "Autumn issue"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	n := repo.newsletters["2026-09-04"]
	if n.LastPublished == nil || n.Description != "Autumn issue" {
		t.Fatalf("publish should stamp the issue, got %+v", n)
	}
	page, err := site.GetPage(context.Background(), testTenant, "2026-09-04", publish.PageWeb)
	if err != nil {
		t.Fatalf("web page missing: %v", err)
	}
	if string(page) != "<html>2026-09-04:intro,quiz,chess" {
		t.Fatalf("articles should render intro first then issue order, got %q", page)
	}
	if len(site.list) != 1 || site.list[0].Date != "2026-09-04" {
		t.Fatalf("issue index should gain the issue, got %v", site.list)
	}
}

// racingRepo sneaks a concurrent newsletter write in just before the
// service's own write lands.
type racingRepo struct {
	*memRepo
	raced bool
}

func (r *racingRepo) UpdateNewsletter(ctx context.Context, n *domain.Newsletter, expectedVersion string) error {
	if !r.raced {
		r.raced = true
		other, _ := r.memRepo.GetNewsletter(ctx, testTenant, n.Date)
		if err := r.memRepo.UpdateNewsletter(ctx, other, other.Version); err != nil {
			return err
		}
	}
	return r.memRepo.UpdateNewsletter(ctx, n, expectedVersion)
}

func TestPublishVersionConflict(t *testing.T) {
	repo := newMemRepo()
	repo.putNewsletter(domain.Newsletter{Date: "2026-09-04", CoverPhoto: "cover.jpg"})
	repo.articles = []domain.Article{
		{Tenant: testTenant, Key: domain.ArticleKey{Date: "2026-09-04", ShortName: "intro"}, IsApproved: true},
	}
	racing := &racingRepo{memRepo: repo}
	svc := publish.NewService(racing, newMemSite(), stubFormatter{}, &fakeMailer{}, testOrgs(t))

	err := svc.Publish(context.Background(), editor, "2026-09-04", "d")
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("publish racing another write should lose, got %v", err)
	}
}

func TestSendRejectsStaleContent(t *testing.T) {
	svc, repo, site, mailer := fixture(t)
	seedPublishable(repo, "2020-01-03")
	site.pages[testTenant+"/2020-01-03/"+publish.PageEmailHTML] = []byte("<email>")
	site.pages[testTenant+"/2020-01-03/"+publish.PageEmailText] = []byte("text")
	repo.recipients = []domain.Recipient{{Tenant: testTenant, Email: "a@x.com"}}

	// One article edited after the last publish.
	repo.articles[1].UpdatedAt = time.Now()

	_, err := svc.Send(context.Background(), editor, "2020-01-03", publish.AudienceAll, nil)
	if !errors.Is(err, publish.ErrStaleContent) {
		t.Fatalf("expected ErrStaleContent, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("no recipient may be contacted on a rejected send")
	}
	if repo.newsletters["2020-01-03"].IsSent {
		t.Fatal("issue must not be marked sent")
	}
}

func TestSendBeforeCutoff(t *testing.T) {
	svc, repo, site, _ := fixture(t)
	tomorrow := time.Now().Add(48 * time.Hour).Format("2006-01-02")
	seedPublishable(repo, tomorrow)
	site.pages[testTenant+"/"+tomorrow+"/"+publish.PageEmailHTML] = []byte("x")
	site.pages[testTenant+"/"+tomorrow+"/"+publish.PageEmailText] = []byte("x")
	repo.recipients = []domain.Recipient{{Tenant: testTenant, Email: "a@x.com"}}

	_, err := svc.Send(context.Background(), editor, tomorrow, publish.AudienceAll, nil)
	if !errors.Is(err, publish.ErrBeforeCutoff) {
		t.Fatalf("expected ErrBeforeCutoff, got %v", err)
	}
}

func TestSendToAll(t *testing.T) {
	svc, repo, site, mailer := fixture(t)
	seedPublishable(repo, "2020-01-03")
	site.pages[testTenant+"/2020-01-03/"+publish.PageEmailHTML] = []byte("<email>")
	site.pages[testTenant+"/2020-01-03/"+publish.PageEmailText] = []byte("text")
	for i := 0; i < 130; i++ {
		repo.recipients = append(repo.recipients,
			domain.Recipient{Tenant: testTenant, Email: fmt.Sprintf("r%d@x.com", i)})
	}
	mailer.suppressed = map[string]bool{"r5@x.com": true}

	var reports []int
	sent, err := svc.Send(context.Background(), editor, "2020-01-03", publish.AudienceAll,
		func(sent, total int) { reports = append(reports, sent) })
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent != 129 {
		t.Fatalf("expected 129 recipient sends after suppression, got %d", sent)
	}
	// 129 recipients + 1 social media notice.
	if len(mailer.sent) != 130 {
		t.Fatalf("expected 130 messages including social notice, got %d", len(mailer.sent))
	}
	if len(reports) != 2 || reports[0] != 100 || reports[1] != 129 {
		t.Fatalf("progress should report per chunk, got %v", reports)
	}
	last := mailer.sent[len(mailer.sent)-1]
	if last.To[0] != "social@example.org" {
		t.Fatalf("social notice should go last, got %v", last.To)
	}
	if !repo.newsletters["2020-01-03"].IsSent {
		t.Fatal("issue should be marked sent")
	}

	// A second full send must be rejected.
	if _, err := svc.Send(context.Background(), editor, "2020-01-03", publish.AudienceAll, nil); !errors.Is(err, publish.ErrAlreadySent) {
		t.Fatalf("expected ErrAlreadySent, got %v", err)
	}
}

func TestSendPreviewAndQA(t *testing.T) {
	svc, repo, site, mailer := fixture(t)
	seedPublishable(repo, "2026-09-04")
	site.pages[testTenant+"/2026-09-04/"+publish.PageEmailHTML] = []byte("<email>")
	site.pages[testTenant+"/2026-09-04/"+publish.PageEmailText] = []byte("text")

	if _, err := svc.Send(context.Background(), editor, "2026-09-04", publish.AudiencePreview, nil); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if mailer.sent[0].To[0] != "alice@example.org" {
		t.Fatalf("preview should go to the caller, got %v", mailer.sent[0].To)
	}

	if _, err := svc.Send(context.Background(), editor, "2026-09-04", publish.AudienceQA, nil); err != nil {
		t.Fatalf("qa: %v", err)
	}
	if mailer.sent[1].To[0] != "qa@example.org" {
		t.Fatalf("qa send should go to the QA address, got %v", mailer.sent[1].To)
	}
	if repo.newsletters["2026-09-04"].IsSent {
		t.Fatal("preview and QA sends must not change issue state")
	}
}

func TestSendRequiresPublished(t *testing.T) {
	svc, repo, _, _ := fixture(t)
	repo.putNewsletter(domain.Newsletter{Date: "2026-09-04"})

	_, err := svc.Send(context.Background(), editor, "2026-09-04", publish.AudiencePreview, nil)
	if !errors.Is(err, publish.ErrNotPublished) {
		t.Fatalf("expected ErrNotPublished, got %v", err)
	}
}
