package publish

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ignite/newsletter-builder/internal/auth"
	"github.com/ignite/newsletter-builder/internal/config"
	"github.com/ignite/newsletter-builder/internal/domain"
	"github.com/ignite/newsletter-builder/internal/mailing"
	"github.com/ignite/newsletter-builder/internal/pkg/logger"
)

// Page names within an issue's public namespace.
const (
	PageWeb       = "index.html"
	PageEmailHTML = "email.html"
	PageEmailText = "email.txt"
)

// sendChunkSize is how many recipients are attempted between progress
// reports on a full send.
const sendChunkSize = 100

// Audience selects who a send goes to.
type Audience string

const (
	AudiencePreview Audience = "preview" // the calling editor only
	AudienceQA      Audience = "qa"      // the organisation's QA address
	AudienceAll     Audience = "all"     // the full recipient list
)

// ParseAudience validates an audience supplied over the wire.
func ParseAudience(s string) (Audience, error) {
	switch Audience(s) {
	case AudiencePreview, AudienceQA, AudienceAll:
		return Audience(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAudience, s)
}

// Service is the publish/send gate.
type Service struct {
	repo      Repository
	site      SiteStore
	formatter Formatter
	mailer    mailing.Mailer
	orgs      *config.Organisations
}

// NewService creates the publish gate over its collaborators.
func NewService(repo Repository, site SiteStore, formatter Formatter, mailer mailing.Mailer, orgs *config.Organisations) *Service {
	return &Service{repo: repo, site: site, formatter: formatter, mailer: mailer, orgs: orgs}
}

// Publish renders an issue to public storage and stamps it published.
// The description becomes the issue's public summary and email subject.
func (s *Service) Publish(ctx context.Context, c auth.Claims, date, description string) error {
	if !c.IsEditor {
		return ErrForbidden
	}
	org := s.orgs.ByDomain(c.Tenant)
	if org == nil {
		return fmt.Errorf("organisation %q is not provisioned", c.Tenant)
	}

	n, err := s.repo.GetNewsletter(ctx, c.Tenant, date)
	if err != nil {
		return err
	}
	entryVersion := n.Version

	articles, err := s.repo.ListArticles(ctx, c.Tenant, date)
	if err != nil {
		return err
	}
	if n.CoverPhoto == "" {
		return ErrNoCoverPhoto
	}
	excluded := excludedSet(org)
	for _, a := range articles {
		if excluded[a.Key.ShortName] {
			continue
		}
		if !a.IsApproved {
			return fmt.Errorf("%w: %s", ErrUnapproved, a.Key.ShortName)
		}
	}

	rend, err := s.formatter.Render(org, n, issueOrder(n, articles, excluded))
	if err != nil {
		return fmt.Errorf("rendering issue: %w", err)
	}
	if err := s.site.PutPage(ctx, c.Tenant, date, PageWeb, "text/html; charset=utf-8", rend.Page); err != nil {
		return fmt.Errorf("writing web page: %w", err)
	}
	if err := s.site.PutPage(ctx, c.Tenant, date, PageEmailHTML, "text/html; charset=utf-8", rend.EmailHTML); err != nil {
		return fmt.Errorf("writing email rendition: %w", err)
	}
	if err := s.site.PutPage(ctx, c.Tenant, date, PageEmailText, "text/plain; charset=utf-8", rend.EmailText); err != nil {
		return fmt.Errorf("writing text rendition: %w", err)
	}

	n.Description = description
	now := time.Now().UTC()
	n.LastPublished = &now
	if err := s.repo.UpdateNewsletter(ctx, n, entryVersion); err != nil {
		return err
	}
	logger.Info("newsletter published", "tenant", c.Tenant, "date", date)

	if err := s.updateIssueList(ctx, c.Tenant, n); err != nil {
		logger.Warn("issue index update failed", "tenant", c.Tenant, "date", date, "error", err)
		return fmt.Errorf("published but issue index not updated: %w", domain.ErrDownstream)
	}
	return nil
}

func (s *Service) updateIssueList(ctx context.Context, tenant string, n *domain.Newsletter) error {
	entries, err := s.site.GetIssueList(ctx, tenant)
	if err != nil {
		return err
	}
	entry := IssueListEntry{Date: n.Date, Description: n.Description, CoverPhoto: n.CoverPhoto}
	replaced := false
	for i := range entries {
		if entries[i].Date == n.Date {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date > entries[j].Date })
	return s.site.PutIssueList(ctx, tenant, entries)
}

// Send emails a published issue. The full send reports progress after each
// recipient chunk and marks the issue sent only after every chunk and the
// social-media notice have been attempted. Preview and QA sends change no
// state. Returns how many messages were accepted.
func (s *Service) Send(ctx context.Context, c auth.Claims, date string, audience Audience, progress func(sent, total int)) (int, error) {
	if !c.IsEditor {
		return 0, ErrForbidden
	}
	org := s.orgs.ByDomain(c.Tenant)
	if org == nil {
		return 0, fmt.Errorf("organisation %q is not provisioned", c.Tenant)
	}

	n, err := s.repo.GetNewsletter(ctx, c.Tenant, date)
	if err != nil {
		return 0, err
	}
	entryVersion := n.Version
	if !n.IsPublished() {
		return 0, ErrNotPublished
	}

	html, err := s.site.GetPage(ctx, c.Tenant, date, PageEmailHTML)
	if err != nil {
		return 0, fmt.Errorf("reading email rendition: %w", err)
	}
	text, err := s.site.GetPage(ctx, c.Tenant, date, PageEmailText)
	if err != nil {
		return 0, fmt.Errorf("reading text rendition: %w", err)
	}

	msg := mailing.Message{
		From:    fmt.Sprintf("%s <%s>", org.Name, org.FromEmail),
		Subject: subject(org, n),
		HTML:    string(html),
		Text:    string(text),
	}

	switch audience {
	case AudiencePreview:
		msg.To = []string{c.Email()}
		s.mailer.Enqueue(msg)
		return s.mailer.Flush(ctx)

	case AudienceQA:
		if org.QualityAssuranceEmail == "" {
			return 0, fmt.Errorf("organisation %q has no QA address", c.Tenant)
		}
		msg.To = []string{org.QualityAssuranceEmail}
		s.mailer.Enqueue(msg)
		return s.mailer.Flush(ctx)

	case AudienceAll:
		return s.sendToAll(ctx, c, org, n, entryVersion, msg, progress)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAudience, audience)
}

func (s *Service) sendToAll(ctx context.Context, c auth.Claims, org *config.Organisation, n *domain.Newsletter, entryVersion string, msg mailing.Message, progress func(sent, total int)) (int, error) {
	if n.IsSent {
		return 0, ErrAlreadySent
	}
	articles, err := s.repo.ListArticles(ctx, c.Tenant, n.Date)
	if err != nil {
		return 0, err
	}
	excluded := excludedSet(org)
	for _, a := range articles {
		if excluded[a.Key.ShortName] {
			continue
		}
		if a.UpdatedAt.After(*n.LastPublished) {
			return 0, fmt.Errorf("%w: %s", ErrStaleContent, a.Key.ShortName)
		}
	}
	if !n.PastSendCutoff(time.Now().In(org.Location())) {
		return 0, ErrBeforeCutoff
	}

	recipients, err := s.repo.ListRecipients(ctx, c.Tenant)
	if err != nil {
		return 0, err
	}
	suppressed, err := s.mailer.SuppressedRecipients(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching suppression set: %w", err)
	}
	to := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if suppressed[r.Email] {
			continue
		}
		to = append(to, r.Email)
	}
	if len(to) == 0 {
		return 0, ErrNoRecipients
	}

	sent := 0
	for start := 0; start < len(to); start += sendChunkSize {
		end := start + sendChunkSize
		if end > len(to) {
			end = len(to)
		}
		for _, addr := range to[start:end] {
			m := msg
			m.To = []string{addr}
			s.mailer.Enqueue(m)
		}
		flushed, err := s.mailer.Flush(ctx)
		sent += flushed
		if err != nil {
			return sent, fmt.Errorf("sending chunk at %d: %w", start, err)
		}
		if progress != nil {
			progress(sent, len(to))
		}
	}

	if org.SocialMediaEmail != "" {
		notice := mailing.Message{
			From:    msg.From,
			To:      []string{org.SocialMediaEmail},
			Subject: "Newsletter out: " + subject(org, n),
			Text:    "The latest newsletter has been sent. Please share " + org.NewsletterURL + "\n",
		}
		s.mailer.Enqueue(notice)
		if _, err := s.mailer.Flush(ctx); err != nil {
			logger.Warn("social media notice failed", "tenant", c.Tenant, "date", n.Date, "error", err)
		}
	}

	n.IsSent = true
	if err := s.repo.UpdateNewsletter(ctx, n, entryVersion); err != nil {
		return sent, fmt.Errorf("mail sent but issue not marked sent: %w", err)
	}
	logger.Info("newsletter sent", "tenant", c.Tenant, "date", n.Date, "recipients", sent)
	return sent, nil
}

func subject(org *config.Organisation, n *domain.Newsletter) string {
	if n.Description != "" {
		return n.Description
	}
	return org.Name + " newsletter " + n.Date
}

func excludedSet(org *config.Organisation) map[string]bool {
	out := make(map[string]bool, len(org.UnlistedArticles))
	for _, name := range org.UnlistedArticles {
		out[name] = true
	}
	return out
}

// issueOrder arranges an issue's articles for rendering: intro first, then
// the issue's explicit order, skipping excluded articles.
func issueOrder(n *domain.Newsletter, articles []domain.Article, excluded map[string]bool) []domain.Article {
	byName := make(map[string]domain.Article, len(articles))
	for _, a := range articles {
		byName[a.Key.ShortName] = a
	}
	out := make([]domain.Article, 0, len(articles))
	if intro, ok := byName[domain.IntroShortName]; ok && !excluded[domain.IntroShortName] {
		out = append(out, intro)
	}
	for _, name := range n.ArticleOrder {
		if excluded[name] {
			continue
		}
		if a, ok := byName[name]; ok {
			out = append(out, a)
		}
	}
	return out
}
