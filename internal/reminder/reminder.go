// Package reminder chases contributors whose articles are still unsubmitted
// as an issue deadline approaches. Each organisation configures reminders a
// number of days before the deadline at a local wall-clock time; reminders
// fire on weekdays only, and a Redis lock keeps a multi-instance deployment
// from sending duplicates.
package reminder

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ignite/newsletter-builder/internal/config"
	"github.com/ignite/newsletter-builder/internal/domain"
	"github.com/ignite/newsletter-builder/internal/mailing"
	"github.com/ignite/newsletter-builder/internal/pkg/logger"
)

// Repository is the slice of the row store the scheduler reads.
type Repository interface {
	ListNewsletters(ctx context.Context, tenant string) ([]domain.Newsletter, error)
	ListArticles(ctx context.Context, tenant, date string) ([]domain.Article, error)
	GetUser(ctx context.Context, tenant, username string) (*domain.User, error)
}

// Locker serializes scheduler ticks across instances.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Scheduler runs the reminder clock.
type Scheduler struct {
	repo          Repository
	mailer        mailing.Mailer
	orgs          *config.Organisations
	lock          Locker
	editorBaseURL string

	// fired dedupes occurrences within one process; the minute-matching
	// tick plus the cross-instance lock handle the rest.
	fired map[string]bool
}

// NewScheduler creates the reminder scheduler.
func NewScheduler(repo Repository, mailer mailing.Mailer, orgs *config.Organisations, lock Locker, editorBaseURL string) *Scheduler {
	return &Scheduler{
		repo:          repo,
		mailer:        mailer,
		orgs:          orgs,
		lock:          lock,
		editorBaseURL: editorBaseURL,
		fired:         make(map[string]bool),
	}
}

// Run ticks once a minute until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			ok, err := s.lock.Acquire(ctx)
			if err != nil {
				logger.Warn("reminder lock unavailable", "error", err)
				continue
			}
			if !ok {
				continue
			}
			if err := s.Tick(ctx, now); err != nil {
				logger.Error("reminder tick failed", "error", err)
			}
			if err := s.lock.Release(ctx); err != nil {
				logger.Warn("reminder lock release failed", "error", err)
			}
		}
	}
}

// Tick evaluates every organisation's reminders against one instant.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	for _, tenant := range s.orgs.Domains() {
		org := s.orgs.ByDomain(tenant)
		local := now.In(org.Location())
		if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
			continue
		}
		wallClock := local.Format("15:04")
		today := local.Format("2006-01-02")

		for i, r := range org.Reminders {
			if r.Time != wallClock {
				continue
			}
			occurrence := fmt.Sprintf("%s/%d/%s", tenant, i, today)
			if s.fired[occurrence] {
				continue
			}
			issue, err := s.issueDue(ctx, tenant, r, today)
			if err != nil {
				return fmt.Errorf("finding due issue for %s: %w", tenant, err)
			}
			if issue == nil {
				continue
			}
			s.fired[occurrence] = true
			if err := s.remind(ctx, org, issue, r); err != nil {
				return fmt.Errorf("reminding %s contributors: %w", tenant, err)
			}
		}
	}
	return nil
}

// issueDue returns the upcoming issue whose deadline is exactly the
// reminder's lead time away, or nil when no issue is due.
func (s *Scheduler) issueDue(ctx context.Context, tenant string, r config.Reminder, today string) (*domain.Newsletter, error) {
	newsletters, err := s.repo.ListNewsletters(ctx, tenant)
	if err != nil {
		return nil, err
	}
	sort.Slice(newsletters, func(i, j int) bool { return newsletters[i].Date < newsletters[j].Date })
	for i := range newsletters {
		n := &newsletters[i]
		if n.Deadline == "" || n.IsSent {
			continue
		}
		deadline, err := time.Parse("2006-01-02", n.Deadline)
		if err != nil {
			continue
		}
		due := deadline.AddDate(0, 0, -r.DaysBeforeDeadline).Format("2006-01-02")
		if due == today {
			return n, nil
		}
	}
	return nil, nil
}

// remind emails every non-editor contributor of each unsubmitted article.
func (s *Scheduler) remind(ctx context.Context, org *config.Organisation, issue *domain.Newsletter, r config.Reminder) error {
	articles, err := s.repo.ListArticles(ctx, issue.Tenant, issue.Date)
	if err != nil {
		return err
	}

	queued := 0
	for i := range articles {
		a := &articles[i]
		if a.IsSubmitted || a.Key.IsIntro() {
			continue
		}
		for _, username := range a.Contributors {
			u, err := s.repo.GetUser(ctx, issue.Tenant, username)
			if err != nil {
				logger.Warn("skipping unknown contributor", "tenant", issue.Tenant, "username", username)
				continue
			}
			if u.IsEditor {
				continue
			}
			s.mailer.Enqueue(mailing.Message{
				From:    fmt.Sprintf("%s <%s>", org.Name, org.FromEmail),
				To:      []string{u.Email()},
				ReplyTo: org.ReminderReplyTo,
				Subject: r.Subject,
				Text:    s.body(u, a, issue, r),
			})
			queued++
		}
	}
	if queued == 0 {
		return nil
	}

	sent, err := s.mailer.Flush(ctx)
	logger.Info("sent contributor reminders",
		"tenant", issue.Tenant, "date", issue.Date, "sent", sent)
	return err
}

func (s *Scheduler) body(u *domain.User, a *domain.Article, issue *domain.Newsletter, r config.Reminder) string {
	name := u.FirstName
	if name == "" {
		name = u.Username
	}
	return fmt.Sprintf("Dear %s,\n\n%s\n\nYour article %q for the %s issue is due by %s.\n%s/newsletters/%s/articles/%s\n",
		name, r.Message, a.Title, issue.Date, issue.Deadline,
		s.editorBaseURL, a.Key.Date, a.Key.ShortName)
}
