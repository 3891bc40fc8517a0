package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/newsletter-builder/internal/auth"
	"github.com/ignite/newsletter-builder/internal/domain"
	"github.com/ignite/newsletter-builder/internal/pkg/logger"
)

var shortNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// signedURLTTL bounds how long an image read link stays valid.
const signedURLTTL = 15 * time.Minute

// Service implements the content lifecycle over a row-store repository and
// an image blob store. All public methods are safe for concurrent use; the
// repository's version tokens resolve races, not locks.
type Service struct {
	repo   Repository
	images ImageStore
}

// NewService creates a content service backed by the given stores.
func NewService(repo Repository, images ImageStore) *Service {
	return &Service{repo: repo, images: images}
}

// GetArticle returns one article in the caller's tenant.
func (s *Service) GetArticle(ctx context.Context, c auth.Claims, key domain.ArticleKey) (*domain.Article, error) {
	return s.repo.GetArticle(ctx, c.Tenant, key)
}

// ListArticles returns the articles of one issue, or all upcoming articles
// when date is empty.
func (s *Service) ListArticles(ctx context.Context, c auth.Claims, date string) ([]domain.Article, error) {
	return s.repo.ListArticles(ctx, c.Tenant, date)
}

// GetNewsletter returns one issue in the caller's tenant.
func (s *Service) GetNewsletter(ctx context.Context, c auth.Claims, date string) (*domain.Newsletter, error) {
	return s.repo.GetNewsletter(ctx, c.Tenant, date)
}

// ListNewsletters returns the tenant's issues dated today or later.
func (s *Service) ListNewsletters(ctx context.Context, c auth.Claims) ([]domain.Newsletter, error) {
	return s.repo.ListNewsletters(ctx, c.Tenant)
}

// CreateNewsletter creates an issue and its reserved intro article, owned by
// the calling editor.
func (s *Service) CreateNewsletter(ctx context.Context, c auth.Claims, date, deadline string) error {
	if !c.IsEditor {
		return ErrForbidden
	}
	if !domain.ValidDate(date) {
		return fmt.Errorf("invalid newsletter date %q", date)
	}
	if !domain.ValidDate(deadline) {
		return fmt.Errorf("invalid deadline %q", deadline)
	}
	n := &domain.Newsletter{Tenant: c.Tenant, Date: date, Deadline: deadline}
	if err := s.repo.CreateNewsletter(ctx, n); err != nil {
		return err
	}
	intro := &domain.Article{
		Tenant:       c.Tenant,
		Key:          domain.ArticleKey{Date: date, ShortName: domain.IntroShortName},
		Title:        "Intro",
		Owner:        c.Username,
		Contributors: []string{c.Username},
	}
	return s.repo.CreateArticle(ctx, intro)
}

// DeleteNewsletter removes an issue that holds nothing but its intro.
func (s *Service) DeleteNewsletter(ctx context.Context, c auth.Claims, date string) error {
	if !c.IsEditor {
		return ErrForbidden
	}
	articles, err := s.repo.ListArticles(ctx, c.Tenant, date)
	if err != nil {
		return err
	}
	if len(articles) > 1 {
		return ErrNewsletterNotEmpty
	}
	introKey := domain.ArticleKey{Date: date, ShortName: domain.IntroShortName}
	if err := s.repo.DeleteArticle(ctx, c.Tenant, introKey, ""); err != nil {
		return err
	}
	return s.repo.DeleteNewsletter(ctx, c.Tenant, date)
}

// CreateArticle creates an article and appends it to its issue's order.
// Editors name the contributor set (each must be a user of the tenant);
// contributors get themselves.
func (s *Service) CreateArticle(ctx context.Context, c auth.Claims, key domain.ArticleKey, title string, contributors []string) error {
	key.ShortName = strings.ToLower(strings.TrimSpace(key.ShortName))
	if !shortNameRe.MatchString(key.ShortName) || key.IsIntro() {
		return fmt.Errorf("invalid article name %q", key.ShortName)
	}
	if !domain.ValidDate(key.Date) {
		return fmt.Errorf("invalid article date %q", key.Date)
	}

	a := &domain.Article{
		Tenant: c.Tenant,
		Key:    key,
		Title:  title,
		Owner:  c.Username,
	}
	if c.IsEditor {
		for _, u := range contributors {
			u = strings.TrimSpace(u)
			if u == "" {
				continue
			}
			if _, err := s.repo.GetUser(ctx, c.Tenant, u); err != nil {
				return fmt.Errorf("%w: %s", ErrUnknownContributor, u)
			}
			a.Contributors = append(a.Contributors, u)
		}
		if len(a.Contributors) == 0 {
			return ErrNoContributors
		}
	} else {
		a.Contributors = []string{c.Username}
	}

	n, err := s.repo.GetNewsletter(ctx, c.Tenant, key.Date)
	if err != nil {
		return err
	}
	if err := s.repo.CreateArticle(ctx, a); err != nil {
		return err
	}

	// Derived order append: membership changed by the create we just made,
	// so the new order is valid by construction. The version read above
	// still guards against a concurrent editor rewrite.
	n.ArticleOrder = append(n.ArticleOrder, key.ShortName)
	n.LastPublished = nil
	return s.repo.UpdateNewsletter(ctx, n, n.Version)
}

// DeleteArticle removes an article and commits the caller's proposed order
// for the issue. Contributors may only delete their own articles.
func (s *Service) DeleteArticle(ctx context.Context, c auth.Claims, key domain.ArticleKey, proposedOrder []string) error {
	if key.IsIntro() {
		return ErrIntroReserved
	}
	a, err := s.repo.GetArticle(ctx, c.Tenant, key)
	if err != nil {
		return err
	}
	if !c.IsEditor && a.Owner != c.Username {
		return ErrForbidden
	}

	articles, err := s.repo.ListArticles(ctx, c.Tenant, key.Date)
	if err != nil {
		return err
	}
	if !validateOrder(articles, proposedOrder, "", key.ShortName) {
		return ErrInvalidOrder
	}

	n, err := s.repo.GetNewsletter(ctx, c.Tenant, key.Date)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteArticle(ctx, c.Tenant, key, a.Version); err != nil {
		return err
	}
	n.ArticleOrder = proposedOrder
	n.LastPublished = nil
	if err := s.repo.UpdateNewsletter(ctx, n, n.Version); err != nil {
		return err
	}

	// Blob cleanup is a reconcilable downstream effect; the row-store
	// delete above is the source of truth.
	if err := s.images.DeleteAll(ctx, c.Tenant, key); err != nil {
		logger.Warn("article image cleanup failed", "tenant", c.Tenant, "article", key.String(), "error", err)
	}
	return nil
}

// Reorder commits a new article order for an issue.
func (s *Service) Reorder(ctx context.Context, c auth.Claims, date string, proposedOrder []string) error {
	if !c.IsEditor {
		return ErrForbidden
	}
	articles, err := s.repo.ListArticles(ctx, c.Tenant, date)
	if err != nil {
		return err
	}
	if !validateOrder(articles, proposedOrder, "", "") {
		return ErrInvalidOrder
	}
	n, err := s.repo.GetNewsletter(ctx, c.Tenant, date)
	if err != nil {
		return err
	}
	n.ArticleOrder = proposedOrder
	n.LastPublished = nil
	return s.repo.UpdateNewsletter(ctx, n, n.Version)
}

// SetCoverPhoto points an issue at an uploaded article image.
func (s *Service) SetCoverPhoto(ctx context.Context, c auth.Claims, date string, articleKey domain.ArticleKey, imageName string) error {
	if !c.IsEditor {
		return ErrForbidden
	}
	n, err := s.repo.GetNewsletter(ctx, c.Tenant, date)
	if err != nil {
		return err
	}
	ok, err := s.images.Exists(ctx, c.Tenant, articleKey, imageName)
	if err != nil {
		return fmt.Errorf("checking cover photo: %w", err)
	}
	if !ok {
		return ErrInvalidImage
	}
	n.CoverPhoto = imageName
	n.LastPublished = nil
	return s.repo.UpdateNewsletter(ctx, n, n.Version)
}

// MoveArticle relocates an article to another issue, committing the caller's
// proposed orders for both. See the package doc for the saga's guarantees.
func (s *Service) MoveArticle(ctx context.Context, c auth.Claims, key domain.ArticleKey, destDate string, sourceOrder, destOrder []string) error {
	if !c.IsEditor {
		return ErrForbidden
	}
	if key.IsIntro() {
		return ErrIntroReserved
	}
	a, err := s.repo.GetArticle(ctx, c.Tenant, key)
	if err != nil {
		return err
	}
	source, err := s.repo.GetNewsletter(ctx, c.Tenant, key.Date)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrSourceMissing
	}
	if err != nil {
		return err
	}
	dest, err := s.repo.GetNewsletter(ctx, c.Tenant, destDate)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrDestMissing
	}
	if err != nil {
		return err
	}

	sourceArticles, err := s.repo.ListArticles(ctx, c.Tenant, source.Date)
	if err != nil {
		return err
	}
	if !validateOrder(sourceArticles, sourceOrder, "", key.ShortName) {
		return fmt.Errorf("%w (source)", ErrInvalidOrder)
	}
	destArticles, err := s.repo.ListArticles(ctx, c.Tenant, dest.Date)
	if err != nil {
		return err
	}
	if !validateOrder(destArticles, destOrder, key.ShortName, "") {
		return fmt.Errorf("%w (destination)", ErrInvalidOrder)
	}

	moved := *a
	moved.Key = domain.ArticleKey{Date: destDate, ShortName: key.ShortName}
	source.ArticleOrder = sourceOrder
	source.LastPublished = nil
	dest.ArticleOrder = destOrder
	dest.LastPublished = nil
	if err := s.repo.MoveArticle(ctx, c.Tenant, key, &moved, source, dest); err != nil {
		return err
	}

	// Image relocation is best-effort after the authoritative move; an
	// interruption leaks blobs under the old key for the cleanup sweep.
	if err := s.images.Relocate(ctx, c.Tenant, key, moved.Key); err != nil {
		logger.Warn("article image relocation incomplete", "tenant", c.Tenant,
			"from", key.String(), "to", moved.Key.String(), "error", err)
		return fmt.Errorf("article moved but images not relocated: %w", domain.ErrDownstream)
	}
	return nil
}

// EditContent replaces an article's structured content. The expected version
// must match or nothing is written. Blank content stores as absent. Returns
// the new version token so the editor session can chain further edits.
func (s *Service) EditContent(ctx context.Context, c auth.Claims, key domain.ArticleKey, body *domain.ArticleContent, expectedVersion string) (string, error) {
	a, err := s.repo.GetArticle(ctx, c.Tenant, key)
	if err != nil {
		return "", err
	}
	if !s.mayWrite(c, a) {
		return "", ErrForbidden
	}
	if body.IsBlank() {
		a.Content = nil
	} else {
		a.Content = body
	}
	if err := s.repo.UpdateArticle(ctx, a, expectedVersion); err != nil {
		return "", err
	}
	return a.Version, nil
}

// Submit marks an article ready for editorial review.
func (s *Service) Submit(ctx context.Context, c auth.Claims, key domain.ArticleKey, expectedVersion string) (string, error) {
	a, err := s.repo.GetArticle(ctx, c.Tenant, key)
	if err != nil {
		return "", err
	}
	if !c.IsEditor && !a.HasContributor(c.Username) {
		return "", ErrForbidden
	}
	a.IsSubmitted = true
	if err := s.repo.UpdateArticle(ctx, a, expectedVersion); err != nil {
		return "", err
	}
	return a.Version, nil
}

// Unsubmit hands an article back to its contributors.
func (s *Service) Unsubmit(ctx context.Context, c auth.Claims, key domain.ArticleKey, expectedVersion string) (string, error) {
	if !c.IsEditor {
		return "", ErrForbidden
	}
	a, err := s.repo.GetArticle(ctx, c.Tenant, key)
	if err != nil {
		return "", err
	}
	a.IsSubmitted = false
	if err := s.repo.UpdateArticle(ctx, a, expectedVersion); err != nil {
		return "", err
	}
	return a.Version, nil
}

// Approve accepts an article for publication and pushes its images to the
// public namespace. Approval requires content to exist.
func (s *Service) Approve(ctx context.Context, c auth.Claims, key domain.ArticleKey, expectedVersion string) (string, error) {
	if !c.IsEditor {
		return "", ErrForbidden
	}
	a, err := s.repo.GetArticle(ctx, c.Tenant, key)
	if err != nil {
		return "", err
	}
	if a.Content == nil {
		return "", ErrMissingContent
	}
	a.IsSubmitted = true
	a.IsApproved = true
	if err := s.repo.UpdateArticle(ctx, a, expectedVersion); err != nil {
		return "", err
	}

	if err := s.images.PublishApproved(ctx, c.Tenant, key, a.Content.ImageNames()); err != nil {
		logger.Warn("approved image publish failed", "tenant", c.Tenant, "article", key.String(), "error", err)
		return a.Version, fmt.Errorf("article approved but images not published: %w", domain.ErrDownstream)
	}
	return a.Version, nil
}

// Unapprove withdraws editorial approval.
func (s *Service) Unapprove(ctx context.Context, c auth.Claims, key domain.ArticleKey, expectedVersion string) (string, error) {
	if !c.IsEditor {
		return "", ErrForbidden
	}
	a, err := s.repo.GetArticle(ctx, c.Tenant, key)
	if err != nil {
		return "", err
	}
	a.IsApproved = false
	if err := s.repo.UpdateArticle(ctx, a, expectedVersion); err != nil {
		return "", err
	}
	return a.Version, nil
}

// UploadImage stores a photograph under the article's namespace and returns
// the generated file name.
func (s *Service) UploadImage(ctx context.Context, c auth.Claims, key domain.ArticleKey, contentType string, body io.Reader) (string, error) {
	a, err := s.repo.GetArticle(ctx, c.Tenant, key)
	if err != nil {
		return "", err
	}
	if !s.mayWrite(c, a) {
		return "", ErrForbidden
	}
	var ext string
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	default:
		return "", fmt.Errorf("only JPG and PNG images are supported")
	}
	name := uuid.New().String() + ext
	if err := s.images.Upload(ctx, c.Tenant, key, name, contentType, body); err != nil {
		return "", fmt.Errorf("uploading image: %w", err)
	}
	return name, nil
}

// DeleteImage removes one photograph from the article's namespace.
func (s *Service) DeleteImage(ctx context.Context, c auth.Claims, key domain.ArticleKey, imageName string) error {
	a, err := s.repo.GetArticle(ctx, c.Tenant, key)
	if err != nil {
		return err
	}
	if !s.mayWrite(c, a) {
		return ErrForbidden
	}
	return s.images.Delete(ctx, c.Tenant, key, imageName)
}

// ImageURL returns a time-boxed read URL for one of the article's images,
// for the caller or a collaborator (AI description) to fetch.
func (s *Service) ImageURL(ctx context.Context, c auth.Claims, key domain.ArticleKey, imageName string) (string, *domain.Article, error) {
	a, err := s.repo.GetArticle(ctx, c.Tenant, key)
	if err != nil {
		return "", nil, err
	}
	if !s.mayWrite(c, a) {
		return "", nil, ErrForbidden
	}
	url, err := s.images.SignedURL(ctx, c.Tenant, key, imageName, signedURLTTL)
	if err != nil {
		return "", nil, err
	}
	return url, a, nil
}

// IssueImage is one image of an issue's articles, with a read URL.
type IssueImage struct {
	Article string `json:"article"`
	Name    string `json:"name"`
	URL     string `json:"url"`
}

// ListImages returns every image referenced by the issue's articles, in
// article then section order, each with a time-boxed read URL. This backs
// the cover-photo picker.
func (s *Service) ListImages(ctx context.Context, c auth.Claims, date string) ([]IssueImage, error) {
	if !c.IsEditor {
		return nil, ErrForbidden
	}
	articles, err := s.repo.ListArticles(ctx, c.Tenant, date)
	if err != nil {
		return nil, err
	}
	var out []IssueImage
	for _, a := range articles {
		if a.Content == nil {
			continue
		}
		for _, name := range a.Content.ImageNames() {
			url, err := s.images.SignedURL(ctx, c.Tenant, a.Key, name, signedURLTTL)
			if err != nil {
				return nil, fmt.Errorf("signing %s/%s: %w", a.Key.ShortName, name, err)
			}
			out = append(out, IssueImage{Article: a.Key.ShortName, Name: name, URL: url})
		}
	}
	return out, nil
}

// mayWrite reports whether the caller can mutate the article's content:
// editors always, contributors only on their own unsubmitted articles.
func (s *Service) mayWrite(c auth.Claims, a *domain.Article) bool {
	if c.IsEditor {
		return true
	}
	return a.HasContributor(c.Username) && !a.IsSubmitted
}
