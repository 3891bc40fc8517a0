package domain

import (
	"fmt"
	"strings"
	"time"
)

// IntroShortName is the reserved short name of the lead article every issue
// owns. The intro is created with its issue, can never be deleted on its own,
// and is excluded from the issue's explicit article order.
const IntroShortName = "intro"

// ArticleKey identifies an article within a tenant partition. The stored row
// key encoding is "<issueDate>_<shortName>".
type ArticleKey struct {
	Date      string // issue date, ISO 8601 (yyyy-mm-dd)
	ShortName string // per-issue unique slug
}

// ParseArticleKey splits a "date_shortName" row key into its parts.
func ParseArticleKey(s string) (ArticleKey, error) {
	date, short, ok := strings.Cut(s, "_")
	if !ok || short == "" {
		return ArticleKey{}, fmt.Errorf("invalid article key %q", s)
	}
	if !ValidDate(date) {
		return ArticleKey{}, fmt.Errorf("invalid article date %q", date)
	}
	return ArticleKey{Date: date, ShortName: short}, nil
}

// String returns the row-key encoding of the article key.
func (k ArticleKey) String() string {
	return k.Date + "_" + k.ShortName
}

// IsIntro reports whether the key names the issue's reserved intro article.
func (k ArticleKey) IsIntro() bool {
	return k.ShortName == IntroShortName
}

// ArticleSection is one block of structured article content.
type ArticleSection struct {
	Text         string `json:"text,omitempty"`
	IncludeImage bool   `json:"includeImage,omitempty"`
	Image        string `json:"image,omitempty"`
	Alt          string `json:"alt,omitempty"`
	Consent      bool   `json:"consent,omitempty"`
	ConsentNotes string `json:"consentNotes,omitempty"`
}

// ArticleContent is the structured body of an article. It is persisted as a
// serialized blob on the article row; a nil *ArticleContent means the article
// has not been started.
type ArticleContent struct {
	Headline string           `json:"headline,omitempty"`
	Sections []ArticleSection `json:"sections"`
}

// IsBlank reports whether the content carries no headline, text, or images.
// Blank content is normalized back to nil before storage.
func (c *ArticleContent) IsBlank() bool {
	if c == nil {
		return true
	}
	if c.Headline != "" {
		return false
	}
	for _, s := range c.Sections {
		if s.Text != "" || s.Image != "" {
			return false
		}
	}
	return true
}

// ImageNames returns the image file names referenced by the content, in
// section order, skipping sections without an image.
func (c *ArticleContent) ImageNames() []string {
	if c == nil {
		return nil
	}
	var names []string
	for _, s := range c.Sections {
		if s.Image != "" {
			names = append(names, s.Image)
		}
	}
	return names
}

// Article is a single newsletter article. Identity is (tenant, issue date,
// short name); Version is the opaque optimistic-concurrency token rotated by
// the store on every successful write.
type Article struct {
	Tenant       string          `json:"-"`
	Key          ArticleKey      `json:"key"`
	Title        string          `json:"title"`
	Content      *ArticleContent `json:"content,omitempty"`
	Contributors []string        `json:"contributors"`
	Owner        string          `json:"owner"`
	IsSubmitted  bool            `json:"isSubmitted"`
	IsApproved   bool            `json:"isApproved"`
	Version      string          `json:"version,omitempty"`
	UpdatedAt    time.Time       `json:"updatedAt,omitzero"`
}

// HasContributor reports whether username is in the article's contributor set.
func (a *Article) HasContributor(username string) bool {
	for _, c := range a.Contributors {
		if c == username {
			return true
		}
	}
	return false
}

// ValidDate reports whether s is a calendar date in ISO 8601 (yyyy-mm-dd) form.
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil && len(s) == 10
}
