// Package render turns an issue and its articles into the web page and
// email bodies the publish step uploads. Templates are Liquid, parsed once
// at startup; the article image references use the positional render names
// the image store publishes under.
package render

import (
	"fmt"
	"html"
	"path"
	"time"

	"github.com/osteele/liquid"

	"github.com/ignite/newsletter-builder/internal/config"
	"github.com/ignite/newsletter-builder/internal/domain"
	"github.com/ignite/newsletter-builder/internal/service/publish"
)

// Renderer renders issues with a shared Liquid engine.
type Renderer struct {
	page      *liquid.Template
	emailHTML *liquid.Template
	emailText *liquid.Template
}

// New builds the renderer, registering the custom filters the templates use
// and compiling all three templates up front so malformed templates fail at
// startup rather than at publish time.
func New() (*Renderer, error) {
	engine := liquid.NewEngine()
	engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})
	engine.RegisterFilter("display_date", displayDate)

	r := &Renderer{}
	var err error
	if r.page, err = engine.ParseString(pageTemplate); err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	if r.emailHTML, err = engine.ParseString(emailHTMLTemplate); err != nil {
		return nil, fmt.Errorf("parsing email template: %w", err)
	}
	if r.emailText, err = engine.ParseString(emailTextTemplate); err != nil {
		return nil, fmt.Errorf("parsing text template: %w", err)
	}
	return r, nil
}

// displayDate turns an ISO date into its long human form.
func displayDate(s string) string {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return t.Format("Monday 2 January 2006")
}

// Render produces all three renditions of an issue. Articles must arrive in
// issue order, intro first.
func (r *Renderer) Render(org *config.Organisation, n *domain.Newsletter, articles []domain.Article) (*publish.Rendition, error) {
	binding := bindingFor(org, n, articles)

	page, err := r.page.RenderString(binding)
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	emailHTML, err := r.emailHTML.RenderString(binding)
	if err != nil {
		return nil, fmt.Errorf("rendering email: %w", err)
	}
	emailText, err := r.emailText.RenderString(binding)
	if err != nil {
		return nil, fmt.Errorf("rendering text email: %w", err)
	}
	return &publish.Rendition{
		Page:      []byte(page),
		EmailHTML: []byte(emailHTML),
		EmailText: []byte(emailText),
	}, nil
}

func bindingFor(org *config.Organisation, n *domain.Newsletter, articles []domain.Article) map[string]interface{} {
	arts := make([]map[string]interface{}, 0, len(articles))
	for i := range articles {
		arts = append(arts, articleBinding(&articles[i]))
	}
	return map[string]interface{}{
		"organisation": map[string]interface{}{
			"name":           org.Name,
			"footer":         org.Footer,
			"address":        org.Address,
			"newsletter_url": org.NewsletterURL,
			"twitter":        org.TwitterHandle,
		},
		"issue": map[string]interface{}{
			"date":        n.Date,
			"description": n.Description,
			"cover_photo": n.CoverPhoto,
		},
		"articles": arts,
	}
}

// articleBinding exposes one article to the templates. Section images are
// referenced by their positional render names, matching what the image
// store publishes.
func articleBinding(a *domain.Article) map[string]interface{} {
	headline := a.Title
	var sections []map[string]interface{}
	images := 0
	if a.Content != nil {
		if a.Content.Headline != "" {
			headline = a.Content.Headline
		}
		for _, s := range a.Content.Sections {
			sec := map[string]interface{}{"text": s.Text}
			if s.Image != "" {
				images++
				sec["image"] = fmt.Sprintf("%s-%d%s", a.Key.ShortName, images, path.Ext(s.Image))
				sec["alt"] = s.Alt
			}
			sections = append(sections, sec)
		}
	}
	return map[string]interface{}{
		"short_name": a.Key.ShortName,
		"headline":   headline,
		"sections":   sections,
	}
}
