package render_test

import (
	"strings"
	"testing"

	"github.com/ignite/newsletter-builder/internal/config"
	"github.com/ignite/newsletter-builder/internal/domain"
	"github.com/ignite/newsletter-builder/internal/render"
)

var testOrg = &config.Organisation{
	Name:          "Example School",
	Domain:        "example.org",
	NewsletterURL: "https://news.example.org",
	Address:       "1 School Lane",
	Footer:        "Sent to subscribers of the Example School newsletter.",
	TwitterHandle: "exampleschool",
}

func testIssue() (*domain.Newsletter, []domain.Article) {
	n := &domain.Newsletter{
		Tenant:       "example.org",
		Date:         "2026-09-04",
		ArticleOrder: []string{"chess"},
		CoverPhoto:   "intro-1.jpg",
	}
	articles := []domain.Article{
		{
			Key: domain.ArticleKey{Date: "2026-09-04", ShortName: "intro"},
			Content: &domain.ArticleContent{
				Headline: "Welcome back",
				Sections: []domain.ArticleSection{{Text: "A new term begins."}},
			},
		},
		{
			Key:   domain.ArticleKey{Date: "2026-09-04", ShortName: "chess"},
			Title: "Chess club",
			Content: &domain.ArticleContent{
				Headline: "Chess club triumphs",
				Sections: []domain.ArticleSection{
					{Text: "The first team won <decisively>."},
					{Text: "Next match in October.", Image: "celebration.png", Alt: "The team"},
				},
			},
		},
	}
	return n, articles
}

func TestRenderPage(t *testing.T) {
	r, err := render.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	n, articles := testIssue()

	out, err := r.Render(testOrg, n, articles)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := string(out.Page)

	if !strings.Contains(page, "Friday 4 September 2026") {
		t.Errorf("page should carry the long issue date:\n%s", page)
	}
	if !strings.Contains(page, "Welcome back") || !strings.Contains(page, "Chess club triumphs") {
		t.Errorf("page should carry all article headlines:\n%s", page)
	}
	if idx := strings.Index(page, "Welcome back"); idx > strings.Index(page, "Chess club triumphs") {
		t.Error("intro must render before the ordered articles")
	}
	if !strings.Contains(page, "&lt;decisively&gt;") {
		t.Errorf("article text must be escaped:\n%s", page)
	}
	if !strings.Contains(page, `src="chess-1.png"`) {
		t.Errorf("section images use positional render names:\n%s", page)
	}
	if !strings.Contains(page, testOrg.Footer) || !strings.Contains(page, testOrg.Address) {
		t.Errorf("page should carry the organisation footer and address:\n%s", page)
	}
}

func TestRenderEmail(t *testing.T) {
	r, err := render.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	n, articles := testIssue()

	out, err := r.Render(testOrg, n, articles)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	html := string(out.EmailHTML)
	if !strings.Contains(html, "https://news.example.org/2026-09-04/chess-1.png") {
		t.Errorf("email images must be absolute URLs:\n%s", html)
	}

	text := string(out.EmailText)
	if strings.Contains(text, "<html") || strings.Contains(text, "<p") {
		t.Errorf("text rendition must carry no markup:\n%s", text)
	}
	if !strings.Contains(text, "Chess club triumphs") || !strings.Contains(text, "A new term begins.") {
		t.Errorf("text rendition should carry headlines and body text:\n%s", text)
	}
}

func TestHeadlineFallsBackToTitle(t *testing.T) {
	r, err := render.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	n := &domain.Newsletter{Tenant: "example.org", Date: "2026-09-04"}
	articles := []domain.Article{{
		Key:     domain.ArticleKey{Date: "2026-09-04", ShortName: "quiz"},
		Title:   "Quiz night",
		Content: &domain.ArticleContent{Sections: []domain.ArticleSection{{Text: "Thursday."}}},
	}}

	out, err := r.Render(testOrg, n, articles)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out.Page), "Quiz night") {
		t.Errorf("articles without a headline fall back to their title:\n%s", out.Page)
	}
}
