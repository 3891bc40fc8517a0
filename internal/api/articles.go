package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/newsletter-builder/internal/auth"
	"github.com/ignite/newsletter-builder/internal/domain"
	"github.com/ignite/newsletter-builder/internal/pkg/httputil"
)

func (s *Server) listUpcomingArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := s.content.ListArticles(r.Context(), claims(r), "")
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, articles)
}

func (s *Server) listIssueArticles(w http.ResponseWriter, r *http.Request) {
	date, err := issueDate(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	articles, err := s.content.ListArticles(r.Context(), claims(r), date)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, articles)
}

func (s *Server) createArticle(w http.ResponseWriter, r *http.Request) {
	date, err := issueDate(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	var req struct {
		ShortName    string   `json:"shortName"`
		Title        string   `json:"title"`
		Contributors []string `json:"contributors"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	key, err := articleKeyFor(date, req.ShortName)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := s.content.CreateArticle(r.Context(), claims(r), key, req.Title, req.Contributors); err != nil {
		writeError(w, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, map[string]string{"key": key.String()})
}

func (s *Server) getArticle(w http.ResponseWriter, r *http.Request) {
	key, err := articleKey(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	a, err := s.content.GetArticle(r.Context(), claims(r), key)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, a)
}

// deleteArticle takes the caller's proposed order for the remaining
// articles in the body, per the ordering contract.
func (s *Server) deleteArticle(w http.ResponseWriter, r *http.Request) {
	key, err := articleKey(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	var req struct {
		Order []string `json:"order"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := s.content.DeleteArticle(r.Context(), claims(r), key, req.Order); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (s *Server) editContent(w http.ResponseWriter, r *http.Request) {
	key, err := articleKey(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	var req struct {
		Content *domain.ArticleContent `json:"content"`
		Version string                 `json:"version"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	version, err := s.content.EditContent(r.Context(), claims(r), key, req.Content, req.Version)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, versionResponse{Version: version})
}

// stateTransition handles the four flag flips, which share a shape: a
// version token in, a fresh one out.
func (s *Server) stateTransition(w http.ResponseWriter, r *http.Request,
	op func(context.Context, auth.Claims, domain.ArticleKey, string) (string, error)) {
	key, err := articleKey(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	var req versionRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	version, err := op(r.Context(), claims(r), key, req.Version)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, versionResponse{Version: version})
}

func (s *Server) submitArticle(w http.ResponseWriter, r *http.Request) {
	s.stateTransition(w, r, s.content.Submit)
}

func (s *Server) unsubmitArticle(w http.ResponseWriter, r *http.Request) {
	s.stateTransition(w, r, s.content.Unsubmit)
}

func (s *Server) approveArticle(w http.ResponseWriter, r *http.Request) {
	s.stateTransition(w, r, s.content.Approve)
}

func (s *Server) unapproveArticle(w http.ResponseWriter, r *http.Request) {
	s.stateTransition(w, r, s.content.Unapprove)
}

func (s *Server) moveArticle(w http.ResponseWriter, r *http.Request) {
	key, err := articleKey(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	var req struct {
		Destination string   `json:"destination"`
		SourceOrder []string `json:"sourceOrder"`
		DestOrder   []string `json:"destOrder"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if !domain.ValidDate(req.Destination) {
		httputil.BadRequest(w, "invalid destination date")
		return
	}
	if err := s.content.MoveArticle(r.Context(), claims(r), key, req.Destination, req.SourceOrder, req.DestOrder); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	key, err := articleKey(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	name, err := s.content.UploadImage(r.Context(), claims(r), key, r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, map[string]string{"name": name})
}

func (s *Server) deleteImage(w http.ResponseWriter, r *http.Request) {
	key, err := articleKey(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := s.content.DeleteImage(r.Context(), claims(r), key, chi.URLParam(r, "image")); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (s *Server) imageURL(w http.ResponseWriter, r *http.Request) {
	key, err := articleKey(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	url, _, err := s.content.ImageURL(r.Context(), claims(r), key, chi.URLParam(r, "image"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"url": url})
}
