package api

import (
	"encoding/json"
	"net/http"

	"github.com/ignite/newsletter-builder/internal/pkg/httputil"
	"github.com/ignite/newsletter-builder/internal/pkg/logger"
	"github.com/ignite/newsletter-builder/internal/service/publish"
)

func (s *Server) listNewsletters(w http.ResponseWriter, r *http.Request) {
	newsletters, err := s.content.ListNewsletters(r.Context(), claims(r))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, newsletters)
}

func (s *Server) createNewsletter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date     string `json:"date"`
		Deadline string `json:"deadline"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := s.content.CreateNewsletter(r.Context(), claims(r), req.Date, req.Deadline); err != nil {
		writeError(w, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, map[string]string{"date": req.Date})
}

func (s *Server) getNewsletter(w http.ResponseWriter, r *http.Request) {
	date, err := issueDate(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	n, err := s.content.GetNewsletter(r.Context(), claims(r), date)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, n)
}

func (s *Server) deleteNewsletter(w http.ResponseWriter, r *http.Request) {
	date, err := issueDate(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := s.content.DeleteNewsletter(r.Context(), claims(r), date); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (s *Server) reorderNewsletter(w http.ResponseWriter, r *http.Request) {
	date, err := issueDate(r)
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
	if err := s.content.Reorder(r.Context(), claims(r), date, req.Order); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (s *Server) setCoverPhoto(w http.ResponseWriter, r *http.Request) {
	date, err := issueDate(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	var req struct {
		Article string `json:"article"`
		Image   string `json:"image"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	key, err := articleKeyFor(date, req.Article)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := s.content.SetCoverPhoto(r.Context(), claims(r), date, key, req.Image); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (s *Server) listIssueImages(w http.ResponseWriter, r *http.Request) {
	date, err := issueDate(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	images, err := s.content.ListImages(r.Context(), claims(r), date)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, images)
}

func (s *Server) publishNewsletter(w http.ResponseWriter, r *http.Request) {
	date, err := issueDate(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	var req struct {
		Description string `json:"description"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := s.publish.Publish(r.Context(), claims(r), date, req.Description); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

// sendNewsletter streams progress events while the send runs, one JSON
// object per line, finishing with a "done" event. Guard failures before the
// first email still map to plain HTTP errors.
func (s *Server) sendNewsletter(w http.ResponseWriter, r *http.Request) {
	date, err := issueDate(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	var req struct {
		Audience string `json:"audience"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	audience, err := publish.ParseAudience(req.Audience)
	if err != nil {
		writeError(w, err)
		return
	}

	flusher, _ := w.(http.Flusher)
	started := false
	enc := json.NewEncoder(w)
	progress := func(sent, total int) {
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			started = true
		}
		enc.Encode(map[string]int{"sent": sent, "total": total})
		if flusher != nil {
			flusher.Flush()
		}
	}

	sent, err := s.publish.Send(r.Context(), claims(r), date, audience, progress)
	if err != nil && !started {
		writeError(w, err)
		return
	}
	if err != nil {
		// Mid-stream failure: the status line is gone, report in-band.
		logger.Error("send failed mid-stream", "date", date, "error", err)
		enc.Encode(map[string]string{"error": err.Error()})
		return
	}
	if !started {
		w.Header().Set("Content-Type", "application/x-ndjson")
	}
	enc.Encode(map[string]any{"done": true, "sent": sent})
}
