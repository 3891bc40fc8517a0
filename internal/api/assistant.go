package api

import (
	"io"
	"net/http"

	"github.com/ignite/newsletter-builder/internal/pkg/httputil"
	"github.com/ignite/newsletter-builder/internal/pkg/logger"
)

// maxPhotoBytes bounds the image accepted for description.
const maxPhotoBytes = 10 << 20

func (s *Server) describePhoto(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		httputil.BadRequest(w, "photo must be image/jpeg or image/png")
		return
	}
	image, err := io.ReadAll(io.LimitReader(r.Body, maxPhotoBytes))
	if err != nil {
		httputil.BadRequest(w, "reading photo: "+err.Error())
		return
	}
	alt, err := s.assistant.DescribePhoto(r.Context(), contentType, image)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"altText": alt})
}

func (s *Server) draftArticle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Notes == "" {
		httputil.BadRequest(w, "notes required")
		return
	}
	draft, err := s.assistant.DraftArticle(r.Context(), req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"draft": draft})
}

// reviewArticle streams the model's feedback as plain text fragments.
func (s *Server) reviewArticle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Draft string `json:"draft"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Draft == "" {
		httputil.BadRequest(w, "draft required")
		return
	}

	flusher, _ := w.(http.Flusher)
	started := false
	err := s.assistant.ReviewArticle(r.Context(), req.Draft, func(text string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			started = true
		}
		if _, err := io.WriteString(w, text); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil && !started {
		writeError(w, err)
		return
	}
	if err != nil {
		logger.Error("review stream failed", "error", err)
	}
}
