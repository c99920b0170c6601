package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/dgallion1/weddingsite/internal/content"
)

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	store := s.deps.Content.Load()
	nav := store.NavPages()

	doc, err := store.Resolve(content.NormalizeSlug(r.URL.Path))
	if errors.Is(err, content.ErrNotFound) {
		s.renderNotFound(w, nav)
		return
	}
	if err != nil {
		s.log.Error("resolve page", "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.deps.Composer.Render(&buf, doc, nav); err != nil {
		s.log.Error("render page", "slug", doc.Slug, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderNotFound(w http.ResponseWriter, nav []content.PageDocument) {
	var buf bytes.Buffer
	if err := s.deps.Composer.RenderNotFound(&buf, nav); err != nil {
		s.log.Error("render not found page", "error", err)
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = buf.WriteTo(w)
}
