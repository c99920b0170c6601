package api

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dgallion1/weddingsite/internal/config"
	"github.com/dgallion1/weddingsite/internal/content"
	"github.com/dgallion1/weddingsite/internal/forms"
	"github.com/dgallion1/weddingsite/internal/mailinglist"
	"github.com/dgallion1/weddingsite/internal/metrics"
	"github.com/dgallion1/weddingsite/internal/page"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators the HTTP layer routes to.
type Deps struct {
	Content  *content.Holder
	Composer *page.Composer
	Mailing  *mailinglist.Client
	// Collector receives RSVPs; nil logs them only.
	Collector    forms.Sink
	RepoProxy    http.Handler
	AuthCallback http.Handler
	Static       fs.FS
	AdminIndex   []byte
	CMSConfig    []byte
}

// Server is the HTTP server for the site.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.log))
	r.Use(metrics.InstrumentHandler)

	r.Get("/health", s.handleHealth)
	r.Group(func(r chi.Router) {
		if s.cfg.MetricsToken != "" {
			r.Use(AuthMiddleware(s.cfg.MetricsToken, s.log))
		}
		r.Handle("/metrics", metrics.Handler())
	})

	r.Handle("/static/*", http.StripPrefix("/static/", staticHandler(s.deps.Static)))
	r.Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/", http.StatusMovedPermanently)
	})
	r.Get("/admin/", s.handleAdmin)
	r.Get("/admin/config.yml", s.handleCMSConfig)

	// Editor-facing endpoints called cross-origin from the CMS.
	r.Group(func(r chi.Router) {
		r.Use(CORS(s.cfg.CORSOrigins))
		r.Handle("/auth-callback", s.deps.AuthCallback)
		r.Handle("/github-proxy", s.deps.RepoProxy)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestSize(s.cfg.MaxFormBytes))
		r.Post("/", s.handleFormPost)
		r.Post("/api/newsletter/hero", s.handleHeroSignup)
		r.Post("/api/newsletter/signup", s.handleSignup)
		r.Post("/api/partnership/inquiry", s.handlePartnershipInquiry)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5, "text/html"))
		r.Get("/", s.handlePage)
		r.Get("/*", s.handlePage)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"pages":  s.deps.Content.Load().Len(),
	})
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(s.deps.AdminIndex)
}

func (s *Server) handleCMSConfig(w http.ResponseWriter, r *http.Request) {
	if len(s.deps.CMSConfig) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/yaml; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(s.deps.CMSConfig)
}

// staticHandler serves files only; directory paths are not listed.
func staticHandler(fsys fs.FS) http.Handler {
	if fsys == nil {
		return http.NotFoundHandler()
	}
	files := http.FileServer(http.FS(fsys))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		if st, err := fs.Stat(fsys, strings.TrimPrefix(r.URL.Path, "/")); err != nil || st.IsDir() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
