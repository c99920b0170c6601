package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/weddingsite/internal/api"
	"github.com/dgallion1/weddingsite/internal/cmsauth"
	"github.com/dgallion1/weddingsite/internal/cmsconfig"
	"github.com/dgallion1/weddingsite/internal/config"
	"github.com/dgallion1/weddingsite/internal/content"
	"github.com/dgallion1/weddingsite/internal/forms"
	"github.com/dgallion1/weddingsite/internal/github"
	"github.com/dgallion1/weddingsite/internal/mailinglist"
	"github.com/dgallion1/weddingsite/internal/metrics"
	"github.com/dgallion1/weddingsite/internal/page"
	"github.com/dgallion1/weddingsite/internal/section"
	"github.com/dgallion1/weddingsite/web"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Content and rendering.
	store, err := content.LoadDir(cfg.ContentDir)
	if err != nil {
		log.Error("load content", "dir", cfg.ContentDir, "error", err)
		os.Exit(1)
	}
	holder := content.NewHolder(store)
	metrics.SetContentPages(store.Len())

	tmpl, err := web.Templates()
	if err != nil {
		log.Error("parse templates", "error", err)
		os.Exit(1)
	}
	var regOpts []section.Option
	if cfg.SectionPlaceholders {
		regOpts = append(regOpts, section.WithPlaceholders())
	}
	registry, err := section.NewRegistry(tmpl, log, regOpts...)
	if err != nil {
		log.Error("build section registry", "error", err)
		os.Exit(1)
	}
	audit(log, registry, store)
	composer := page.NewComposer(tmpl, registry, page.Site{Name: cfg.SiteName, URL: cfg.SiteURL}, log)

	var cmsRaw []byte
	if cms, err := cmsconfig.Load(cfg.CMSConfigPath); err != nil {
		log.Warn("cms config unavailable, /admin/config.yml disabled", "path", cfg.CMSConfigPath, "error", err)
	} else {
		// Collection paths are relative to the repository root.
		for _, p := range cms.Check(".", cfg.GitHubRepo) {
			log.Warn("cms config", "problem", p)
		}
		cmsRaw = cms.Raw
	}

	// Upstream clients.
	mailing := mailinglist.NewClient(cfg.MailingListAPIURL, cfg.MailingListAPIKey, cfg.UpstreamTimeout, log)
	var collector forms.Sink
	if cfg.FormCollectorURL != "" {
		collector = forms.NewCollectorSink(cfg.FormCollectorURL, &http.Client{Timeout: cfg.UpstreamTimeout})
	}
	var authOpts []cmsauth.Option
	var proxyOpts []github.ProxyOption
	if cfg.CMSAllowedOrigin != "" {
		authOpts = append(authOpts, cmsauth.WithAllowedOrigin(cfg.CMSAllowedOrigin))
	}
	if cfg.IdentityJWTSecret != "" {
		verifier := cmsauth.NewVerifier(cfg.IdentityJWTSecret)
		authOpts = append(authOpts, cmsauth.WithIdentity(verifier))
		proxyOpts = append(proxyOpts, github.WithIdentity(verifier))
	}

	gh := github.NewClient(cfg.GitHubAPIURL, cfg.GitHubToken, cfg.UpstreamTimeout)
	proxy := github.NewProxy(gh, github.Target{Repo: cfg.GitHubRepo, Branch: cfg.GitHubBranch}, 0, log, proxyOpts...)
	authCallback := cmsauth.NewHandler(cfg.GitHubToken, log, authOpts...)

	if cfg.ContentWatch {
		w := content.NewWatcher(cfg.ContentDir, holder, log)
		w.OnReload = func(s *content.Store, err error) {
			metrics.RecordContentReload(err == nil)
			if err != nil {
				return
			}
			metrics.SetContentPages(s.Len())
			audit(log, registry, s)
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Error("content watcher stopped", "error", err)
			}
		}()
	}

	srv := api.NewServer(api.Deps{
		Content:      holder,
		Composer:     composer,
		Mailing:      mailing,
		Collector:    collector,
		RepoProxy:    proxy,
		AuthCallback: authCallback,
		Static:       web.Static(),
		AdminIndex:   web.AdminIndex,
		CMSConfig:    cmsRaw,
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		mailing.Close()
		gh.Close()
	}()

	log.Info("starting weddingsite", "port", cfg.Port, "pages", store.Len())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// audit logs content that will render with defaults or be skipped.
func audit(log *slog.Logger, registry *section.Registry, store *content.Store) {
	for _, f := range registry.Audit(store.Pages()) {
		log.Warn("content check", "slug", f.Slug, "section", f.Index, "type", f.Type, "problem", f.Problem)
	}
}
