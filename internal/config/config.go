package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Site
	SiteName string
	SiteURL  string

	// Content store
	ContentDir    string
	CMSConfigPath string
	ContentWatch  bool

	// Render
	SectionPlaceholders bool

	// CMS auth bridge and repository proxy. Secrets are optional at startup;
	// the handlers report a configuration error per request when absent.
	GitHubToken       string
	GitHubRepo        string
	GitHubBranch      string
	GitHubAPIURL      string
	CMSAllowedOrigin  string
	IdentityJWTSecret string
	CORSOrigins       []string

	// Forms
	FormCollectorURL  string
	MailingListAPIURL string
	MailingListAPIKey string
	MaxFormBytes      int64

	UpstreamTimeout time.Duration

	// MetricsToken, when set, is required as a bearer token on /metrics.
	MetricsToken string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8080"),

		SiteName: envOr("SITE_NAME", "Our Wedding"),
		SiteURL:  strings.TrimSuffix(envOr("SITE_URL", "http://localhost:8080"), "/"),

		ContentDir:    envOr("CONTENT_DIR", "site/content/pages"),
		CMSConfigPath: envOr("CMS_CONFIG_PATH", "site/admin/config.yml"),
		ContentWatch:  envBool("CONTENT_WATCH", false),

		SectionPlaceholders: envBool("SECTION_PLACEHOLDERS", false),

		GitHubToken:       os.Getenv("GITHUB_TOKEN"),
		GitHubRepo:        os.Getenv("GITHUB_REPO"),
		GitHubBranch:      envOr("GITHUB_BRANCH", "main"),
		GitHubAPIURL:      strings.TrimSuffix(envOr("GITHUB_API_URL", "https://api.github.com"), "/"),
		CMSAllowedOrigin:  os.Getenv("CMS_ALLOWED_ORIGIN"),
		IdentityJWTSecret: os.Getenv("IDENTITY_JWT_SECRET"),
		CORSOrigins:       envList("CORS_ALLOWED_ORIGINS", nil),

		FormCollectorURL:  os.Getenv("FORM_COLLECTOR_URL"),
		MailingListAPIURL: strings.TrimSuffix(os.Getenv("MAILING_LIST_API_URL"), "/"),
		MailingListAPIKey: os.Getenv("MAILING_LIST_API_KEY"),
		MaxFormBytes:      envInt64("MAX_FORM_BYTES", 64*1024),

		UpstreamTimeout: envDuration("UPSTREAM_TIMEOUT", 15*time.Second),

		MetricsToken: os.Getenv("METRICS_TOKEN"),
	}

	if cfg.MaxFormBytes <= 0 {
		cfg.MaxFormBytes = 64 * 1024
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 15 * time.Second
	}
	if cfg.GitHubBranch == "" {
		cfg.GitHubBranch = "main"
	}
	// The editor is served from the site itself; other origins opt in.
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{siteOrigin(cfg.SiteURL)}
	}

	return cfg
}

// siteOrigin reduces a site URL to the scheme://host form browsers send.
func siteOrigin(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return siteURL
	}
	return u.Scheme + "://" + u.Host
}

// Validate reports settings that make the server unable to start. Missing
// repository credentials are not among them.
func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.ContentDir == "" {
		return fmt.Errorf("CONTENT_DIR is required")
	}
	if u, err := url.Parse(c.SiteURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SITE_URL must be an absolute URL, got %q", c.SiteURL)
	}
	if c.GitHubRepo != "" && !validRepo(c.GitHubRepo) {
		return fmt.Errorf("GITHUB_REPO must have the form owner/repo, got %q", c.GitHubRepo)
	}
	if c.MailingListAPIURL != "" && c.MailingListAPIKey == "" {
		return fmt.Errorf("MAILING_LIST_API_KEY is required when MAILING_LIST_API_URL is set")
	}
	return nil
}

func validRepo(s string) bool {
	owner, repo, ok := strings.Cut(s, "/")
	return ok && owner != "" && repo != "" && !strings.Contains(repo, "/")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
