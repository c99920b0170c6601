package cmsauth

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
)

var pages = template.Must(template.New("handshake").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><meta name="robots" content="noindex"><title>Authorizing…</title></head>
<body>
<p>Completing sign-in…</p>
<script>
(function () {
  var origin = {{.Origin}} || window.location.origin;
  var message = {{.Message}};
  if (!window.opener) {
    window.location.replace({{.Fallback}});
    return;
  }
  function receive(e) {
    if (e.origin !== origin) return;
    window.removeEventListener("message", receive, false);
    window.opener.postMessage(message, origin);
    window.close();
  }
  window.addEventListener("message", receive, false);
  window.opener.postMessage({{.Announce}}, origin);
})();
</script>
</body>
</html>
{{define "problem"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><meta name="robots" content="noindex"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Detail}}</p>
</body>
</html>
{{end}}`))

type handshake struct {
	Origin   string
	Message  string
	Fallback string
	Announce string
}

type problem struct {
	Title  string
	Detail string
}

// Handler serves the auth callback that hands the repository credential to
// the in-browser editor.
type Handler struct {
	token         string
	allowedOrigin string
	adminPath     string
	verifier      *Verifier
	log           *slog.Logger
}

type Option func(*Handler)

// WithAllowedOrigin restricts the handshake to one editor origin. By default
// the page only talks to its own origin.
func WithAllowedOrigin(origin string) Option {
	return func(h *Handler) { h.allowedOrigin = origin }
}

// WithIdentity requires a valid identity token before the credential is issued.
func WithIdentity(v *Verifier) Option {
	return func(h *Handler) { h.verifier = v }
}

func NewHandler(token string, log *slog.Logger, opts ...Option) *Handler {
	h := &Handler{token: token, adminPath: "/admin/", log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Referrer-Policy", "no-referrer")

	if h.token == "" {
		h.log.Error("auth callback not configured", "missing", "GITHUB_TOKEN")
		h.problem(w, http.StatusInternalServerError, problem{
			Title:  "CMS authentication is not configured",
			Detail: "The server setting GITHUB_TOKEN is missing. Set it in the deployment environment and try again.",
		})
		return
	}

	var editor Editor
	if h.verifier != nil {
		var err error
		editor, err = h.verifier.Verify(FromRequest(r))
		if err != nil {
			h.log.Warn("auth callback identity rejected", "error", err)
			h.problem(w, http.StatusUnauthorized, problem{
				Title:  "Sign-in required",
				Detail: "Log in to the site before opening the content editor.",
			})
			return
		}
	}

	msg, err := Message{Token: h.token, Provider: Provider}.Encode()
	if err != nil {
		h.log.Error("encode auth message", "error", err)
		h.problem(w, http.StatusInternalServerError, problem{Title: "Sign-in failed", Detail: "Please try again."})
		return
	}
	fragment := url.Values{"access_token": {h.token}, "provider": {Provider}}.Encode()

	var buf bytes.Buffer
	if err := pages.Execute(&buf, handshake{
		Origin:   h.allowedOrigin,
		Message:  msg,
		Fallback: h.adminPath + "#" + fragment,
		Announce: announce,
	}); err != nil {
		h.log.Error("render auth handshake", "error", err)
		h.problem(w, http.StatusInternalServerError, problem{Title: "Sign-in failed", Detail: "Please try again."})
		return
	}
	h.log.Info("cms credential issued", "editor_subject", editor.Subject, "editor_email", editor.Email)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *Handler) problem(w http.ResponseWriter, code int, p problem) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := pages.ExecuteTemplate(w, "problem", p); err != nil {
		h.log.Error("render problem page", "error", err)
	}
}
