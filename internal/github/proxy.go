package github

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgallion1/weddingsite/internal/cmsauth"
	"github.com/dgallion1/weddingsite/internal/metrics"
)

// Proxy relays a fixed set of repository actions from the in-browser editor
// to the hosting API. It holds the credential; the browser never sees it.
//
// Callers must present the credential issued by the auth callback as
// "Authorization: token <t>" or "Authorization: Bearer <t>".
type Proxy struct {
	client   *Client
	target   Target
	maxBody  int64
	verifier *cmsauth.Verifier
	log      *slog.Logger
}

type ProxyOption func(*Proxy)

// WithIdentity additionally requires a valid editor identity token, the
// same one the auth callback checks.
func WithIdentity(v *cmsauth.Verifier) ProxyOption {
	return func(p *Proxy) { p.verifier = v }
}

func NewProxy(client *Client, target Target, maxBody int64, log *slog.Logger, opts ...ProxyOption) *Proxy {
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	p := &Proxy{client: client, target: target, maxBody: maxBody, log: log}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// authorized reports whether r carries the issued credential and, when an
// identity verifier is set, a valid editor identity.
func (p *Proxy) authorized(r *http.Request) error {
	presented := presentedToken(r.Header.Get("Authorization"))
	if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(p.client.token)) != 1 {
		return errors.New("missing or invalid credential")
	}
	if p.verifier != nil {
		if _, err := p.verifier.Verify(cmsauth.FromRequest(r)); err != nil {
			return err
		}
	}
	return nil
}

func presentedToken(header string) string {
	scheme, value, ok := strings.Cut(header, " ")
	if !ok {
		return ""
	}
	switch strings.ToLower(scheme) {
	case "bearer", "token":
		return strings.TrimSpace(value)
	}
	return ""
}

// missing lists the unset settings the proxy needs.
func (p *Proxy) missing() []string {
	var out []string
	if !p.client.Configured() {
		out = append(out, "GITHUB_TOKEN")
	}
	if p.target.Repo == "" {
		out = append(out, "GITHUB_REPO")
	}
	return out
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	name := r.URL.Query().Get("action")
	if !Known(name) {
		metrics.RecordProxyRequest("unknown", http.StatusBadRequest)
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "unknown action",
			"action":  name,
			"allowed": Actions(),
		})
		return
	}
	log := p.log.With("action", name)

	if missing := p.missing(); len(missing) > 0 {
		log.Error("repository proxy not configured", "missing", missing)
		metrics.RecordProxyRequest(name, http.StatusInternalServerError)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "repository proxy is not configured",
			"missing": missing,
		})
		return
	}

	if err := p.authorized(r); err != nil {
		log.Warn("repository proxy call rejected", "error", err)
		metrics.RecordProxyRequest(name, http.StatusUnauthorized)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	call, err := Build(name, p.target, r.URL.Query())
	if err != nil {
		var pe *ParamError
		if errors.As(err, &pe) {
			metrics.RecordProxyRequest(name, http.StatusBadRequest)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": pe.Error()})
			return
		}
		metrics.RecordProxyRequest(name, http.StatusInternalServerError)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	var body io.Reader
	if call.Body {
		body = http.MaxBytesReader(w, r.Body, p.maxBody)
	}
	resp, err := p.client.Do(r.Context(), call, body)
	if err != nil {
		log.Error("upstream request failed", "method", call.Method, "error", err)
		metrics.RecordProxyRequest(name, http.StatusInternalServerError)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":  "upstream request failed",
			"detail": err.Error(),
		})
		return
	}

	defer resp.Body.Close()

	metrics.RecordProxyRequest(name, resp.StatusCode)
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	if resp.ContentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	}
	w.WriteHeader(resp.StatusCode)
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		// Headers are out; the client sees a short body and a reset.
		log.Error("relay interrupted", "method", call.Method, "status", resp.StatusCode, "bytes", n, "error", err)
		return
	}
	log.Info("proxied", "method", call.Method, "status", resp.StatusCode, "bytes", n)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
