package github

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/weddingsite/internal/cmsauth"
	"github.com/golang-jwt/jwt/v5"
)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type upstream struct {
	srv   *httptest.Server
	calls atomic.Int32
}

func newUpstream(t *testing.T, h http.HandlerFunc) *upstream {
	t.Helper()
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func newTestProxy(baseURL, token, repo string) *Proxy {
	return NewProxy(NewClient(baseURL, token, time.Second), Target{Repo: repo, Branch: "main"}, 0, quietLog())
}

// editorRequest carries the credential the auth callback hands the editor.
func editorRequest(method, target, token string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "token "+token)
	return req
}

func TestProxy_UnknownActionMakesNoCall(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {})
	p := newTestProxy(up.srv.URL, "tok", "ana/wedding")

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/github-proxy?action=bogus", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if up.calls.Load() != 0 {
		t.Errorf("expected zero upstream calls, got %d", up.calls.Load())
	}
}

func TestProxy_UnknownActionBeforeConfigCheck(t *testing.T) {
	p := newTestProxy("http://127.0.0.1:0", "", "")
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/github-proxy?action=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown action even when unconfigured, got %d", rec.Code)
	}
}

func TestProxy_MissingConfig(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {})
	tests := []struct {
		name, token, repo, missing string
	}{
		{"no token", "", "ana/wedding", "GITHUB_TOKEN"},
		{"no repo", "tok", "", "GITHUB_REPO"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestProxy(up.srv.URL, tc.token, tc.repo)
			rec := httptest.NewRecorder()
			p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/github-proxy?action=user", nil))
			if rec.Code != http.StatusInternalServerError {
				t.Errorf("expected 500, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.missing) {
				t.Errorf("expected body to name %s, got %s", tc.missing, rec.Body.String())
			}
		})
	}
	if up.calls.Load() != 0 {
		t.Errorf("expected zero upstream calls, got %d", up.calls.Load())
	}
}

func TestProxy_PassesThroughUpstreamResponse(t *testing.T) {
	const notFound = `{"message":"Not Found","documentation_url":"https://docs.github.com/rest"}`
	seen := make(chan string, 1)
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Method + " " + r.URL.RequestURI() + " " + r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, notFound)
	})
	p := newTestProxy(up.srv.URL, "tok", "ana/wedding")

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, editorRequest(http.MethodGet, "/github-proxy?action=contents&path=missing.json&ref=main", "tok", nil))

	if got := <-seen; got != "GET /repos/ana/wedding/contents/missing.json?ref=main Bearer tok" {
		t.Errorf("unexpected upstream request %q", got)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected upstream 404 relayed, got %d", rec.Code)
	}
	if rec.Body.String() != notFound {
		t.Errorf("expected body unchanged, got %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("expected upstream content type, got %q", ct)
	}
}

func TestProxy_ForwardsWriteBody(t *testing.T) {
	seen := make(chan string, 1)
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen <- r.Method + " " + r.URL.Path + " " + string(b)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"sha":"new"}`)
	})
	p := newTestProxy(up.srv.URL, "tok", "ana/wedding")

	body := `{"message":"Update home","tree":"t1","parents":["p1"]}`
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, editorRequest(http.MethodPost, "/github-proxy?action=commit", "tok", strings.NewReader(body)))

	if got := <-seen; got != "POST /repos/ana/wedding/git/commits "+body {
		t.Errorf("unexpected upstream request %q", got)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestProxy_NetworkFailure(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {})
	up.srv.Close()
	p := newTestProxy(up.srv.URL, "secret-token", "ana/wedding")

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, editorRequest(http.MethodGet, "/github-proxy?action=user", "secret-token", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "upstream request failed" || body["detail"] == "" {
		t.Errorf("expected error with detail, got %v", body)
	}
	if strings.Contains(rec.Body.String(), "secret-token") {
		t.Error("expected token to stay out of the response")
	}
}

func TestProxy_BadParams(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {})
	p := newTestProxy(up.srv.URL, "tok", "ana/wedding")
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, editorRequest(http.MethodGet, "/github-proxy?action=blob", "tok", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing sha, got %d", rec.Code)
	}
	if up.calls.Load() != 0 {
		t.Errorf("expected zero upstream calls, got %d", up.calls.Load())
	}
}

func TestProxy_Preflight(t *testing.T) {
	p := newTestProxy("http://127.0.0.1:0", "", "")
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/github-proxy?action=user", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestProxy_RejectsAnonymousWrite(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	p := newTestProxy(up.srv.URL, "tok", "ana/wedding")

	body := `{"message":"deface","tree":"t1","parents":["p1"]}`
	tests := []struct {
		name, auth string
	}{
		{"no header", ""},
		{"wrong token", "token nope"},
		{"bare token", "tok"},
		{"basic scheme", "Basic dG9rOg=="},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/github-proxy?action=commit", strings.NewReader(body))
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			p.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
	if up.calls.Load() != 0 {
		t.Errorf("expected zero upstream calls, got %d", up.calls.Load())
	}
}

func TestProxy_AcceptsBearerScheme(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"login":"ana"}`)
	})
	p := newTestProxy(up.srv.URL, "tok", "ana/wedding")

	req := httptest.NewRequest(http.MethodGet, "/github-proxy?action=user", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func identityToken(t *testing.T, secret string) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "ana", "exp": time.Now().Add(time.Hour).Unix()}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestProxy_IdentityRequired(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"login":"ana"}`)
	})
	p := NewProxy(NewClient(up.srv.URL, "tok", time.Second), Target{Repo: "ana/wedding", Branch: "main"}, 0,
		quietLog(), WithIdentity(cmsauth.NewVerifier("s3cret")))

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, editorRequest(http.MethodGet, "/github-proxy?action=user", "tok", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without identity, got %d", rec.Code)
	}

	req := editorRequest(http.MethodGet, "/github-proxy?action=user", "tok", nil)
	req.AddCookie(&http.Cookie{Name: "nf_jwt", Value: identityToken(t, "wrong")})
	rec = httptest.NewRecorder()
	p.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for foreign identity, got %d", rec.Code)
	}
	if up.calls.Load() != 0 {
		t.Errorf("expected zero upstream calls, got %d", up.calls.Load())
	}

	req = editorRequest(http.MethodGet, "/github-proxy?action=user", "tok", nil)
	req.AddCookie(&http.Cookie{Name: "nf_jwt", Value: identityToken(t, "s3cret")})
	rec = httptest.NewRecorder()
	p.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with identity, got %d", rec.Code)
	}
}

func TestProxy_RelaysLargeBodyIntact(t *testing.T) {
	large := bytes.Repeat([]byte("0123456789abcdef"), (33<<20)/16+7)
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.github.raw")
		_, _ = w.Write(large)
	})
	p := newTestProxy(up.srv.URL, "tok", "ana/wedding")

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, editorRequest(http.MethodGet, "/github-proxy?action=blob&sha=abc", "tok", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() != len(large) {
		t.Fatalf("expected %d bytes relayed, got %d", len(large), rec.Body.Len())
	}
	if !bytes.Equal(rec.Body.Bytes(), large) {
		t.Error("expected body relayed byte for byte")
	}
}
