package github

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
)

func TestBuild(t *testing.T) {
	target := Target{Repo: "ana/wedding", Branch: "main"}
	tests := []struct {
		action string
		query  url.Values
		method string
		path   string
		body   bool
	}{
		{"user", nil, http.MethodGet, "/user", false},
		{"repo", nil, http.MethodGet, "/repos/ana/wedding", false},
		{"branch", nil, http.MethodGet, "/repos/ana/wedding/branches/main", false},
		{"branch", url.Values{"branch": {"feature/rsvp"}}, http.MethodGet, "/repos/ana/wedding/branches/feature/rsvp", false},
		{"tree", url.Values{"sha": {"abc123"}}, http.MethodGet, "/repos/ana/wedding/git/trees/abc123", false},
		{"tree", url.Values{"sha": {"abc123"}, "recursive": {"1"}}, http.MethodGet, "/repos/ana/wedding/git/trees/abc123?recursive=1", false},
		{"blob", url.Values{"sha": {"def456"}}, http.MethodGet, "/repos/ana/wedding/git/blobs/def456", false},
		{"contents", url.Values{"path": {"/site/content/pages/home.json"}, "ref": {"main"}}, http.MethodGet, "/repos/ana/wedding/contents/site/content/pages/home.json?ref=main", false},
		{"contents", url.Values{"path": {"our story.json"}}, http.MethodGet, "/repos/ana/wedding/contents/our%20story.json", false},
		{"commit", nil, http.MethodPost, "/repos/ana/wedding/git/commits", true},
		{"ref", nil, http.MethodPatch, "/repos/ana/wedding/git/refs/heads/main", true},
		{"createTree", nil, http.MethodPost, "/repos/ana/wedding/git/trees", true},
	}
	for _, tt := range tests {
		t.Run(tt.action+" "+tt.path, func(t *testing.T) {
			call, err := Build(tt.action, target, tt.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if call.Method != tt.method || call.Path != tt.path || call.Body != tt.body {
				t.Errorf("expected %s %s body=%v, got %s %s body=%v", tt.method, tt.path, tt.body, call.Method, call.Path, call.Body)
			}
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	target := Target{Repo: "ana/wedding", Branch: "main"}
	if _, err := Build("bogus", target, nil); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
	tests := []struct {
		action string
		query  url.Values
		param  string
	}{
		{"tree", nil, "sha"},
		{"blob", url.Values{"sha": {"  "}}, "sha"},
		{"contents", url.Values{"path": {"site/../secrets"}}, "path"},
		{"ref", url.Values{"branch": {".."}}, "branch"},
	}
	for _, tt := range tests {
		_, err := Build(tt.action, target, tt.query)
		var pe *ParamError
		if !errors.As(err, &pe) || pe.Param != tt.param {
			t.Errorf("%s: expected param error for %s, got %v", tt.action, tt.param, err)
		}
	}
}

func TestActions_FixedSet(t *testing.T) {
	want := []string{"blob", "branch", "commit", "contents", "createTree", "ref", "repo", "tree", "user"}
	got := Actions()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
			break
		}
	}
}
