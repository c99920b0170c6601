package github

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// ErrUnknownAction is returned for action names outside the fixed table.
var ErrUnknownAction = errors.New("unknown action")

// ParamError is a missing or malformed query parameter.
type ParamError struct {
	Param string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("missing or invalid parameter %q", e.Param)
}

// Call is one resolved upstream request.
type Call struct {
	Action string
	Method string
	Path   string
	// Body is true when the client request body is forwarded upstream.
	Body bool
}

// Target identifies the repository the proxy is bound to.
type Target struct {
	Repo   string
	Branch string
}

type action struct {
	method string
	body   bool
	path   func(t Target, q url.Values) (string, error)
}

var actions = map[string]action{
	"user": {method: http.MethodGet, path: func(Target, url.Values) (string, error) {
		return "/user", nil
	}},
	"repo": {method: http.MethodGet, path: func(t Target, _ url.Values) (string, error) {
		return repoPath(t), nil
	}},
	"branch": {method: http.MethodGet, path: func(t Target, q url.Values) (string, error) {
		ref, err := branchRef(t, q)
		if err != nil {
			return "", err
		}
		return repoPath(t) + "/branches/" + ref, nil
	}},
	"tree": {method: http.MethodGet, path: func(t Target, q url.Values) (string, error) {
		sha, err := required(q, "sha")
		if err != nil {
			return "", err
		}
		p := repoPath(t) + "/git/trees/" + url.PathEscape(sha)
		if truthy(q.Get("recursive")) {
			p += "?recursive=1"
		}
		return p, nil
	}},
	"blob": {method: http.MethodGet, path: func(t Target, q url.Values) (string, error) {
		sha, err := required(q, "sha")
		if err != nil {
			return "", err
		}
		return repoPath(t) + "/git/blobs/" + url.PathEscape(sha), nil
	}},
	"contents": {method: http.MethodGet, path: func(t Target, q url.Values) (string, error) {
		p, err := contentPath(q.Get("path"))
		if err != nil {
			return "", err
		}
		p = repoPath(t) + "/contents/" + p
		if ref := q.Get("ref"); ref != "" {
			p += "?ref=" + url.QueryEscape(ref)
		}
		return p, nil
	}},
	"commit": {method: http.MethodPost, body: true, path: func(t Target, _ url.Values) (string, error) {
		return repoPath(t) + "/git/commits", nil
	}},
	"ref": {method: http.MethodPatch, body: true, path: func(t Target, q url.Values) (string, error) {
		ref, err := branchRef(t, q)
		if err != nil {
			return "", err
		}
		return repoPath(t) + "/git/refs/heads/" + ref, nil
	}},
	"createTree": {method: http.MethodPost, body: true, path: func(t Target, _ url.Values) (string, error) {
		return repoPath(t) + "/git/trees", nil
	}},
}

// Known reports whether name is in the action table.
func Known(name string) bool {
	_, ok := actions[name]
	return ok
}

// Actions lists the supported action names.
func Actions() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build resolves an action and its query parameters to exactly one upstream
// method and path.
func Build(name string, t Target, q url.Values) (Call, error) {
	a, ok := actions[name]
	if !ok {
		return Call{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	p, err := a.path(t, q)
	if err != nil {
		return Call{}, err
	}
	return Call{Action: name, Method: a.method, Path: p, Body: a.body}, nil
}

func repoPath(t Target) string {
	owner, name, _ := strings.Cut(t.Repo, "/")
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name)
}

// branchRef picks the branch from the query, falling back to the bound
// branch, and escapes it segment by segment so slashes survive.
func branchRef(t Target, q url.Values) (string, error) {
	b := q.Get("branch")
	if b == "" {
		b = t.Branch
	}
	p, err := contentPath(b)
	if err != nil || p == "" {
		return "", &ParamError{Param: "branch"}
	}
	return p, nil
}

func required(q url.Values, key string) (string, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return "", &ParamError{Param: key}
	}
	return v, nil
}

// contentPath escapes each segment of a repository path. Dot segments are
// rejected so a path cannot climb out of the contents endpoint.
func contentPath(p string) (string, error) {
	p = strings.Trim(p, "/")
	if p == "" {
		return "", nil
	}
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if s == "" || s == "." || s == ".." {
			return "", &ParamError{Param: "path"}
		}
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/"), nil
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	}
	return false
}
