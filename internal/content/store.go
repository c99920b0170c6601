package content

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// DefaultSlug is the page served for the site root.
const DefaultSlug = "home"

var ErrNotFound = errors.New("page not found")

// Store is an immutable set of page documents keyed by slug.
type Store struct {
	pages    map[string]PageDocument
	order    []string
	dir      string
	loadedAt time.Time
}

// LoadDir reads every *.json file directly under dir as a PageDocument.
func LoadDir(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read content directory %q", dir)
	}

	var docs []PageDocument
	var sources []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		doc, err := readDocument(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
		sources = append(sources, path)
	}

	s, err := newStore(docs, sources)
	if err != nil {
		return nil, err
	}
	s.dir = dir
	return s, nil
}

// NewStore builds a store from in-memory documents.
func NewStore(docs []PageDocument) (*Store, error) {
	return newStore(docs, nil)
}

func newStore(docs []PageDocument, sources []string) (*Store, error) {
	s := &Store{
		pages:    make(map[string]PageDocument, len(docs)),
		loadedAt: time.Now(),
	}
	for i, doc := range docs {
		src := "document " + doc.Slug
		if i < len(sources) {
			src = sources[i]
		}
		if err := checkSlug(doc.Slug); err != nil {
			return nil, errors.Wrapf(err, "%s", src)
		}
		if _, dup := s.pages[doc.Slug]; dup {
			return nil, errors.Errorf("%s: duplicate slug %q", src, doc.Slug)
		}
		s.pages[doc.Slug] = doc
		s.order = append(s.order, doc.Slug)
	}

	sort.SliceStable(s.order, func(i, j int) bool {
		a, b := s.pages[s.order[i]], s.pages[s.order[j]]
		if (a.Slug == DefaultSlug) != (b.Slug == DefaultSlug) {
			return a.Slug == DefaultSlug
		}
		if a.NavOrder != b.NavOrder {
			return a.NavOrder < b.NavOrder
		}
		return a.Slug < b.Slug
	})
	return s, nil
}

func readDocument(path string) (PageDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return PageDocument{}, errors.Wrapf(err, "cannot open %q", path)
	}
	defer f.Close()

	var doc PageDocument
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return PageDocument{}, errors.Wrapf(err, "cannot parse %q", path)
	}
	return doc, nil
}

func checkSlug(slug string) error {
	switch {
	case slug == "":
		return errors.New("missing slug")
	case strings.HasPrefix(slug, "/") || strings.HasSuffix(slug, "/"):
		return errors.Errorf("slug %q must not start or end with /", slug)
	case strings.ContainsAny(slug, " \t\r\n?#\\"):
		return errors.Errorf("slug %q contains invalid characters", slug)
	}
	for _, seg := range strings.Split(slug, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return errors.Errorf("slug %q has an empty or dot segment", slug)
		}
	}
	return nil
}

// NormalizeSlug maps a request path to a lookup key. Only the surrounding
// slashes are removed; the root maps to DefaultSlug.
func NormalizeSlug(path string) string {
	slug := strings.Trim(path, "/")
	if slug == "" {
		return DefaultSlug
	}
	return slug
}

// Resolve returns the document for slug using an exact, case-sensitive match.
func (s *Store) Resolve(slug string) (PageDocument, error) {
	if slug == "" || slug == "/" {
		slug = DefaultSlug
	}
	doc, ok := s.pages[slug]
	if !ok {
		return PageDocument{}, ErrNotFound
	}
	return doc, nil
}

// Pages returns all documents, home first, then by navOrder and slug.
func (s *Store) Pages() []PageDocument {
	out := make([]PageDocument, 0, len(s.order))
	for _, slug := range s.order {
		out = append(out, s.pages[slug])
	}
	return out
}

// NavPages returns the documents flagged for the header navigation.
func (s *Store) NavPages() []PageDocument {
	var out []PageDocument
	for _, slug := range s.order {
		if p := s.pages[slug]; p.Nav {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) Len() int {
	return len(s.pages)
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) LoadedAt() time.Time {
	return s.loadedAt
}

// Holder publishes the current store. Readers always see a complete store.
type Holder struct {
	p atomic.Pointer[Store]
}

func NewHolder(s *Store) *Holder {
	h := &Holder{}
	h.p.Store(s)
	return h
}

func (h *Holder) Load() *Store {
	return h.p.Load()
}

func (h *Holder) Swap(s *Store) *Store {
	return h.p.Swap(s)
}
