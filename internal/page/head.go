package page

import (
	"strings"

	"github.com/dgallion1/weddingsite/internal/content"
)

// Site is the site-wide identity used by head metadata and chrome.
type Site struct {
	Name string
	URL  string
}

// Tag is one <meta> element. Exactly one of Name and Property is set.
type Tag struct {
	Name     string
	Property string
	Content  string
}

func (t Tag) key() string {
	if t.Property != "" {
		return t.Property
	}
	return t.Name
}

// Head is the metadata block of one page render.
type Head struct {
	Title     string
	Canonical string
	tags      []Tag
}

func NewHead(site Site, doc content.PageDocument) *Head {
	h := &Head{}
	h.Emit(site, doc)
	return h
}

// Set adds a tag or replaces the existing tag with the same key. Keys with a
// namespace prefix ("og:") are emitted as property tags.
func (h *Head) Set(key, value string) {
	t := Tag{Name: key, Content: value}
	if strings.HasPrefix(key, "og:") {
		t = Tag{Property: key, Content: value}
	}
	for i := range h.tags {
		if h.tags[i].key() == key {
			h.tags[i] = t
			return
		}
	}
	h.tags = append(h.tags, t)
}

func (h *Head) Get(key string) (string, bool) {
	for _, t := range h.tags {
		if t.key() == key {
			return t.Content, true
		}
	}
	return "", false
}

func (h *Head) Tags() []Tag {
	return append([]Tag(nil), h.tags...)
}

// Emit replaces every page-derived value with those of doc. Values left over
// from a previously emitted page never survive.
func (h *Head) Emit(site Site, doc content.PageDocument) {
	h.tags = h.tags[:0]
	seo := doc.SEO

	h.Title = seo.MetaTitle
	if h.Title == "" {
		h.Title = site.Name
		if doc.Title != "" && site.Name != "" {
			h.Title = doc.Title + " | " + site.Name
		}
	}
	h.Canonical = absolute(site.URL, doc.Path())

	if seo.MetaDescription != "" {
		h.Set("description", seo.MetaDescription)
	}
	if seo.Keywords != "" {
		h.Set("keywords", seo.Keywords)
	}

	h.Set("og:type", "website")
	h.Set("og:title", h.Title)
	if site.Name != "" {
		h.Set("og:site_name", site.Name)
	}
	if h.Canonical != "" {
		h.Set("og:url", h.Canonical)
	}
	if seo.MetaDescription != "" {
		h.Set("og:description", seo.MetaDescription)
	}

	card := "summary"
	if img := absolute(site.URL, seo.ShareImage.URL); img != "" {
		card = "summary_large_image"
		h.Set("og:image", img)
		h.Set("twitter:image", img)
		if seo.ShareImage.Alt != "" {
			h.Set("og:image:alt", seo.ShareImage.Alt)
		}
	}
	h.Set("twitter:card", card)
	h.Set("twitter:title", h.Title)
	if seo.MetaDescription != "" {
		h.Set("twitter:description", seo.MetaDescription)
	}
}

// absolute joins a site-relative path onto base. Already absolute URLs are
// returned as is; without a base only absolute URLs survive.
func absolute(base, path string) string {
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case base == "":
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
