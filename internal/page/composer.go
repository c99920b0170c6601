package page

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"time"

	"github.com/dgallion1/weddingsite/internal/content"
	"github.com/dgallion1/weddingsite/internal/section"
)

// View is everything the layout template needs for one page.
type View struct {
	Head     *Head
	Header   Header
	Sections []template.HTML
	Footer   Footer
}

// Composer assembles full pages from documents. It holds no per-request
// state and is safe for concurrent use.
type Composer struct {
	tmpl     *template.Template
	registry *section.Registry
	site     Site
	cb       section.Callbacks
	log      *slog.Logger
	now      func() time.Time
}

type Option func(*Composer)

func WithCallbacks(cb section.Callbacks) Option {
	return func(c *Composer) { c.cb = cb }
}

func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

func NewComposer(tmpl *template.Template, registry *section.Registry, site Site, log *slog.Logger, opts ...Option) *Composer {
	c := &Composer{
		tmpl:     tmpl,
		registry: registry,
		site:     site,
		cb:       section.DefaultCallbacks(),
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose renders each section in authored order and wraps the result with
// head metadata and chrome. nav is the list of pages linked from the header.
func (c *Composer) Compose(doc content.PageDocument, nav []content.PageDocument) View {
	v := View{
		Head:     NewHead(c.site, doc),
		Header:   newHeader(c.site, nav, doc.Slug),
		Sections: make([]template.HTML, 0, len(doc.Sections)),
		Footer:   newFooter(c.site, nav, c.now().Year()),
	}
	for _, rec := range doc.Sections {
		if out := c.registry.Render(rec, c.cb); out != "" {
			v.Sections = append(v.Sections, out)
		}
	}
	c.log.Debug("page composed", "slug", doc.Slug, "authored", len(doc.Sections), "rendered", len(v.Sections))
	return v
}

// Render writes the full page for doc. Nothing is written to w on error.
func (c *Composer) Render(w io.Writer, doc content.PageDocument, nav []content.PageDocument) error {
	return c.execute(w, "layout", c.Compose(doc, nav))
}

func (c *Composer) RenderNotFound(w io.Writer, nav []content.PageDocument) error {
	v := View{
		Head:   &Head{Title: notFoundTitle(c.site)},
		Header: newHeader(c.site, nav, ""),
		Footer: newFooter(c.site, nav, c.now().Year()),
	}
	v.Head.Set("robots", "noindex")
	return c.execute(w, "notfound", v)
}

func (c *Composer) execute(w io.Writer, name string, v View) error {
	var buf bytes.Buffer
	if err := c.tmpl.ExecuteTemplate(&buf, name, v); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func notFoundTitle(site Site) string {
	if site.Name == "" {
		return "Page not found"
	}
	return "Page not found | " + site.Name
}
