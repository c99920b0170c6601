package section

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"sort"

	"github.com/dgallion1/weddingsite/internal/content"
	"github.com/dgallion1/weddingsite/internal/metrics"
	"github.com/tidwall/gjson"
)

// Callbacks are the page-level actions every section may trigger. They are
// expressed as in-page hrefs so sections never know about page state.
type Callbacks struct {
	ScrollToSignup  string
	ScrollToRSVP    string
	OpenPartnership string
}

func DefaultCallbacks() Callbacks {
	return Callbacks{
		ScrollToSignup:  "#signup",
		ScrollToRSVP:    "#rsvp",
		OpenPartnership: "#partnership",
	}
}

// Kind describes one registered section type.
type Kind struct {
	Name     string
	Template string
	New      func() Section

	// Required lists gjson paths authored content is expected to carry.
	// Missing paths are reported by Check; rendering still falls back to defaults.
	Required []string
	Items    string
	ItemKeys []string
}

var builtinKinds = []Kind{
	{Name: "hero", Template: "section-hero", New: func() Section { return &Hero{} }, Required: []string{"heading"}},
	{Name: "richText", Template: "section-richtext", New: func() Section { return &RichText{} }, Required: []string{"body"}},
	{Name: "story", Template: "section-story", New: func() Section { return &Story{} }, Required: []string{"body"}},
	{Name: "timeline", Template: "section-timeline", New: func() Section { return &Timeline{} }, Required: []string{"events"}, Items: "events", ItemKeys: []string{"title", "time"}},
	{Name: "faq", Template: "section-faq", New: func() Section { return &FAQ{} }, Required: []string{"items"}, Items: "items", ItemKeys: []string{"question", "answer"}},
	{Name: "gallery", Template: "section-gallery", New: func() Section { return &Gallery{} }, Required: []string{"images"}, Items: "images", ItemKeys: []string{"url", "alt"}},
	{Name: "features", Template: "section-features", New: func() Section { return &Features{} }, Required: []string{"heading", "items"}, Items: "items", ItemKeys: []string{"title"}},
	{Name: "audiences", Template: "section-audiences", New: func() Section { return &Audiences{} }, Required: []string{"segments"}, Items: "segments", ItemKeys: []string{"title", "description"}},
	{Name: "quickLinks", Template: "section-quicklinks", New: func() Section { return &QuickLinks{} }, Required: []string{"links"}, Items: "links", ItemKeys: []string{"label", "href"}},
	{Name: "rsvp", Template: "section-rsvp", New: func() Section { return &RSVP{} }},
	{Name: "newsletter", Template: "section-newsletter", New: func() Section { return &Newsletter{} }},
	{Name: "partnership", Template: "section-partnership", New: func() Section { return &Partnership{} }},
	{Name: "cta", Template: "section-cta", New: func() Section { return &CTA{} }, Required: []string{"heading"}},
}

// Registry maps section type names to kinds. It is fully built by
// NewRegistry and never mutated afterwards.
type Registry struct {
	kinds        map[string]Kind
	extra        []Kind
	tmpl         *template.Template
	md           *Markdown
	log          *slog.Logger
	placeholders bool
}

type Option func(*Registry)

// WithPlaceholders renders a hidden marker element for unknown types instead
// of nothing.
func WithPlaceholders() Option {
	return func(r *Registry) { r.placeholders = true }
}

// withKinds registers additional kinds alongside the built-in ones. Kinds
// implement an unexported method, so only this package can supply them.
func withKinds(kinds ...Kind) Option {
	return func(r *Registry) { r.extra = append(r.extra, kinds...) }
}

func NewRegistry(tmpl *template.Template, log *slog.Logger, opts ...Option) (*Registry, error) {
	r := &Registry{
		kinds: make(map[string]Kind),
		tmpl:  tmpl,
		md:    NewMarkdown(log),
		log:   log,
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, k := range append(append([]Kind(nil), builtinKinds...), r.extra...) {
		if err := r.register(k); err != nil {
			return nil, err
		}
	}
	r.extra = nil
	return r, nil
}

func (r *Registry) register(k Kind) error {
	switch {
	case k.Name == "":
		return fmt.Errorf("section kind without a name")
	case k.New == nil:
		return fmt.Errorf("section kind %q has no constructor", k.Name)
	case r.tmpl == nil || r.tmpl.Lookup(k.Template) == nil:
		return fmt.Errorf("section kind %q: template %q not defined", k.Name, k.Template)
	}
	if _, exists := r.kinds[k.Name]; exists {
		return fmt.Errorf("section kind %q already registered", k.Name)
	}
	r.kinds[k.Name] = k
	return nil
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Decode turns a record into its typed section with defaults applied.
// Unregistered types decode to Unknown; malformed content for a known type
// decodes to the kind's defaults.
func (r *Registry) Decode(rec content.SectionRecord, cb Callbacks) Section {
	k, ok := r.kinds[rec.Type]
	if !ok {
		return Unknown{Name: rec.Type}
	}
	s := k.New()
	if len(rec.Content) > 0 {
		if err := json.Unmarshal(rec.Content, s); err != nil {
			r.log.Warn("malformed section content, using defaults", "type", rec.Type, "error", err)
			s = k.New()
		}
	}
	s.normalize(&env{md: r.md, cb: cb})
	return s
}

// Render produces the HTML for one section. It never fails: unknown types,
// template errors and panics all yield empty output and a log line.
func (r *Registry) Render(rec content.SectionRecord, cb Callbacks) (out template.HTML) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("section render panicked", "type", rec.Type, "panic", fmt.Sprint(p))
			metrics.RecordSectionRender(rec.Type, "error")
			out = ""
		}
	}()

	switch s := r.Decode(rec, cb).(type) {
	case Unknown:
		r.log.Warn("unknown section type, skipping", "type", s.Name)
		metrics.RecordSectionRender("unknown", "skipped")
		if r.placeholders {
			return template.HTML(`<div class="section-missing" data-section-type="` + template.HTMLEscapeString(s.Name) + `" hidden></div>`)
		}
		return ""
	default:
		k := r.kinds[rec.Type]
		var buf bytes.Buffer
		if err := r.tmpl.ExecuteTemplate(&buf, k.Template, s); err != nil {
			r.log.Error("section template failed", "type", rec.Type, "error", err)
			metrics.RecordSectionRender(rec.Type, "error")
			return ""
		}
		metrics.RecordSectionRender(rec.Type, "ok")
		return template.HTML(buf.String())
	}
}

// Check reports schema problems in authored content without changing it.
func (r *Registry) Check(rec content.SectionRecord) []string {
	if rec.Type == "" {
		return []string{"section has no type"}
	}
	k, ok := r.kinds[rec.Type]
	if !ok {
		return []string{fmt.Sprintf("unknown section type %q", rec.Type)}
	}
	if !gjson.ValidBytes(rec.Content) {
		return []string{fmt.Sprintf("%s: content is not valid JSON", rec.Type)}
	}

	var problems []string
	for _, path := range k.Required {
		v := gjson.GetBytes(rec.Content, path)
		if !v.Exists() || (v.Type == gjson.String && v.Str == "") {
			problems = append(problems, fmt.Sprintf("%s: missing %q", rec.Type, path))
		}
	}
	if k.Items == "" {
		return problems
	}
	items := gjson.GetBytes(rec.Content, k.Items)
	if !items.Exists() {
		return problems
	}
	if !items.IsArray() {
		return append(problems, fmt.Sprintf("%s: %q should be a list", rec.Type, k.Items))
	}
	for i, item := range items.Array() {
		for _, key := range k.ItemKeys {
			if !item.Get(key).Exists() {
				problems = append(problems, fmt.Sprintf("%s: %s[%d] missing %q", rec.Type, k.Items, i, key))
			}
		}
	}
	return problems
}

// Finding is one schema problem located in a document.
type Finding struct {
	Slug    string
	Index   int
	Type    string
	Problem string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: section %d (%s): %s", f.Slug, f.Index, f.Type, f.Problem)
}

// Audit runs Check over every section of every document.
func (r *Registry) Audit(docs []content.PageDocument) []Finding {
	var out []Finding
	for _, doc := range docs {
		for i, rec := range doc.Sections {
			for _, p := range r.Check(rec) {
				out = append(out, Finding{Slug: doc.Slug, Index: i, Type: rec.Type, Problem: p})
			}
		}
	}
	return out
}
