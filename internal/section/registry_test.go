package section

import (
	"encoding/json"
	"html/template"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgallion1/weddingsite/internal/content"
	"github.com/dgallion1/weddingsite/web"
)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	tmpl, err := web.Templates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	r, err := NewRegistry(tmpl, quietLog(), opts...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r
}

func rec(typ, body string) content.SectionRecord {
	return content.SectionRecord{Type: typ, Content: json.RawMessage(body)}
}

func TestNewRegistry_AllKinds(t *testing.T) {
	r := newTestRegistry(t)
	want := []string{"audiences", "cta", "faq", "features", "gallery", "hero", "newsletter",
		"partnership", "quickLinks", "richText", "rsvp", "story", "timeline"}
	got := r.Types()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

type boom struct{}

func (boom) Type() string     { return "boom" }
func (boom) normalize(e *env) { panic("bad section") }

func TestNewRegistry_Errors(t *testing.T) {
	tmpl, err := web.Templates()
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		kind Kind
	}{
		{"duplicate", Kind{Name: "hero", Template: "section-hero", New: func() Section { return &Hero{} }}},
		{"missing template", Kind{Name: "boom", Template: "section-boom", New: func() Section { return boom{} }}},
		{"no constructor", Kind{Name: "boom", Template: "section-cta"}},
		{"no name", Kind{Template: "section-cta", New: func() Section { return boom{} }}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewRegistry(tmpl, quietLog(), withKinds(tc.kind)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRender_UnknownType(t *testing.T) {
	r := newTestRegistry(t)
	if out := r.Render(rec("carousel", `{"slides":[]}`), DefaultCallbacks()); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}

	withMarker := newTestRegistry(t, WithPlaceholders())
	out := string(withMarker.Render(rec(`x"><script>`, `{}`), DefaultCallbacks()))
	if !strings.Contains(out, `data-section-type=`) || strings.Contains(out, "<script>") {
		t.Errorf("expected escaped placeholder, got %q", out)
	}
}

func TestRender_HeroDefaults(t *testing.T) {
	r := newTestRegistry(t)
	out := string(r.Render(rec("hero", `{}`), DefaultCallbacks()))
	if !strings.Contains(out, "getting married") {
		t.Errorf("expected default heading, got %q", out)
	}
	if !strings.Contains(out, `href="#rsvp"`) {
		t.Errorf("expected CTA to target the RSVP anchor, got %q", out)
	}
	if !strings.Contains(out, "hero--dark") || !strings.Contains(out, "hero--center") {
		t.Errorf("expected default theme and alignment, got %q", out)
	}
}

func TestRender_CallbacksInjected(t *testing.T) {
	r := newTestRegistry(t)
	cb := Callbacks{ScrollToSignup: "#join", ScrollToRSVP: "#reply", OpenPartnership: "#work"}

	out := string(r.Render(rec("audiences", `{"segments":[{"title":"Vendors","description":"Say hi"}]}`), cb))
	if !strings.Contains(out, `href="#work"`) {
		t.Errorf("expected segment CTA to open partnership, got %q", out)
	}
	out = string(r.Render(rec("newsletter", `{}`), cb))
	if !strings.Contains(out, `id="join"`) {
		t.Errorf("expected newsletter anchor from callbacks, got %q", out)
	}
}

func TestDecode_MalformedContentFallsBack(t *testing.T) {
	r := newTestRegistry(t)
	s := r.Decode(rec("faq", `{"items":"not a list"}`), DefaultCallbacks())
	faq, ok := s.(*FAQ)
	if !ok {
		t.Fatalf("expected *FAQ, got %T", s)
	}
	if faq.Heading != "Frequently asked questions" || len(faq.Items) != 0 {
		t.Errorf("expected defaults, got %+v", faq)
	}
}

func TestRender_EveryKindSurvivesBadContent(t *testing.T) {
	r := newTestRegistry(t)
	bodies := map[string]string{
		"empty object": `{}`,
		"null":         `null`,
		"wrong-typed lists": `{"items":"x","events":5,"images":{},"segments":true,` +
			`"links":"no","types":7,"categories":{"a":1}}`,
		"null list elements": `{"items":[null],"events":[null],"images":[null],` +
			`"segments":[null],"links":[null],"types":[null]}`,
		"scalar where object expected": `{"cta":"go","secondaryCta":3,"backgroundImage":7,"image":[]}`,
	}
	for _, typ := range r.Types() {
		for name, body := range bodies {
			t.Run(typ+"/"+name, func(t *testing.T) {
				out := string(r.Render(rec(typ, body), DefaultCallbacks()))
				if !strings.Contains(out, "<section") {
					t.Errorf("expected rendered section, got %q", out)
				}
			})
		}
	}
}

func TestRender_RSVPFormNameIsFixed(t *testing.T) {
	r := newTestRegistry(t)
	out := string(r.Render(rec("rsvp", `{"formName":"wedding-rsvp"}`), DefaultCallbacks()))
	if !strings.Contains(out, `name="form-name" value="rsvp"`) {
		t.Errorf("expected fixed rsvp discriminant, got %s", out)
	}
	if strings.Contains(out, "wedding-rsvp") {
		t.Error("expected authored form name to be ignored")
	}
}

func TestDecode_Normalization(t *testing.T) {
	r := newTestRegistry(t)
	cb := DefaultCallbacks()

	hero := r.Decode(rec("hero", `{"theme":"neon","align":"right"}`), cb).(*Hero)
	if hero.Theme != "dark" || hero.Align != "center" {
		t.Errorf("expected enums to fall back, got theme=%q align=%q", hero.Theme, hero.Align)
	}

	tests := []struct {
		body string
		want int
	}{
		{`{"columns":0}`, 3},
		{`{"columns":1}`, 2},
		{`{"columns":9}`, 4},
		{`{"columns":2}`, 2},
	}
	for _, tt := range tests {
		g := r.Decode(rec("gallery", tt.body), cb).(*Gallery)
		if g.Columns != tt.want {
			t.Errorf("%s: expected %d columns, got %d", tt.body, tt.want, g.Columns)
		}
	}

	rsvp := r.Decode(rec("rsvp", `{"maxGuests":2,"formName":"wedding-rsvp"}`), cb).(*RSVP)
	if rsvp.FormName != "rsvp" || len(rsvp.GuestOptions) != 3 || rsvp.AnchorID != "rsvp" {
		t.Errorf("unexpected rsvp defaults %+v", rsvp)
	}

	p := r.Decode(rec("partnership", `{"types":["media","bogus"]}`), cb).(*Partnership)
	if len(p.Types) != 1 || p.Types[0] != "media" {
		t.Errorf("expected only known partnership types, got %v", p.Types)
	}
}

func TestDecode_FAQExpanded(t *testing.T) {
	r := newTestRegistry(t)
	body := `{"items":[{"question":"A?","answer":"a"},{"question":"B?","answer":"b"}]%s}`
	tests := []struct {
		extra string
		open  []bool
	}{
		{"", []bool{true, false}},
		{`,"expanded":1`, []bool{false, true}},
		{`,"expanded":-1`, []bool{false, false}},
	}
	for _, tt := range tests {
		faq := r.Decode(rec("faq", strings.Replace(body, "%s", tt.extra, 1)), DefaultCallbacks()).(*FAQ)
		for i, want := range tt.open {
			if faq.Items[i].Open != want {
				t.Errorf("expanded %q: item %d open=%v, want %v", tt.extra, i, faq.Items[i].Open, want)
			}
		}
	}
}

func TestRender_RichTextSanitized(t *testing.T) {
	r := newTestRegistry(t)
	out := string(r.Render(rec("richText", `{"body":"<script>alert(1)</script>\n\n**bold** [x](javascript:alert(1))"}`), DefaultCallbacks()))
	if strings.Contains(out, "<script") || strings.Contains(out, "javascript:") {
		t.Errorf("expected unsafe markup removed, got %q", out)
	}
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("expected markdown rendered, got %q", out)
	}
}

func TestRender_FailuresAreIsolated(t *testing.T) {
	tmpl, err := web.Templates()
	if err != nil {
		t.Fatal(err)
	}
	template.Must(tmpl.New("section-boom").Parse(`<p>{{.}}</p>`))
	r, err := NewRegistry(tmpl, quietLog(), withKinds(Kind{Name: "boom", Template: "section-boom", New: func() Section { return boom{} }}))
	if err != nil {
		t.Fatal(err)
	}
	if out := r.Render(rec("boom", `{}`), DefaultCallbacks()); out != "" {
		t.Errorf("expected panicking section to render empty, got %q", out)
	}
	if out := r.Render(rec("cta", `{"heading":"Still here"}`), DefaultCallbacks()); !strings.Contains(string(out), "Still here") {
		t.Errorf("expected later sections to keep rendering, got %q", out)
	}
}

func TestCheck(t *testing.T) {
	r := newTestRegistry(t)
	tests := []struct {
		name string
		rec  content.SectionRecord
		want int
	}{
		{"complete hero", rec("hero", `{"heading":"Hi"}`), 0},
		{"empty heading", rec("hero", `{"heading":""}`), 1},
		{"unknown type", rec("carousel", `{}`), 1},
		{"no type", rec("", `{}`), 1},
		{"faq item missing answer", rec("faq", `{"items":[{"question":"Q"}]}`), 1},
		{"items not a list", rec("faq", `{"items":{}}`), 1},
		{"form sections have no requirements", rec("rsvp", `{}`), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Check(tc.rec); len(got) != tc.want {
				t.Errorf("expected %d problems, got %v", tc.want, got)
			}
		})
	}
}

func TestAudit_LocatesFindings(t *testing.T) {
	r := newTestRegistry(t)
	docs := []content.PageDocument{
		{Slug: "home", Sections: []content.SectionRecord{rec("hero", `{"heading":"Hi"}`), rec("mystery", `{}`)}},
	}
	findings := r.Audit(docs)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %v", findings)
	}
	if f := findings[0]; f.Slug != "home" || f.Index != 1 || f.Type != "mystery" {
		t.Errorf("unexpected finding %+v", f)
	}
}
