package section

import (
	"html/template"

	"github.com/dgallion1/weddingsite/internal/content"
	"github.com/dgallion1/weddingsite/internal/forms"
)

// Section is the closed set of renderable section kinds. Values are produced
// by Registry.Decode; Unknown is the catch-all for unregistered types.
type Section interface {
	Type() string
	normalize(env *env)
}

// env carries render-time helpers into normalize.
type env struct {
	md *Markdown
	cb Callbacks
}

type Button struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Style string `json:"style"`
}

func (b *Button) normalize(label, href string) {
	b.Label = orDefault(b.Label, label)
	b.Href = orDefault(b.Href, href)
	b.Style = oneOf(b.Style, "primary", "secondary", "link")
}

type Hero struct {
	Eyebrow         string        `json:"eyebrow"`
	Heading         string        `json:"heading"`
	Subheading      string        `json:"subheading"`
	Date            string        `json:"date"`
	Location        string        `json:"location"`
	BackgroundImage content.Image `json:"backgroundImage"`
	CTA             Button        `json:"cta"`
	SecondaryCTA    *Button       `json:"secondaryCta"`
	Signup          bool          `json:"signup"`
	Theme           string        `json:"theme"`
	Align           string        `json:"align"`
}

func (*Hero) Type() string { return "hero" }

func (s *Hero) normalize(e *env) {
	s.Heading = orDefault(s.Heading, "We're getting married")
	s.CTA.normalize("RSVP", e.cb.ScrollToRSVP)
	if s.SecondaryCTA != nil {
		s.SecondaryCTA.normalize("Learn more", e.cb.ScrollToSignup)
	}
	s.Theme = oneOf(s.Theme, "dark", "light", "accent")
	s.Align = oneOf(s.Align, "center", "left")
}

type RichText struct {
	Heading  string        `json:"heading"`
	Body     string        `json:"body"`
	Align    string        `json:"align"`
	Theme    string        `json:"theme"`
	BodyHTML template.HTML `json:"-"`
}

func (*RichText) Type() string { return "richText" }

func (s *RichText) normalize(e *env) {
	s.Align = oneOf(s.Align, "left", "center")
	s.Theme = oneOf(s.Theme, "light", "dark", "accent")
	s.BodyHTML = e.md.Render(s.Body)
}

type Story struct {
	Heading       string        `json:"heading"`
	Body          string        `json:"body"`
	Image         content.Image `json:"image"`
	ImagePosition string        `json:"imagePosition"`
	BodyHTML      template.HTML `json:"-"`
}

func (*Story) Type() string { return "story" }

func (s *Story) normalize(e *env) {
	s.Heading = orDefault(s.Heading, "Our story")
	s.ImagePosition = oneOf(s.ImagePosition, "left", "right")
	if s.Image.Alt == "" {
		s.Image.Alt = s.Heading
	}
	s.BodyHTML = e.md.Render(s.Body)
}

type TimelineEvent struct {
	Time        string `json:"time"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	MapURL      string `json:"mapUrl"`
}

type Timeline struct {
	Heading string          `json:"heading"`
	Intro   string          `json:"intro"`
	Events  []TimelineEvent `json:"events"`
}

func (*Timeline) Type() string { return "timeline" }

func (s *Timeline) normalize(e *env) {
	s.Heading = orDefault(s.Heading, "Schedule")
	events := s.Events[:0]
	for _, ev := range s.Events {
		if ev.Title == "" && ev.Time == "" {
			continue
		}
		ev.Title = orDefault(ev.Title, "To be announced")
		events = append(events, ev)
	}
	s.Events = events
}

type FAQItem struct {
	Question   string        `json:"question"`
	Answer     string        `json:"answer"`
	AnswerHTML template.HTML `json:"-"`
	Open       bool          `json:"-"`
}

type FAQ struct {
	Heading string    `json:"heading"`
	Intro   string    `json:"intro"`
	Items   []FAQItem `json:"items"`
	// Expanded is the index of the item shown open on load; -1 for none.
	Expanded *int `json:"expanded"`
}

func (*FAQ) Type() string { return "faq" }

func (s *FAQ) normalize(e *env) {
	s.Heading = orDefault(s.Heading, "Frequently asked questions")
	items := s.Items[:0]
	for _, it := range s.Items {
		if it.Question == "" {
			continue
		}
		it.AnswerHTML = e.md.Render(it.Answer)
		items = append(items, it)
	}
	s.Items = items
	open := 0
	if s.Expanded != nil {
		open = *s.Expanded
	}
	for i := range s.Items {
		s.Items[i].Open = i == open
	}
}

type GalleryImage struct {
	URL     string `json:"url"`
	Alt     string `json:"alt"`
	Caption string `json:"caption"`
}

type Gallery struct {
	Heading string         `json:"heading"`
	Images  []GalleryImage `json:"images"`
	Columns int            `json:"columns"`
}

func (*Gallery) Type() string { return "gallery" }

func (s *Gallery) normalize(e *env) {
	s.Columns = clamp(s.Columns, 2, 4, 3)
	images := s.Images[:0]
	for _, img := range s.Images {
		if img.URL == "" {
			continue
		}
		img.Alt = orDefault(img.Alt, img.Caption)
		images = append(images, img)
	}
	s.Images = images
}

type FeatureItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type Features struct {
	Heading string        `json:"heading"`
	Intro   string        `json:"intro"`
	Items   []FeatureItem `json:"items"`
	Theme   string        `json:"theme"`
}

func (*Features) Type() string { return "features" }

func (s *Features) normalize(e *env) {
	s.Theme = oneOf(s.Theme, "light", "dark", "accent")
	items := s.Items[:0]
	for _, it := range s.Items {
		if it.Title == "" && it.Description == "" {
			continue
		}
		items = append(items, it)
	}
	s.Items = items
}

type AudienceSegment struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	CTA         Button `json:"cta"`
}

type Audiences struct {
	Heading  string            `json:"heading"`
	Intro    string            `json:"intro"`
	Segments []AudienceSegment `json:"segments"`
}

func (*Audiences) Type() string { return "audiences" }

func (s *Audiences) normalize(e *env) {
	segs := s.Segments[:0]
	for _, seg := range s.Segments {
		if seg.Title == "" {
			continue
		}
		seg.CTA.normalize("Get in touch", e.cb.OpenPartnership)
		segs = append(segs, seg)
	}
	s.Segments = segs
}

type QuickLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Icon  string `json:"icon"`
}

type QuickLinks struct {
	Heading string      `json:"heading"`
	Links   []QuickLink `json:"links"`
}

func (*QuickLinks) Type() string { return "quickLinks" }

func (s *QuickLinks) normalize(e *env) {
	links := s.Links[:0]
	for _, l := range s.Links {
		if l.Href == "" {
			continue
		}
		l.Label = orDefault(l.Label, l.Href)
		links = append(links, l)
	}
	s.Links = links
}

type RSVP struct {
	Heading        string `json:"heading"`
	Intro          string `json:"intro"`
	Deadline       string `json:"deadline"`
	SuccessMessage string `json:"successMessage"`
	AllowGuests    bool   `json:"allowGuests"`
	MaxGuests      int    `json:"maxGuests"`
	AnchorID       string `json:"-"`
	GuestOptions   []int  `json:"-"`
	// FormName is the submission discriminant. It is not authorable: the
	// form handler only accepts the fixed rsvp name.
	FormName string `json:"-"`
}

func (*RSVP) Type() string { return "rsvp" }

func (s *RSVP) normalize(e *env) {
	s.Heading = orDefault(s.Heading, "RSVP")
	s.FormName = forms.FormRSVP
	s.SuccessMessage = orDefault(s.SuccessMessage, "Thank you! Your response has been recorded.")
	s.MaxGuests = clamp(s.MaxGuests, 1, 20, 4)
	s.AnchorID = anchorID(e.cb.ScrollToRSVP)
	s.GuestOptions = s.GuestOptions[:0]
	for i := 0; i <= s.MaxGuests; i++ {
		s.GuestOptions = append(s.GuestOptions, i)
	}
}

type Newsletter struct {
	Heading        string   `json:"heading"`
	Intro          string   `json:"intro"`
	ButtonLabel    string   `json:"buttonLabel"`
	SuccessMessage string   `json:"successMessage"`
	ShowCategories bool     `json:"showCategories"`
	Variant        string   `json:"variant"`
	Categories     []string `json:"-"`
	AnchorID       string   `json:"-"`
}

func (*Newsletter) Type() string { return "newsletter" }

func (s *Newsletter) normalize(e *env) {
	s.Heading = orDefault(s.Heading, "Stay in the loop")
	s.ButtonLabel = orDefault(s.ButtonLabel, "Subscribe")
	s.SuccessMessage = orDefault(s.SuccessMessage, "You're on the list!")
	s.Variant = oneOf(s.Variant, "inline", "modal")
	s.Categories = forms.SubscriberCategories
	s.AnchorID = anchorID(e.cb.ScrollToSignup)
}

type Partnership struct {
	Heading        string   `json:"heading"`
	Intro          string   `json:"intro"`
	ButtonLabel    string   `json:"buttonLabel"`
	SuccessMessage string   `json:"successMessage"`
	Types          []string `json:"types"`
	DialogID       string   `json:"-"`
}

func (*Partnership) Type() string { return "partnership" }

func (s *Partnership) normalize(e *env) {
	s.Heading = orDefault(s.Heading, "Work with us")
	s.ButtonLabel = orDefault(s.ButtonLabel, "Partner with us")
	s.SuccessMessage = orDefault(s.SuccessMessage, "Thanks for reaching out. We'll be in touch soon.")
	types := s.Types[:0]
	for _, t := range s.Types {
		if contains(forms.PartnershipTypes, t) {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		types = forms.PartnershipTypes
	}
	s.Types = types
	s.DialogID = anchorID(e.cb.OpenPartnership)
}

type CTA struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
	Button  Button `json:"button"`
	Theme   string `json:"theme"`
}

func (*CTA) Type() string { return "cta" }

func (s *CTA) normalize(e *env) {
	s.Button.normalize("Sign up", e.cb.ScrollToSignup)
	s.Theme = oneOf(s.Theme, "accent", "light", "dark")
}

// Unknown stands in for a record whose type has no registered kind.
type Unknown struct {
	Name string
}

func (u Unknown) Type() string { return u.Name }

func (Unknown) normalize(*env) {}

func orDefault(v, d string) string {
	if v == "" {
		return d
	}
	return v
}

// oneOf returns v when it is an allowed value, otherwise the first allowed value.
func oneOf(v string, allowed ...string) string {
	if contains(allowed, v) {
		return v
	}
	return allowed[0]
}

func contains(list []string, v string) bool {
	for _, a := range list {
		if a == v {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi, d int) int {
	if v == 0 {
		return d
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func anchorID(href string) string {
	if len(href) > 1 && href[0] == '#' {
		return href[1:]
	}
	return href
}
