package content

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// PageDocument is one authored page: metadata plus an ordered section list.
type PageDocument struct {
	Slug     string          `json:"slug"`
	Title    string          `json:"title,omitempty"`
	Nav      bool            `json:"nav,omitempty"`
	NavOrder int             `json:"navOrder,omitempty"`
	SEO      SEO             `json:"seo"`
	Sections []SectionRecord `json:"sections"`
}

// Label is the text used for the page in navigation.
func (d PageDocument) Label() string {
	switch {
	case d.Title != "":
		return d.Title
	case d.SEO.MetaTitle != "":
		return d.SEO.MetaTitle
	}
	return d.Slug
}

// Path is the site-relative URL of the page.
func (d PageDocument) Path() string {
	if d.Slug == DefaultSlug {
		return "/"
	}
	return "/" + d.Slug
}

type SEO struct {
	MetaTitle       string `json:"metaTitle"`
	MetaDescription string `json:"metaDescription"`
	Keywords        string `json:"keywords,omitempty"`
	ShareImage      Image  `json:"shareImage"`
}

// Image accepts either a bare URL string or an {"url","alt"} object.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

func (i *Image) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*i = Image{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*i = Image{URL: s}
		return nil
	}
	type plain Image
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*i = Image(p)
	return nil
}

// SectionRecord is a typed section as authored. Content holds the raw,
// unvalidated fields; interpretation belongs to the section registry.
type SectionRecord struct {
	Type    string
	Content json.RawMessage
}

// sectionMeta are keys that may sit beside a nested content object without
// making the record flat.
var sectionMeta = map[string]bool{"type": true, "content": true, "id": true, "_key": true, "key": true}

// UnmarshalJSON accepts the flat form {"type":"hero","heading":...} and the
// nested form {"type":"hero","content":{...}}, optionally with an id.
func (s *SectionRecord) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	var typ string
	if raw, ok := fields["type"]; ok {
		// A non-string type is kept as empty and fails closed at render time.
		_ = json.Unmarshal(raw, &typ)
	}
	s.Type = typ

	if nested, ok := fields["content"]; ok && isObject(nested) && onlyMeta(fields) {
		s.Content = append(json.RawMessage(nil), nested...)
		return nil
	}
	s.Content = append(json.RawMessage(nil), b...)
	return nil
}

func (s SectionRecord) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if isObject(s.Content) {
		if err := json.Unmarshal(s.Content, &fields); err != nil {
			return nil, err
		}
	}
	typ, err := json.Marshal(s.Type)
	if err != nil {
		return nil, err
	}
	fields["type"] = typ
	return json.Marshal(fields)
}

func onlyMeta(fields map[string]json.RawMessage) bool {
	for k := range fields {
		if !sectionMeta[k] {
			return false
		}
	}
	return true
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	return s
}
