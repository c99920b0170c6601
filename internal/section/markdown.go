package section

import (
	"bytes"
	"html/template"
	"log/slog"

	bm "github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Markdown converts authored rich text to sanitized HTML.
type Markdown struct {
	md     goldmark.Markdown
	policy *bm.Policy
	log    *slog.Logger
}

func NewMarkdown(log *slog.Logger) *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
		policy: bm.UGCPolicy(),
		log:    log,
	}
}

func (m *Markdown) Render(src string) template.HTML {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		m.log.Warn("markdown conversion failed", "error", err)
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(m.policy.SanitizeBytes(buf.Bytes()))
}
