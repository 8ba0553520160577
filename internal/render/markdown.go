// Package render converts user-authored markdown into HTML that is safe to
// embed in pages. All output passes through a sanitizer allow-list; on any
// conversion failure the raw text is escaped instead, so unsanitized markup
// never reaches a template.
package render

import (
	"bytes"
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/akulov/elib/internal/config"
)

// Renderer converts markdown to sanitized HTML.
type Renderer struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewRenderer builds a renderer from the configured allow-lists.
func NewRenderer(cfg config.Render) *Renderer {
	options := []goldmark.Option{
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	}
	if cfg.HardWraps {
		options = append(options, goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()))
	}

	return &Renderer{
		markdown: goldmark.New(options...),
		policy:   buildPolicy(cfg.AllowedTags),
	}
}

// Markdown renders the text as HTML. The result is already sanitized and may
// be embedded in templates without further escaping.
func (r *Renderer) Markdown(text string) template.HTML {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(text), &buf); err != nil {
		return escapeFallback(text)
	}

	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}

// buildPolicy creates the sanitizer policy for rendered markdown: the
// configured tag allow-list, a small attribute allow-list, and http, https
// and mailto links only.
func buildPolicy(allowedTags []string) *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(allowedTags...)
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("class").OnElements("span", "code", "pre", "div")
	p.AllowURLSchemes("http", "https", "mailto")
	return p
}

// escapeFallback HTML-escapes the raw text, keeping line breaks visible.
func escapeFallback(text string) template.HTML {
	escaped := html.EscapeString(text)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
