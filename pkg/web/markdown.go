package web

import (
	"bytes"
	"html"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmark_html "github.com/yuin/goldmark/renderer/html"
)

// MarkdownRenderer turns message text into HTML. Raw HTML in the input is
// dropped.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmark_html.WithHardWraps()),
		),
	}
}

// Render falls back to escaped text if conversion fails.
func (r *MarkdownRenderer) Render(text string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		log.Warn().Err(err).Msg("could not render markdown")
		return "<p>" + html.EscapeString(text) + "</p>"
	}
	return buf.String()
}
