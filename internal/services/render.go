package services

import (
	"bytes"
	"fmt"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"warren-backend/internal/models"
)

// Renderer converts transcript content into markup safe for the widget DOM.
// Assistant output is markdown from an untrusted model: it is converted to
// HTML and then sanitized, never inserted as-is. User and error content is
// always escaped literal text.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// RenderAssistant converts assistant markdown to sanitized HTML.
func (r *Renderer) RenderAssistant(markdown string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return html.EscapeString(markdown)
	}
	return r.policy.Sanitize(buf.String())
}

// RenderLiteral escapes content for the user and error roles. No markup is
// ever interpreted here.
func (r *Renderer) RenderLiteral(text string) string {
	return html.EscapeString(text)
}

// ImagePreviewHTML builds the inline photo preview markup. This is the one
// place raw markup enters the transcript, gated by the explicit raw flag on
// Transcript.Append rather than by sniffing content.
func ImagePreviewHTML(att *models.Attachment) string {
	return fmt.Sprintf(`<img class="chat-photo-preview" src="data:%s;base64,%s" alt="Uploaded rabbit photo">`,
		html.EscapeString(att.MIMEType), att.Data)
}
