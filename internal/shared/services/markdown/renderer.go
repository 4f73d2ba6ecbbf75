// Package markdown renders ticket notes written in markdown into sanitized HTML.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

type Renderer interface {
	// Render converts a note body into sanitized HTML.
	Render(note string) (string, error)
	// PlainText strips every tag, leaving the readable text of a note.
	PlainText(note string) string
}

type renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

func NewRenderer() Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Strikethrough,
			extension.TaskList,
			extension.Linkify,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &renderer{
		md:     md,
		policy: policy,
		strict: bluemonday.StrictPolicy(),
	}
}

func (r *renderer) Render(note string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(note), &buf); err != nil {
		return "", fmt.Errorf("failed to render note: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

func (r *renderer) PlainText(note string) string {
	rendered, err := r.Render(note)
	if err != nil {
		rendered = note
	}
	return strings.TrimSpace(r.strict.Sanitize(rendered))
}
