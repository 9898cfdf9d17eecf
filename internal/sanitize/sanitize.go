// Package sanitize turns the Markdown produced by completion models into
// plain text suitable for chat clients that do not render it.
package sanitize

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	listItem   = regexp.MustCompile(`<li>\s*(<p>)?`)
	blockBreak = regexp.MustCompile(`<br\s*/?>|</?p>|</?div>|</?pre>|</?h[1-6]>|</?[ou]l>|<hr\s*/?>`)
	blankRuns  = regexp.MustCompile(`\n\s*\n+`)
)

// Policy renders Markdown to HTML and strips every tag from the result.
// It is safe for concurrent use.
type Policy struct {
	policy   *bluemonday.Policy
	markdown goldmark.Markdown
}

// NewPlainTextPolicy creates a Policy that keeps only text content.
func NewPlainTextPolicy() *Policy {
	return &Policy{
		policy:   bluemonday.StrictPolicy(),
		markdown: goldmark.New(),
	}
}

// PlainText strips Markdown and HTML from text. List items become "• "
// bullets and block elements are separated by at most one blank line. If
// the Markdown cannot be rendered the input is returned unchanged.
func (p *Policy) PlainText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(text), &buf); err != nil {
		return text
	}

	rendered := listItem.ReplaceAllString(buf.String(), "• ")
	rendered = blockBreak.ReplaceAllString(rendered, "\n")

	sanitized := p.policy.Sanitize(rendered)
	sanitized = blankRuns.ReplaceAllString(sanitized, "\n\n")

	return strings.TrimSpace(html.UnescapeString(sanitized))
}
