package report

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown   = goldmark.New(goldmark.WithExtensions(extension.GFM))
	htmlPolicy = bluemonday.UGCPolicy()
)

// RenderHTML converts report markdown to HTML. Report text comes from an
// inference service, so the output is sanitized before it reaches a browser.
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return htmlPolicy.Sanitize(buf.String()), nil
}
