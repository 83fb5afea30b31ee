// Package output renders bundles, reference listings and dry-run reports.
package output

import (
	"fmt"
	"strings"
)

// OutputFormat selects how a processed bundle is wrapped before it is written.
type OutputFormat string

const (
	// FormatPlain writes the bundle unchanged.
	FormatPlain OutputFormat = "plain"
	// FormatMarkdown wraps the bundle in a fenced code block.
	FormatMarkdown OutputFormat = "markdown"
	// FormatHTML escapes the bundle and wraps it in a pre/code element.
	FormatHTML OutputFormat = "html"

	markdownFenceFormat = "```\n%s\n```"
	htmlBlockFormat     = "<pre><code>%s</code></pre>"

	errorUnsupportedOutputFormat = "unsupported output format %q (expected plain, markdown or html)"
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// ParseOutputFormat converts a user supplied name into an OutputFormat. An empty name means plain.
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatPlain:
		return FormatPlain, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf(errorUnsupportedOutputFormat, name)
	}
}

// Apply wraps content according to the format.
func (format OutputFormat) Apply(content string) string {
	switch format {
	case FormatMarkdown:
		return fmt.Sprintf(markdownFenceFormat, content)
	case FormatHTML:
		return fmt.Sprintf(htmlBlockFormat, htmlEscaper.Replace(content))
	default:
		return content
	}
}
