// Package types defines every cross‑package data structure used by the ctxstitch CLI.
package types

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	// ForceMarker follows the reference prefix to bypass size gating.
	ForceMarker = "!"
	// ReferencePrefix starts every reference inside a token.
	ReferencePrefix = "@"
	// ForcedReferencePrefix starts a forced reference.
	ForcedReferencePrefix = ReferencePrefix + ForceMarker
)

// TemplateReference is one `{{ @... }}` token discovered in a template.
// Start and End are byte offsets into the scanned text, half-open.
type TemplateReference struct {
	FullMatch string
	Reference string
	Start     int
	End       int
	Force     bool
}

// ReferenceInfo describes a reference for listing and dry-run reports.
type ReferenceInfo struct {
	Reference    string `json:"reference"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
	Force        bool   `json:"force"`
	Path         string `json:"path,omitempty"`
	Exists       *bool  `json:"exists,omitempty"`
	FileType     string `json:"file_type,omitempty"`
	SizeBytes    int64  `json:"size,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	Error        string `json:"error,omitempty"`
}
