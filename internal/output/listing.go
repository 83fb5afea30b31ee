package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/temirov/ctxstitch/internal/types"
	"github.com/temirov/ctxstitch/internal/utils"
)

// ListFormat selects how discovered references are listed.
type ListFormat string

const (
	// ListPlain prints one reference per line.
	ListPlain ListFormat = "plain"
	// ListDetailed prints position, force marker and resolution details per reference.
	ListDetailed ListFormat = "detailed"
	// ListJSON prints a JSON array of reference descriptions.
	ListJSON ListFormat = "json"

	indentPrefix = ""
	indentSpacer = "  "

	detailedReferenceFormat = "Reference: %s\n"
	detailedPositionFormat  = "  Position: %d..%d\n"
	detailedForceFormat     = "  Force: %s\n"
	detailedPathFormat      = "  Path: %s\n"
	detailedExistsFormat    = "  Exists: %s\n"
	detailedFileTypeFormat  = "  Type: File (%d bytes, %s)\n"
	detailedDirectoryType   = "  Type: Directory\n"
	detailedMimeTypeFormat  = "  MIME: %s\n"
	detailedModifiedFormat  = "  Modified: %s\n"
	detailedErrorFormat     = "  Error: %s\n"
	affirmativeAnswer       = "yes"
	negativeAnswer          = "no"

	errorUnsupportedListFormat = "unsupported list format %q (expected plain, detailed or json)"
	errorEncodeListing         = "encoding reference listing: %w"
)

// ParseListFormat converts a user supplied name into a ListFormat. An empty name means plain.
func ParseListFormat(name string) (ListFormat, error) {
	switch ListFormat(strings.ToLower(strings.TrimSpace(name))) {
	case "", ListPlain:
		return ListPlain, nil
	case ListDetailed:
		return ListDetailed, nil
	case ListJSON:
		return ListJSON, nil
	default:
		return "", fmt.Errorf(errorUnsupportedListFormat, name)
	}
}

// RenderListing renders reference descriptions in the requested format.
func RenderListing(infos []types.ReferenceInfo, format ListFormat) (string, error) {
	switch format {
	case ListDetailed:
		return renderDetailedListing(infos), nil
	case ListJSON:
		if infos == nil {
			infos = []types.ReferenceInfo{}
		}
		encoded, encodeError := json.MarshalIndent(infos, indentPrefix, indentSpacer)
		if encodeError != nil {
			return "", fmt.Errorf(errorEncodeListing, encodeError)
		}
		return string(encoded) + "\n", nil
	default:
		var builder strings.Builder
		for _, info := range infos {
			builder.WriteString(info.Reference + "\n")
		}
		return builder.String(), nil
	}
}

func renderDetailedListing(infos []types.ReferenceInfo) string {
	var builder strings.Builder
	for _, info := range infos {
		fmt.Fprintf(&builder, detailedReferenceFormat, info.Reference)
		fmt.Fprintf(&builder, detailedPositionFormat, info.Start, info.End)
		fmt.Fprintf(&builder, detailedForceFormat, yesNo(info.Force))
		if info.Path != "" {
			fmt.Fprintf(&builder, detailedPathFormat, info.Path)
		}
		if info.Exists != nil {
			fmt.Fprintf(&builder, detailedExistsFormat, yesNo(*info.Exists))
		}
		switch info.FileType {
		case types.NodeTypeFile:
			fmt.Fprintf(&builder, detailedFileTypeFormat, info.SizeBytes, utils.FormatFileSize(info.SizeBytes))
			if info.MimeType != "" {
				fmt.Fprintf(&builder, detailedMimeTypeFormat, info.MimeType)
			}
		case types.NodeTypeDirectory:
			builder.WriteString(detailedDirectoryType)
		}
		if info.LastModified != "" {
			fmt.Fprintf(&builder, detailedModifiedFormat, info.LastModified)
		}
		if info.Error != "" {
			fmt.Fprintf(&builder, detailedErrorFormat, info.Error)
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

func yesNo(value bool) string {
	if value {
		return affirmativeAnswer
	}
	return negativeAnswer
}
