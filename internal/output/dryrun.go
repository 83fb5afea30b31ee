package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/temirov/ctxstitch/internal/types"
)

const (
	validMarker   = "✓"
	invalidMarker = "✗"

	dryRunValidFormat    = "%s %s -> %s\n"
	dryRunMissingFormat  = "%s %s -> %s (not found)\n"
	dryRunErrorFormat    = "%s %s -> Error: %s\n"
	summaryHeaderFormat  = "\nSummary: %d references found\n"
	summaryValidFormat   = "  %s %d valid\n"
	summaryInvalidFormat = "  %s %d invalid\n"
)

// DryRunSummary counts the outcome of a dry run.
type DryRunSummary struct {
	Total   int
	Valid   int
	Invalid int
}

// AllValid reports whether every reference resolved to an existing path without error.
func (summary DryRunSummary) AllValid() bool {
	return summary.Invalid == 0
}

// RenderDryRun writes one line per reference and a summary. Colours are used only when colorize is set.
func RenderDryRun(writer io.Writer, infos []types.ReferenceInfo, colorize bool) (DryRunSummary, error) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	for _, palette := range []*color.Color{green, red, yellow} {
		if colorize {
			palette.EnableColor()
		} else {
			palette.DisableColor()
		}
	}

	summary := DryRunSummary{Total: len(infos)}
	for _, info := range infos {
		var writeError error
		switch {
		case info.Error != "":
			summary.Invalid++
			_, writeError = fmt.Fprintf(writer, dryRunErrorFormat, red.Sprint(invalidMarker), info.Reference, info.Error)
		case info.Exists != nil && *info.Exists:
			summary.Valid++
			_, writeError = fmt.Fprintf(writer, dryRunValidFormat, green.Sprint(validMarker), info.Reference, info.Path)
		default:
			summary.Invalid++
			_, writeError = fmt.Fprintf(writer, dryRunMissingFormat, yellow.Sprint(invalidMarker), info.Reference, info.Path)
		}
		if writeError != nil {
			return summary, writeError
		}
	}

	if _, writeError := fmt.Fprintf(writer, summaryHeaderFormat, summary.Total); writeError != nil {
		return summary, writeError
	}
	if summary.Valid > 0 {
		if _, writeError := fmt.Fprintf(writer, summaryValidFormat, green.Sprint(validMarker), summary.Valid); writeError != nil {
			return summary, writeError
		}
	}
	if summary.Invalid > 0 {
		if _, writeError := fmt.Fprintf(writer, summaryInvalidFormat, red.Sprint(invalidMarker), summary.Invalid); writeError != nil {
			return summary, writeError
		}
	}
	return summary, nil
}
