// Package references locates `{{ @path }}` tokens in template text.
package references

import (
	"errors"
	"iter"
	"regexp"
	"regexp/syntax"
	"strings"

	"github.com/temirov/ctxstitch/internal/types"
)

// ReferencePattern matches a double-brace token holding an @-prefixed reference without a closing brace inside.
const ReferencePattern = `\{\{\s*(@!?[^}]*?)\s*\}\}`

const referenceGroupIndex = 1

// Scanner finds references with a compiled pattern. The pattern must expose the reference as its first group.
type Scanner struct {
	expression *regexp.Regexp
}

var defaultScanner, defaultScannerError = NewScanner(ReferencePattern)

// NewScanner compiles pattern into a Scanner. A pattern that fails to compile or lacks
// a capture group yields a TemplateParseError.
func NewScanner(pattern string) (*Scanner, error) {
	expression, compileError := regexp.Compile(pattern)
	if compileError != nil {
		position := 0
		var syntaxError *syntax.Error
		if errors.As(compileError, &syntaxError) {
			position = max(strings.Index(pattern, syntaxError.Expr), 0)
		}
		return nil, &types.TemplateParseError{Position: position, Message: compileError.Error()}
	}
	if expression.NumSubexp() < referenceGroupIndex {
		return nil, &types.TemplateParseError{Position: 0, Message: "reference pattern has no capture group"}
	}
	return &Scanner{expression: expression}, nil
}

// All yields references in source order, scanning text lazily from left to right.
// Matches never overlap.
func (scanner *Scanner) All(text string) iter.Seq[types.TemplateReference] {
	return func(yield func(types.TemplateReference) bool) {
		offset := 0
		for offset < len(text) {
			location := scanner.expression.FindStringSubmatchIndex(text[offset:])
			if location == nil {
				return
			}
			start := offset + location[0]
			end := offset + location[1]
			groupStart := location[2*referenceGroupIndex]
			groupEnd := location[2*referenceGroupIndex+1]
			if groupStart < 0 || end <= start {
				return
			}
			reference := strings.TrimSpace(text[offset+groupStart : offset+groupEnd])
			if !yield(types.TemplateReference{
				FullMatch: text[start:end],
				Reference: reference,
				Start:     start,
				End:       end,
				Force:     strings.HasPrefix(reference, types.ForcedReferencePrefix),
			}) {
				return
			}
			offset = end
		}
	}
}

// Find returns every reference in text ordered by ascending start offset.
func (scanner *Scanner) Find(text string) []types.TemplateReference {
	var found []types.TemplateReference
	for reference := range scanner.All(text) {
		found = append(found, reference)
	}
	return found
}

// FindReferences scans text with the default reference pattern.
func FindReferences(text string) ([]types.TemplateReference, error) {
	if defaultScannerError != nil {
		return nil, defaultScannerError
	}
	return defaultScanner.Find(text), nil
}
