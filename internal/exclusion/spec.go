// Package exclusion decides which walked paths are hidden from tree rendering and deep inclusion.
package exclusion

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// hypotheticalChildName stands in for any entry of a directory so that
	// "dir/**" style patterns exclude the directory itself.
	hypotheticalChildName = "__child__"

	relativeRootPrefix        = "./"
	pathSeparator             = "/"
	errorInvalidPatternFormat = "invalid exclusion pattern %q"
)

// Spec is a compiled set of exclusion globs evaluated against base-directory-relative slash paths.
//
// A pattern matches the whole relative path: "*" stays within one segment and "**" spans
// segments. A bare name therefore hides only the entry at that exact relative location;
// "**/name" hides it at any depth.
type Spec struct {
	patterns []string
}

// NewSpec validates patterns and returns the resulting Spec. Blank patterns are skipped and
// leading "./" or "/" and trailing "/" are dropped.
func NewSpec(patterns []string) (*Spec, error) {
	spec := &Spec{}
	for _, rawPattern := range patterns {
		pattern := normalizePattern(rawPattern)
		if pattern == "" {
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf(errorInvalidPatternFormat, rawPattern)
		}
		spec.patterns = append(spec.patterns, pattern)
	}
	return spec, nil
}

// Patterns returns the normalized patterns of the spec.
func (spec *Spec) Patterns() []string {
	if spec == nil {
		return nil
	}
	return append([]string(nil), spec.patterns...)
}

// Empty reports whether the spec holds no patterns.
func (spec *Spec) Empty() bool {
	return spec == nil || len(spec.patterns) == 0
}

// Matches reports whether relativePath is excluded. Directories are additionally tested
// through a hypothetical child so that patterns aimed at their contents hide them too.
func (spec *Spec) Matches(relativePath string, isDirectory bool) bool {
	if spec.Empty() {
		return false
	}
	candidates := []string{relativePath}
	if isDirectory {
		candidates = append(candidates, relativePath+pathSeparator+hypotheticalChildName)
	}
	for _, pattern := range spec.patterns {
		for _, candidate := range candidates {
			matched, matchError := doublestar.Match(pattern, candidate)
			if matchError == nil && matched {
				return true
			}
		}
	}
	return false
}

func normalizePattern(rawPattern string) string {
	pattern := strings.TrimSpace(rawPattern)
	for strings.HasPrefix(pattern, relativeRootPrefix) {
		pattern = strings.TrimPrefix(pattern, relativeRootPrefix)
	}
	pattern = strings.TrimLeft(pattern, pathSeparator)
	return strings.TrimRight(pattern, pathSeparator)
}
