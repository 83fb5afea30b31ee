// Package utils contains general helper functions used across ctxstitch.
package utils

import (
	"path/filepath"
	"strings"
)

const hiddenEntryPrefix = "."

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// RelativePathOrSelf calculates the forward-slash relative path from root to fullPath.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relErr := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relErr != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}

// SplitRelativePath splits a forward-slash relative path into its segments. "." yields no segments.
func SplitRelativePath(relativePath string) []string {
	if relativePath == "" || relativePath == "." {
		return nil
	}
	return strings.Split(filepath.ToSlash(relativePath), "/")
}

// IsHiddenName reports whether a directory entry name is a dot entry.
func IsHiddenName(name string) bool {
	return strings.HasPrefix(name, hiddenEntryPrefix)
}
