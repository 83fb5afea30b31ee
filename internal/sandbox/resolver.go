// Package sandbox resolves reference strings to canonical paths confined to a base directory.
package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/ctxstitch/internal/types"
)

const (
	referenceSeparators = `/\`
	currentDirectory    = "."
	parentDirectory     = ".."

	errorAbsolutePathFormat   = "getting absolute path for %s: %w"
	errorCanonicalPathFormat  = "canonicalizing %s: %w"
	errorStatDirectoryFormat  = "stat %s: %w"
	errorResolveBaseFormat    = "resolving base directory %s: %w"
	errorResolveMissingFormat = "resolving %s: %w"
)

// StripReferenceMarkers removes the reference prefix, an optional force marker directly after it,
// and every leading path separator, producing a sandbox-relative remainder.
func StripReferenceMarkers(reference string) string {
	remainder := strings.TrimPrefix(reference, types.ReferencePrefix)
	remainder = strings.TrimPrefix(remainder, types.ForceMarker)
	return strings.TrimLeft(remainder, referenceSeparators)
}

// NamesSandboxRoot reports whether a stripped remainder designates the base directory itself.
func NamesSandboxRoot(remainder string) bool {
	return remainder == "" || remainder == currentDirectory
}

// CanonicalDirectory returns the absolute, symlink-free form of directoryPath,
// failing with DirectoryNotFoundError when it is missing or not a directory.
func CanonicalDirectory(directoryPath string) (string, error) {
	absolutePath, absoluteError := filepath.Abs(directoryPath)
	if absoluteError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, directoryPath, absoluteError)
	}
	canonicalPath, canonicalError := filepath.EvalSymlinks(absolutePath)
	if canonicalError != nil {
		if errors.Is(canonicalError, fs.ErrNotExist) {
			return "", &types.DirectoryNotFoundError{Path: absolutePath}
		}
		return "", fmt.Errorf(errorCanonicalPathFormat, absolutePath, canonicalError)
	}
	info, statError := os.Stat(canonicalPath)
	if statError != nil {
		return "", fmt.Errorf(errorStatDirectoryFormat, canonicalPath, statError)
	}
	if !info.IsDir() {
		return "", &types.DirectoryNotFoundError{Path: canonicalPath}
	}
	return canonicalPath, nil
}

// Resolve turns reference into a canonical path inside baseDirectory.
//
// The remainder after StripReferenceMarkers is joined onto the canonical base directory.
// A remainder whose parent segments climb above the base is rejected before touching the
// filesystem. Otherwise the joined path is canonicalized with symlinks resolved; when the final
// component does not exist its parent is canonicalized instead and the name re-appended, so a
// missing file can still be validated. Any result outside the base fails with PathTraversalError.
func Resolve(reference string, baseDirectory string) (string, error) {
	canonicalBase, baseError := canonicalBaseDirectory(baseDirectory)
	if baseError != nil {
		return "", baseError
	}

	remainder := StripReferenceMarkers(reference)
	if NamesSandboxRoot(remainder) {
		return canonicalBase, nil
	}

	lexicalPath := filepath.Join(canonicalBase, remainder)
	if !IsWithin(canonicalBase, lexicalPath) {
		return "", &types.PathTraversalError{Path: lexicalPath}
	}

	canonicalPath, canonicalError := canonicalize(joinUncleaned(canonicalBase, remainder))
	if canonicalError != nil {
		return "", canonicalError
	}
	if !IsWithin(canonicalBase, canonicalPath) {
		return "", &types.PathTraversalError{Path: canonicalPath}
	}
	return canonicalPath, nil
}

// IsWithin reports whether candidatePath equals rootPath or is one of its descendants.
// Both paths must be absolute and clean.
func IsWithin(rootPath string, candidatePath string) bool {
	if candidatePath == rootPath {
		return true
	}
	prefix := rootPath
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(candidatePath, prefix)
}

func canonicalBaseDirectory(baseDirectory string) (string, error) {
	absoluteBase, absoluteError := filepath.Abs(baseDirectory)
	if absoluteError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, baseDirectory, absoluteError)
	}
	canonicalBase, canonicalError := filepath.EvalSymlinks(absoluteBase)
	if canonicalError != nil {
		return "", fmt.Errorf(errorResolveBaseFormat, absoluteBase, canonicalError)
	}
	return canonicalBase, nil
}

// joinUncleaned keeps ".." segments in place so they are applied after symlinks are resolved.
func joinUncleaned(canonicalBase string, remainder string) string {
	if strings.HasSuffix(canonicalBase, string(filepath.Separator)) {
		return canonicalBase + remainder
	}
	return canonicalBase + string(filepath.Separator) + remainder
}

func canonicalize(joinedPath string) (string, error) {
	canonicalPath, evalError := filepath.EvalSymlinks(joinedPath)
	if evalError == nil {
		return canonicalPath, nil
	}
	if !errors.Is(evalError, fs.ErrNotExist) {
		return "", fmt.Errorf(errorCanonicalPathFormat, joinedPath, evalError)
	}

	trimmedPath := strings.TrimRight(joinedPath, referenceSeparators)
	parentPath, name := filepath.Split(trimmedPath)
	if name == "" || name == currentDirectory || name == parentDirectory {
		return "", fmt.Errorf(errorResolveMissingFormat, joinedPath, evalError)
	}
	canonicalParent, parentError := filepath.EvalSymlinks(parentPath)
	if parentError != nil {
		return "", fmt.Errorf(errorResolveMissingFormat, joinedPath, parentError)
	}
	return filepath.Join(canonicalParent, name), nil
}
