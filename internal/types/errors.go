package types

import (
	"fmt"
	"path/filepath"
)

const (
	errorFileNotFoundFormat      = "file not found: %s"
	errorDirectoryNotFoundFormat = "directory not found: %s"
	errorInvalidReferenceFormat  = "invalid reference format: %s"
	errorTemplateParseFormat     = "template parsing error at position %d: %s"
	errorPathTraversalFormat     = "path traversal detected (trying to access files outside base directory): %s"
	errorFileSizeExceededFormat  = "file size exceeds limit of %d bytes: %s (%d bytes). Use " + ForcedReferencePrefix + "%s to force inclusion"
)

// FileNotFoundError reports a reference to a file that does not exist.
type FileNotFoundError struct {
	Path string
}

func (notFound *FileNotFoundError) Error() string {
	return fmt.Sprintf(errorFileNotFoundFormat, notFound.Path)
}

// DirectoryNotFoundError reports a reference whose shape names a directory that does not exist.
type DirectoryNotFoundError struct {
	Path string
}

func (notFound *DirectoryNotFoundError) Error() string {
	return fmt.Sprintf(errorDirectoryNotFoundFormat, notFound.Path)
}

// InvalidReferenceError reports a reference that does not start with the reference prefix.
type InvalidReferenceError struct {
	Reference string
}

func (invalid *InvalidReferenceError) Error() string {
	return fmt.Sprintf(errorInvalidReferenceFormat, invalid.Reference)
}

// TemplateParseError reports a malformed reference pattern.
type TemplateParseError struct {
	Position int
	Message  string
}

func (parseError *TemplateParseError) Error() string {
	return fmt.Sprintf(errorTemplateParseFormat, parseError.Position, parseError.Message)
}

// PathTraversalError reports a resolved path outside the sandbox root. Path is the offending resolved path.
type PathTraversalError struct {
	Path string
}

func (traversal *PathTraversalError) Error() string {
	return fmt.Sprintf(errorPathTraversalFormat, traversal.Path)
}

// FileSizeExceededError reports a non-forced file above the configured size limit.
// RelativePath is the base-directory-relative form used in the force hint; when empty the
// hint falls back to the file name.
type FileSizeExceededError struct {
	Path         string
	RelativePath string
	Size         int64
	MaxSize      int64
}

func (exceeded *FileSizeExceededError) Error() string {
	return fmt.Sprintf(errorFileSizeExceededFormat, exceeded.MaxSize, exceeded.Path, exceeded.Size, exceeded.forceTarget())
}

func (exceeded *FileSizeExceededError) forceTarget() string {
	if exceeded.RelativePath != "" && exceeded.RelativePath != "." {
		return filepath.ToSlash(exceeded.RelativePath)
	}
	name := filepath.Base(exceeded.Path)
	if name == "." || name == string(filepath.Separator) {
		return "file"
	}
	return name
}
