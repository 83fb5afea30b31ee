package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/ctxstitch/internal/sandbox"
	"github.com/temirov/ctxstitch/internal/tree"
	"github.com/temirov/ctxstitch/internal/types"
	"github.com/temirov/ctxstitch/internal/utils"
)

const (
	fileHeaderFormat          = "<!-- File: %s -->\n"
	directoryTreeHeaderFormat = "<!-- Directory tree: %s -->\n"
	filesInHeaderFormat       = "<!-- Files in %s -->\n\n"
	deepSectionFormat         = "### %s\n\n```\n%s\n```\n\n"
	deepBinaryFormat          = "### %s\n\n" + binaryContentOmitted + "\n\n"
	deepErrorFormat           = "### %s\n\nError reading file: %v\n\n"
	binaryContentOmitted      = "(binary content omitted)"
	sectionSeparator          = "\n"

	errorStatPathFormat = "stat %s: %w"
	errorReadFileFormat = "reading file %s: %w"

	logMessageExpandReference = "expanding reference"
	logMessageDeepReadFailed  = "deep inclusion read failed"
	logFieldReference         = "reference"
	logFieldPath              = "path"
	logFieldForce             = "force"
)

// readDeepFile reads the files listed by a deep inclusion.
var readDeepFile = os.ReadFile

// ProcessReference expands a single @-prefixed reference.
//
// A file is returned verbatim, refused with FileSizeExceededError when it is larger than
// MaxFileSize and force is false. A directory yields its tree; with force the tree is followed by
// every visible file under it. A missing target yields DirectoryNotFoundError when the reference
// names a directory (trailing separator or the root) and FileNotFoundError otherwise.
func ProcessReference(reference string, config TemplateConfig, force bool) (string, error) {
	canonicalConfig, canonicalError := config.canonical()
	if canonicalError != nil {
		return "", canonicalError
	}
	return processReference(reference, canonicalConfig, force)
}

// processReference expands reference against a config whose BaseDirectory is already canonical.
func processReference(reference string, config TemplateConfig, force bool) (string, error) {
	if !strings.HasPrefix(reference, types.ReferencePrefix) {
		return "", &types.InvalidReferenceError{Reference: reference}
	}
	config.logger().Debug(logMessageExpandReference, zap.String(logFieldReference, reference), zap.Bool(logFieldForce, force))

	resolvedPath, resolveError := sandbox.Resolve(reference, config.BaseDirectory)
	if resolveError != nil {
		if errors.Is(resolveError, fs.ErrNotExist) {
			lexicalPath := filepath.Join(config.BaseDirectory, sandbox.StripReferenceMarkers(reference))
			return "", notFoundError(reference, lexicalPath)
		}
		return "", resolveError
	}

	pathInfo, statError := os.Stat(resolvedPath)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return "", notFoundError(reference, resolvedPath)
		}
		return "", fmt.Errorf(errorStatPathFormat, resolvedPath, statError)
	}

	switch {
	case pathInfo.IsDir() && force:
		return expandDirectoryDeep(resolvedPath, config)
	case pathInfo.IsDir():
		treeText, _, treeError := expandDirectory(resolvedPath, config)
		return treeText, treeError
	case pathInfo.Mode().IsRegular():
		return expandFile(resolvedPath, pathInfo.Size(), config, force)
	default:
		return "", notFoundError(reference, resolvedPath)
	}
}

// namesDirectory reports whether the reference, without its markers, was written as a directory.
func namesDirectory(reference string) bool {
	remainder := strings.TrimPrefix(reference, types.ReferencePrefix)
	remainder = strings.TrimPrefix(remainder, types.ForceMarker)
	if remainder == "" || remainder == "." || remainder == "/" || remainder == `\` {
		return true
	}
	return strings.HasSuffix(remainder, "/") || strings.HasSuffix(remainder, `\`)
}

func notFoundError(reference string, path string) error {
	if namesDirectory(reference) {
		return &types.DirectoryNotFoundError{Path: path}
	}
	return &types.FileNotFoundError{Path: path}
}

func expandFile(filePath string, fileSize int64, config TemplateConfig, force bool) (string, error) {
	if !force && fileSize > config.MaxFileSize {
		return "", &types.FileSizeExceededError{
			Path:         filePath,
			RelativePath: relativeToBase(filePath, config),
			Size:         fileSize,
			MaxSize:      config.MaxFileSize,
		}
	}
	contents, readError := os.ReadFile(filePath)
	if readError != nil {
		return "", fmt.Errorf(errorReadFileFormat, filePath, readError)
	}
	if !config.AddPathComments {
		return string(contents), nil
	}
	return fmt.Sprintf(fileHeaderFormat, relativeToBase(filePath, config)) + string(contents), nil
}

func expandDirectory(directoryPath string, config TemplateConfig) (string, tree.Listing, error) {
	listing, renderError := tree.Render(directoryPath, config.treeOptions())
	if renderError != nil {
		return "", tree.Listing{}, renderError
	}
	if !config.AddPathComments {
		return listing.Text, listing, nil
	}
	return fmt.Sprintf(directoryTreeHeaderFormat, relativeToBase(directoryPath, config)) + listing.Text, listing, nil
}

// expandDirectoryDeep renders the tree and then one section per listed file. A file that cannot be
// read becomes an inline note instead of failing the expansion.
func expandDirectoryDeep(directoryPath string, config TemplateConfig) (string, error) {
	treeText, listing, treeError := expandDirectory(directoryPath, config)
	if treeError != nil {
		return "", treeError
	}

	var builder strings.Builder
	builder.WriteString(treeText)
	builder.WriteString(sectionSeparator)
	if config.AddPathComments {
		builder.WriteString(fmt.Sprintf(filesInHeaderFormat, relativeToBase(directoryPath, config)))
	}

	for _, filePath := range listing.Files {
		relativePath := relativeToBase(filePath, config)
		contents, readError := readDeepFile(filePath)
		switch {
		case readError != nil:
			config.logger().Warn(logMessageDeepReadFailed, zap.String(logFieldPath, filePath), zap.Error(readError))
			builder.WriteString(fmt.Sprintf(deepErrorFormat, relativePath, readError))
		case utils.IsBinary(contents):
			builder.WriteString(fmt.Sprintf(deepBinaryFormat, relativePath))
		default:
			builder.WriteString(fmt.Sprintf(deepSectionFormat, relativePath, strings.TrimSuffix(string(contents), "\n")))
		}
	}
	return builder.String(), nil
}

func relativeToBase(path string, config TemplateConfig) string {
	return utils.RelativePathOrSelf(path, config.BaseDirectory)
}
