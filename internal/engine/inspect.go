package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/ctxstitch/internal/sandbox"
	"github.com/temirov/ctxstitch/internal/types"
	"github.com/temirov/ctxstitch/internal/utils"
)

const (
	synthesizedReferenceFormat = "{{ " + types.ForcedReferencePrefix + "%s }}\n"
	referenceTerminator        = "}"
	errorStatInputFormat       = "stat input %s: %w"
	errorAbsoluteInputFormat   = "getting absolute path for %s: %w"
)

// InspectReference resolves templateReference without expanding it and describes the target.
// Resolution failures are reported in the Error field rather than returned.
func InspectReference(templateReference types.TemplateReference, config TemplateConfig) types.ReferenceInfo {
	canonicalConfig, canonicalError := config.canonical()
	if canonicalError != nil {
		return types.ReferenceInfo{
			Reference: templateReference.Reference,
			Start:     templateReference.Start,
			End:       templateReference.End,
			Force:     templateReference.Force,
			Error:     canonicalError.Error(),
		}
	}
	return inspectReference(templateReference, canonicalConfig)
}

func inspectReference(templateReference types.TemplateReference, config TemplateConfig) types.ReferenceInfo {
	info := types.ReferenceInfo{
		Reference: templateReference.Reference,
		Start:     templateReference.Start,
		End:       templateReference.End,
		Force:     templateReference.Force,
	}
	resolvedPath, resolveError := sandbox.Resolve(templateReference.Reference, config.BaseDirectory)
	if resolveError != nil {
		if errors.Is(resolveError, fs.ErrNotExist) {
			exists := false
			info.Path = filepath.Join(config.BaseDirectory, sandbox.StripReferenceMarkers(templateReference.Reference))
			info.Exists = &exists
			return info
		}
		info.Error = resolveError.Error()
		return info
	}

	info.Path = resolvedPath
	pathInfo, statError := os.Stat(resolvedPath)
	exists := statError == nil
	info.Exists = &exists
	if statError != nil {
		if !errors.Is(statError, fs.ErrNotExist) {
			info.Error = statError.Error()
		}
		return info
	}

	info.LastModified = utils.FormatTimestamp(pathInfo.ModTime())
	if pathInfo.IsDir() {
		info.FileType = types.NodeTypeDirectory
		return info
	}
	info.FileType = types.NodeTypeFile
	info.SizeBytes = pathInfo.Size()
	info.MimeType = utils.DetectMimeType(resolvedPath)
	if !templateReference.Force && pathInfo.Size() > config.MaxFileSize {
		exceeded := &types.FileSizeExceededError{
			Path:         resolvedPath,
			RelativePath: relativeToBase(resolvedPath, config),
			Size:         pathInfo.Size(),
			MaxSize:      config.MaxFileSize,
		}
		info.Error = exceeded.Error()
	}
	return info
}

// InspectTemplate inspects every reference of text.
func InspectTemplate(text string, config TemplateConfig) ([]types.ReferenceInfo, error) {
	templateReferences, findError := FindReferences(text)
	if findError != nil {
		return nil, findError
	}
	config, canonicalError := config.canonical()
	if canonicalError != nil {
		return nil, canonicalError
	}
	infos := make([]types.ReferenceInfo, 0, len(templateReferences))
	for _, templateReference := range templateReferences {
		infos = append(infos, inspectReference(templateReference, config))
	}
	return infos, nil
}

// SynthesizeTemplate builds a template holding one forced reference per input path, in input order.
// Relative inputs are taken relative to the base directory; absolute inputs must lie inside it.
// Directories are written with a trailing slash.
func SynthesizeTemplate(inputs []string, config TemplateConfig) (string, error) {
	config, canonicalError := config.canonical()
	if canonicalError != nil {
		return "", canonicalError
	}
	var builder strings.Builder
	for _, input := range inputs {
		relativePath, relativeError := inputRelativeToBase(input, config)
		if relativeError != nil {
			return "", relativeError
		}
		if strings.Contains(relativePath, referenceTerminator) {
			return "", &types.InvalidReferenceError{Reference: input}
		}
		targetPath := filepath.Join(config.BaseDirectory, filepath.FromSlash(relativePath))
		if !sandbox.IsWithin(config.BaseDirectory, targetPath) {
			return "", &types.PathTraversalError{Path: targetPath}
		}
		targetInfo, statError := os.Stat(targetPath)
		if statError != nil {
			if errors.Is(statError, fs.ErrNotExist) {
				return "", notFoundError(types.ReferencePrefix+filepath.ToSlash(input), targetPath)
			}
			return "", fmt.Errorf(errorStatInputFormat, input, statError)
		}
		if targetInfo.IsDir() && relativePath != "." && !strings.HasSuffix(relativePath, "/") {
			relativePath += "/"
		}
		builder.WriteString(fmt.Sprintf(synthesizedReferenceFormat, relativePath))
	}
	return builder.String(), nil
}

func inputRelativeToBase(input string, config TemplateConfig) (string, error) {
	if !filepath.IsAbs(input) {
		return filepath.ToSlash(filepath.Clean(input)), nil
	}
	absoluteInput, absoluteError := filepath.Abs(input)
	if absoluteError != nil {
		return "", fmt.Errorf(errorAbsoluteInputFormat, input, absoluteError)
	}
	canonicalInput := absoluteInput
	if evaluatedInput, evalError := filepath.EvalSymlinks(absoluteInput); evalError == nil {
		canonicalInput = evaluatedInput
	}
	if !sandbox.IsWithin(config.BaseDirectory, canonicalInput) {
		return "", &types.PathTraversalError{Path: canonicalInput}
	}
	return utils.RelativePathOrSelf(canonicalInput, config.BaseDirectory), nil
}
