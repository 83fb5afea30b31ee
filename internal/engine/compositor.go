package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"go.uber.org/zap"

	"github.com/temirov/ctxstitch/internal/references"
	"github.com/temirov/ctxstitch/internal/types"
)

const (
	errorReadTemplateFormat = "reading template %s: %w"

	logMessageProcessTemplate = "processing template"
	logFieldReferenceCount    = "references"
)

// FindReferences returns every reference token of text in source order.
func FindReferences(text string) ([]types.TemplateReference, error) {
	return references.FindReferences(text)
}

// ProcessTemplate replaces every reference token of text with its expansion.
// Replacements are spliced from the last token to the first so that pending offsets stay valid.
// The first failing reference aborts the call and no partial output is returned.
func ProcessTemplate(text string, config TemplateConfig) (string, error) {
	templateReferences, findError := references.FindReferences(text)
	if findError != nil {
		return "", findError
	}
	if len(templateReferences) == 0 {
		return text, nil
	}
	config, canonicalError := config.canonical()
	if canonicalError != nil {
		return "", canonicalError
	}
	config.logger().Debug(logMessageProcessTemplate, zap.Int(logFieldReferenceCount, len(templateReferences)))

	buffer := []byte(text)
	for index := len(templateReferences) - 1; index >= 0; index-- {
		templateReference := templateReferences[index]
		replacement, expandError := processReference(templateReference.Reference, config, templateReference.Force)
		if expandError != nil {
			return "", expandError
		}
		buffer = slices.Replace(buffer, templateReference.Start, templateReference.End, []byte(replacement)...)
	}
	return string(buffer), nil
}

// ProcessTemplateFile reads the template at templatePath and processes it with ProcessTemplate.
//
// #nosec G304
func ProcessTemplateFile(templatePath string, config TemplateConfig) (string, error) {
	templateInfo, statError := os.Stat(templatePath)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return "", &types.FileNotFoundError{Path: templatePath}
		}
		return "", fmt.Errorf(errorReadTemplateFormat, templatePath, statError)
	}
	if templateInfo.IsDir() {
		return "", &types.FileNotFoundError{Path: templatePath}
	}
	templateContents, readError := os.ReadFile(templatePath)
	if readError != nil {
		return "", fmt.Errorf(errorReadTemplateFormat, templatePath, readError)
	}
	return ProcessTemplate(string(templateContents), config)
}
