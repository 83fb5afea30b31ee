// Package config loads ignore files and the layered ctxstitch configuration.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/ctxstitch/internal/utils"
)

const (
	commentPrefix         = "#"
	trailingWhitespace    = " \t\r"
	loadIgnoreErrorFormat = "loading %s from %s: %w"
	closeWarningFormat    = "Warning: failed to close %s: %v\n"
)

// LoadIgnoreFilePatterns reads a gitignore-syntax file and returns its pattern lines.
// Blank lines and comments are dropped; a missing file yields no patterns and no error.
//
// #nosec G304
func LoadIgnoreFilePatterns(ignoreFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, closeWarningFormat, ignoreFilePath, closeError)
		}
	}()

	var ignorePatterns []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		patternLine := strings.TrimRight(scanner.Text(), trailingWhitespace)
		if strings.TrimSpace(patternLine) == "" || strings.HasPrefix(patternLine, commentPrefix) {
			continue
		}
		ignorePatterns = append(ignorePatterns, patternLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return ignorePatterns, nil
}

// LoadDirectoryIgnorePatterns returns the patterns of the ignore files found directly in directoryPath.
// .gitignore patterns come first so that .ignore patterns, appended later, take precedence.
func LoadDirectoryIgnorePatterns(directoryPath string, useGitignore bool, useIgnoreFile bool) ([]string, error) {
	var combinedPatterns []string

	if useGitignore {
		gitIgnoreFilePath := filepath.Join(directoryPath, utils.GitIgnoreFileName)
		gitIgnoreFilePatterns, loadError := LoadIgnoreFilePatterns(gitIgnoreFilePath)
		if loadError != nil {
			return nil, fmt.Errorf(loadIgnoreErrorFormat, utils.GitIgnoreFileName, directoryPath, loadError)
		}
		combinedPatterns = append(combinedPatterns, gitIgnoreFilePatterns...)
	}

	if useIgnoreFile {
		ignoreFilePath := filepath.Join(directoryPath, utils.IgnoreFileName)
		ignoreFilePatterns, loadError := LoadIgnoreFilePatterns(ignoreFilePath)
		if loadError != nil {
			return nil, fmt.Errorf(loadIgnoreErrorFormat, utils.IgnoreFileName, directoryPath, loadError)
		}
		combinedPatterns = append(combinedPatterns, ignoreFilePatterns...)
	}

	return combinedPatterns, nil
}

// NormalizeExclusionPatterns trims patterns, drops empty ones and removes duplicates while keeping order.
func NormalizeExclusionPatterns(patterns []string) []string {
	var trimmedPatterns []string
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		trimmedPatterns = append(trimmedPatterns, trimmedPattern)
	}
	if len(trimmedPatterns) == 0 {
		return nil
	}
	return utils.DeduplicatePatterns(trimmedPatterns)
}
