package exclusion

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/temirov/ctxstitch/internal/config"
	"github.com/temirov/ctxstitch/internal/utils"
)

const (
	filesystemRoot                = "/"
	gitInfoDirectoryName          = "info"
	gitExcludeFileName            = "exclude"
	errorGlobalPatternsFormat     = "loading global git excludes: %w"
	errorRepositoryExcludesFormat = "loading %s: %w"
	errorAncestorPatternsFormat   = "loading ignore files for %s: %w"
)

// IgnoreSources selects which ignore files contribute rules.
type IgnoreSources struct {
	UseGitignore  bool
	UseIgnoreFile bool
}

// Active reports whether any ignore file source is enabled.
func (sources IgnoreSources) Active() bool {
	return sources.UseGitignore || sources.UseIgnoreFile
}

// IgnoreRules is an ordered gitignore pattern list scoped to base-directory-relative domains.
// Later patterns take precedence, so deeper ignore files are appended after shallower ones.
type IgnoreRules struct {
	sources  IgnoreSources
	patterns []gitignore.Pattern
}

// LoadIgnoreRules collects the rules in force for listedDirectory: the user's global git excludes
// and the base directory's .git/info/exclude when gitignore semantics are on, followed by the
// ignore files of the base directory and every directory down to and including listedDirectory.
func LoadIgnoreRules(baseDirectory string, listedDirectory string, sources IgnoreSources) (*IgnoreRules, error) {
	rules := &IgnoreRules{sources: sources}
	if !sources.Active() {
		return rules, nil
	}

	if sources.UseGitignore {
		globalPatterns, globalError := gitignore.LoadGlobalPatterns(osfs.New(filesystemRoot))
		if globalError != nil {
			return nil, fmt.Errorf(errorGlobalPatternsFormat, globalError)
		}
		rules.patterns = append(rules.patterns, globalPatterns...)

		repositoryExcludePath := filepath.Join(baseDirectory, utils.GitDirectoryName, gitInfoDirectoryName, gitExcludeFileName)
		repositoryExcludeLines, loadError := config.LoadIgnoreFilePatterns(repositoryExcludePath)
		if loadError != nil {
			return nil, fmt.Errorf(errorRepositoryExcludesFormat, repositoryExcludePath, loadError)
		}
		rules.Extend(utils.EmptyString, repositoryExcludeLines)
	}

	listedSegments := utils.SplitRelativePath(utils.RelativePathOrSelf(listedDirectory, baseDirectory))
	for depth := 0; depth <= len(listedSegments); depth++ {
		ancestorSegments := listedSegments[:depth]
		ancestorPath := filepath.Join(append([]string{baseDirectory}, ancestorSegments...)...)
		if loadError := rules.LoadDirectory(strings.Join(ancestorSegments, "/"), ancestorPath); loadError != nil {
			return nil, fmt.Errorf(errorAncestorPatternsFormat, ancestorPath, loadError)
		}
	}
	return rules, nil
}

// LoadDirectory appends the ignore files found directly in directoryPath, scoped to relativeDirectory.
func (rules *IgnoreRules) LoadDirectory(relativeDirectory string, directoryPath string) error {
	directoryPatterns, loadError := config.LoadDirectoryIgnorePatterns(directoryPath, rules.sources.UseGitignore, rules.sources.UseIgnoreFile)
	if loadError != nil {
		return loadError
	}
	rules.Extend(relativeDirectory, directoryPatterns)
	return nil
}

// Extend appends gitignore pattern lines that apply beneath relativeDirectory.
func (rules *IgnoreRules) Extend(relativeDirectory string, patternLines []string) {
	domain := utils.SplitRelativePath(relativeDirectory)
	for _, patternLine := range patternLines {
		rules.patterns = append(rules.patterns, gitignore.ParsePattern(patternLine, domain))
	}
}

// Excludes reports whether relativePath, relative to the base directory in slash form, is ignored.
func (rules *IgnoreRules) Excludes(relativePath string, isDirectory bool) bool {
	if rules == nil || len(rules.patterns) == 0 {
		return false
	}
	pathSegments := utils.SplitRelativePath(relativePath)
	if len(pathSegments) == 0 {
		return false
	}
	return gitignore.NewMatcher(rules.patterns).Match(pathSegments, isDirectory)
}
