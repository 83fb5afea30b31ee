package exclusion

import (
	"path/filepath"
	"strings"

	"github.com/temirov/ctxstitch/internal/utils"
)

// Decision is the outcome of filtering one path.
type Decision int

const (
	// Include keeps the path.
	Include Decision = iota
	// Exclude hides the path and, for directories, everything beneath it.
	Exclude
)

const (
	includeDecisionName = "include"
	excludeDecisionName = "exclude"
	parentPathPrefix    = "../"
	parentPathName      = ".."
)

func (decision Decision) String() string {
	if decision == Exclude {
		return excludeDecisionName
	}
	return includeDecisionName
}

// IsHidden reports whether an entry name marks a hidden entry.
func IsHidden(name string) bool {
	return utils.IsHiddenName(name)
}

// Filter combines hidden-entry hiding, an exclusion Spec and optional ignore-file rules.
type Filter struct {
	baseDirectory string
	spec          *Spec
	ignoreRules   *IgnoreRules
}

// NewFilter builds a Filter for paths under the canonical baseDirectory. spec and ignoreRules may be nil.
func NewFilter(baseDirectory string, spec *Spec, ignoreRules *IgnoreRules) *Filter {
	return &Filter{baseDirectory: baseDirectory, spec: spec, ignoreRules: ignoreRules}
}

// IgnoreRules exposes the ignore-file rules so walkers can extend them with nested files.
func (filter *Filter) IgnoreRules() *IgnoreRules {
	return filter.ignoreRules
}

// Decide classifies a canonical candidate path. The base directory itself is always included.
func (filter *Filter) Decide(candidatePath string, isDirectory bool) Decision {
	relativePath := utils.RelativePathOrSelf(candidatePath, filter.baseDirectory)
	if relativePath == "." {
		return Include
	}
	if relativePath == parentPathName || strings.HasPrefix(relativePath, parentPathPrefix) || filepath.IsAbs(relativePath) {
		return Exclude
	}
	if IsHidden(filepath.Base(candidatePath)) {
		return Exclude
	}
	if filter.spec.Matches(relativePath, isDirectory) {
		return Exclude
	}
	if filter.ignoreRules.Excludes(relativePath, isDirectory) {
		return Exclude
	}
	return Include
}

// Excluded is shorthand for Decide(candidatePath, isDirectory) == Exclude.
func (filter *Filter) Excluded(candidatePath string, isDirectory bool) bool {
	return filter.Decide(candidatePath, isDirectory) == Exclude
}
