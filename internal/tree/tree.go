// Package tree renders deterministic ASCII directory trees.
package tree

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/ctxstitch/internal/exclusion"
	"github.com/temirov/ctxstitch/internal/sandbox"
	"github.com/temirov/ctxstitch/internal/types"
	"github.com/temirov/ctxstitch/internal/utils"
)

const (
	// RootMarker is the first line of every rendered tree.
	RootMarker = "."
	// UnlimitedDepth disables the depth limit.
	UnlimitedDepth = -1

	branchConnector = "├── "
	lastConnector   = "└── "
	branchPadding   = "│   "
	lastPadding     = "    "
	directorySuffix = "/"
	lineTerminator  = "\n"

	errorReadDirectoryFormat = "reading directory %s: %w"
	errorLoadIgnoreFormat    = "loading ignore rules for %s: %w"
	errorWalkDirectoryFormat = "walking directory %s: %w"

	logMessageSkipSubdirectory = "skipping unreadable subdirectory"
	logMessageSkipSymlink      = "skipping symlink"
	logMessageSkipIgnoreFiles  = "skipping unreadable ignore files"
	logFieldPath               = "path"
	logFieldTarget             = "target"
)

// Options configures a Render call.
type Options struct {
	// BaseDirectory is the canonical sandbox root used for exclusion and symlink checks.
	BaseDirectory string
	// MaxDepth is the number of directory levels below the listed directory; UnlimitedDepth lifts the limit.
	MaxDepth      int
	Exclusion     *exclusion.Spec
	IgnoreSources exclusion.IgnoreSources
	Logger        *zap.Logger
}

// Listing is a rendered tree together with the visible files in rendering order.
type Listing struct {
	Text  string
	Files []string
}

type visibleEntry struct {
	name        string
	path        string
	isDirectory bool
	expandable  bool
}

// Render lists directoryPath. Hidden entries and excluded paths are left out. When ignore sources
// are active the walk honours ignore files and its results are rebuilt into an Arena before printing.
func Render(directoryPath string, options Options) (Listing, error) {
	directoryInfo, statError := os.Stat(directoryPath)
	if statError != nil || !directoryInfo.IsDir() {
		return Listing{}, &types.DirectoryNotFoundError{Path: directoryPath}
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.BaseDirectory == "" {
		options.BaseDirectory = directoryPath
	}

	if options.IgnoreSources.Active() {
		return renderIgnoreAware(directoryPath, options)
	}

	renderer := &directoryRenderer{
		options: options,
		filter:  exclusion.NewFilter(options.BaseDirectory, options.Exclusion, nil),
	}
	renderer.builder.WriteString(RootMarker + lineTerminator)
	if walkError := renderer.renderDirectory(directoryPath, "", 1); walkError != nil {
		return Listing{}, walkError
	}
	return Listing{Text: renderer.builder.String(), Files: renderer.files}, nil
}

// expandsLevel reports whether a directory found at level (1 for children of the listed directory) is descended into.
func expandsLevel(maxDepth int, level int) bool {
	if maxDepth < 0 {
		return true
	}
	return level < max(maxDepth, 1)
}

type directoryRenderer struct {
	options Options
	filter  *exclusion.Filter
	builder strings.Builder
	files   []string
}

func (renderer *directoryRenderer) renderDirectory(directoryPath string, prefix string, level int) error {
	directoryEntries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		return fmt.Errorf(errorReadDirectoryFormat, directoryPath, readDirectoryError)
	}

	var entries []visibleEntry
	for _, directoryEntry := range directoryEntries {
		childPath := filepath.Join(directoryPath, directoryEntry.Name())
		isDirectory, expandable, visible := classifyEntry(renderer.options, childPath, directoryEntry)
		if !visible || renderer.filter.Excluded(childPath, isDirectory) {
			continue
		}
		entries = append(entries, visibleEntry{
			name:        directoryEntry.Name(),
			path:        childPath,
			isDirectory: isDirectory,
			expandable:  expandable,
		})
	}

	for index, entry := range entries {
		isLast := index == len(entries)-1
		renderer.builder.WriteString(entryLine(prefix, entry.name, entry.isDirectory, isLast))
		if !entry.isDirectory {
			renderer.files = append(renderer.files, entry.path)
			continue
		}
		if !entry.expandable || !expandsLevel(renderer.options.MaxDepth, level) {
			continue
		}
		if childError := renderer.renderDirectory(entry.path, childPrefix(prefix, isLast), level+1); childError != nil {
			renderer.options.Logger.Warn(logMessageSkipSubdirectory, zap.String(logFieldPath, entry.path), zap.Error(childError))
		}
	}
	return nil
}

// classifyEntry reports whether the entry is a directory, whether it may be descended into and whether
// it is visible at all. Symlinks are only shown when their target stays inside the base directory and
// are never descended into.
func classifyEntry(options Options, entryPath string, directoryEntry fs.DirEntry) (bool, bool, bool) {
	if directoryEntry.Type()&fs.ModeSymlink == 0 {
		return directoryEntry.IsDir(), directoryEntry.IsDir(), true
	}
	targetPath, evalError := filepath.EvalSymlinks(entryPath)
	if evalError != nil {
		options.Logger.Debug(logMessageSkipSymlink, zap.String(logFieldPath, entryPath), zap.Error(evalError))
		return false, false, false
	}
	if !sandbox.IsWithin(options.BaseDirectory, targetPath) {
		options.Logger.Debug(logMessageSkipSymlink, zap.String(logFieldPath, entryPath), zap.String(logFieldTarget, targetPath))
		return false, false, false
	}
	targetInfo, statError := os.Stat(targetPath)
	if statError != nil {
		return false, false, false
	}
	return targetInfo.IsDir(), false, true
}

func entryLine(prefix string, name string, isDirectory bool, isLast bool) string {
	connector := branchConnector
	if isLast {
		connector = lastConnector
	}
	suffix := ""
	if isDirectory {
		suffix = directorySuffix
	}
	return prefix + connector + name + suffix + lineTerminator
}

func childPrefix(prefix string, isLast bool) string {
	if isLast {
		return prefix + lastPadding
	}
	return prefix + branchPadding
}

func renderIgnoreAware(directoryPath string, options Options) (Listing, error) {
	ignoreRules, loadError := exclusion.LoadIgnoreRules(options.BaseDirectory, directoryPath, options.IgnoreSources)
	if loadError != nil {
		return Listing{}, fmt.Errorf(errorLoadIgnoreFormat, directoryPath, loadError)
	}
	filter := exclusion.NewFilter(options.BaseDirectory, options.Exclusion, ignoreRules)
	arena := NewArena(directoryPath)

	walkFunction := func(currentPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if currentPath == directoryPath {
				return walkError
			}
			options.Logger.Warn(logMessageSkipSubdirectory, zap.String(logFieldPath, currentPath), zap.Error(walkError))
			if directoryEntry != nil && directoryEntry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if currentPath == directoryPath {
			return nil
		}

		isDirectory, expandable, visible := classifyEntry(options, currentPath, directoryEntry)
		if !visible || filter.Excluded(currentPath, isDirectory) {
			if directoryEntry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relativeSegments := utils.SplitRelativePath(utils.RelativePathOrSelf(currentPath, directoryPath))
		arena.InsertPath(relativeSegments, isDirectory)
		if !directoryEntry.IsDir() {
			return nil
		}
		if !expandable || !expandsLevel(options.MaxDepth, len(relativeSegments)) {
			return filepath.SkipDir
		}
		relativeToBase := utils.RelativePathOrSelf(currentPath, options.BaseDirectory)
		if extendError := filter.IgnoreRules().LoadDirectory(relativeToBase, currentPath); extendError != nil {
			options.Logger.Warn(logMessageSkipIgnoreFiles, zap.String(logFieldPath, currentPath), zap.Error(extendError))
		}
		return nil
	}

	if walkError := filepath.WalkDir(directoryPath, walkFunction); walkError != nil {
		return Listing{}, fmt.Errorf(errorWalkDirectoryFormat, directoryPath, walkError)
	}

	text, files := arena.Render()
	return Listing{Text: text, Files: files}, nil
}
