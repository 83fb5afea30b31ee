// Package engine expands {{ @path }} references into file contents and directory trees.
package engine

import (
	"go.uber.org/zap"

	"github.com/temirov/ctxstitch/internal/exclusion"
	"github.com/temirov/ctxstitch/internal/sandbox"
	"github.com/temirov/ctxstitch/internal/tree"
)

const (
	// DefaultMaxTreeDepth limits directory trees to five levels below the listed directory.
	DefaultMaxTreeDepth = 5
	// DefaultMaxFileSize is the largest file included without the force marker.
	DefaultMaxFileSize int64 = 64 * 1024
	// UnlimitedTreeDepth disables the tree depth limit.
	UnlimitedTreeDepth = tree.UnlimitedDepth
)

// TemplateConfig governs every expansion of a processing call. It is passed explicitly; nothing is read
// from the environment while expanding.
type TemplateConfig struct {
	// BaseDirectory is the sandbox root. References never resolve outside it. Processing calls
	// canonicalize it first, so a symlinked root behaves like its target.
	BaseDirectory string
	// MaxTreeDepth counts directory levels below a listed directory. Zero behaves like one.
	MaxTreeDepth int
	// MaxFileSize is the byte threshold for non-forced file inclusion. A file of exactly this size is allowed.
	MaxFileSize     int64
	AddPathComments bool
	UseGitignore    bool
	UseIgnoreFile   bool
	Exclusion       *exclusion.Spec
	Logger          *zap.Logger
}

// NewTemplateConfig canonicalizes baseDirectory and returns a configuration with default limits,
// provenance comments and ignore-file handling enabled.
func NewTemplateConfig(baseDirectory string) (TemplateConfig, error) {
	canonicalBase, canonicalError := sandbox.CanonicalDirectory(baseDirectory)
	if canonicalError != nil {
		return TemplateConfig{}, canonicalError
	}
	return TemplateConfig{
		BaseDirectory:   canonicalBase,
		MaxTreeDepth:    DefaultMaxTreeDepth,
		MaxFileSize:     DefaultMaxFileSize,
		AddPathComments: true,
		UseGitignore:    true,
		UseIgnoreFile:   true,
	}, nil
}

// canonical returns a copy of config whose BaseDirectory is absolute and symlink-free, so that resolved
// paths, exclusion decisions and provenance headers all share one root.
func (config TemplateConfig) canonical() (TemplateConfig, error) {
	canonicalBase, canonicalError := sandbox.CanonicalDirectory(config.BaseDirectory)
	if canonicalError != nil {
		return TemplateConfig{}, canonicalError
	}
	config.BaseDirectory = canonicalBase
	return config, nil
}

func (config TemplateConfig) logger() *zap.Logger {
	if config.Logger == nil {
		return zap.NewNop()
	}
	return config.Logger
}

func (config TemplateConfig) treeOptions() tree.Options {
	return tree.Options{
		BaseDirectory: config.BaseDirectory,
		MaxDepth:      config.MaxTreeDepth,
		Exclusion:     config.Exclusion,
		IgnoreSources: exclusion.IgnoreSources{
			UseGitignore:  config.UseGitignore,
			UseIgnoreFile: config.UseIgnoreFile,
		},
		Logger: config.logger(),
	}
}
