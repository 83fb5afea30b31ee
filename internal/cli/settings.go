package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/ctxstitch/internal/config"
	"github.com/temirov/ctxstitch/internal/engine"
	"github.com/temirov/ctxstitch/internal/exclusion"
	"github.com/temirov/ctxstitch/internal/output"
	"github.com/temirov/ctxstitch/internal/tokenizer"
)

const (
	defaultMaxDepth    = engine.DefaultMaxTreeDepth
	defaultMaxFileSize = engine.DefaultMaxFileSize

	errorBaseDirectoryFormat = "base directory %s: %w"
	errorExclusionFormat     = "exclusion patterns: %w"
)

var errNonPositiveFileSize = errors.New("max file size must be positive")

// stitchSettings is the effective configuration after defaults, configuration files,
// the environment and explicitly set flags have been layered.
type stitchSettings struct {
	baseDirectory     string
	maxDepth          int
	maxFileSize       int64
	comments          bool
	format            output.OutputFormat
	copyToClipboard   bool
	tokens            bool
	model             string
	exclusionPatterns []string
	useGitignore      bool
	useIgnoreFile     bool
}

func defaultSettings(workingDirectory string) stitchSettings {
	return stitchSettings{
		baseDirectory: workingDirectory,
		maxDepth:      defaultMaxDepth,
		maxFileSize:   defaultMaxFileSize,
		comments:      true,
		format:        output.FormatPlain,
		model:         tokenizer.DefaultModel,
		useGitignore:  true,
		useIgnoreFile: true,
	}
}

// resolveSettings layers, lowest priority first: defaults, configuration files, CTXSTITCH_BASE_DIR, changed flags.
// Exclusion patterns from flags are added to the configured ones.
func resolveSettings(
	flags *pflag.FlagSet,
	options stitchOptions,
	fileConfiguration config.ApplicationConfiguration,
	environmentBaseDirectory string,
	workingDirectory string,
) (stitchSettings, error) {
	settings := defaultSettings(workingDirectory)

	if fileConfiguration.BaseDirectory != "" {
		settings.baseDirectory = absolutePath(workingDirectory, fileConfiguration.BaseDirectory)
	}
	if fileConfiguration.MaxDepth != nil {
		settings.maxDepth = *fileConfiguration.MaxDepth
	}
	if fileConfiguration.MaxFileSize != nil {
		settings.maxFileSize = *fileConfiguration.MaxFileSize
	}
	if fileConfiguration.Comments != nil {
		settings.comments = *fileConfiguration.Comments
	}
	formatName := fileConfiguration.Format
	if fileConfiguration.Clipboard != nil {
		settings.copyToClipboard = *fileConfiguration.Clipboard
	}
	if fileConfiguration.Tokens.Enabled != nil {
		settings.tokens = *fileConfiguration.Tokens.Enabled
	}
	if fileConfiguration.Tokens.Model != "" {
		settings.model = fileConfiguration.Tokens.Model
	}
	if fileConfiguration.Paths.UseGitignore != nil {
		settings.useGitignore = *fileConfiguration.Paths.UseGitignore
	}
	if fileConfiguration.Paths.UseIgnoreFile != nil {
		settings.useIgnoreFile = *fileConfiguration.Paths.UseIgnoreFile
	}

	if environmentBaseDirectory != "" {
		settings.baseDirectory = absolutePath(workingDirectory, environmentBaseDirectory)
	}

	if flags.Changed(baseDirectoryFlagName) {
		settings.baseDirectory = absolutePath(workingDirectory, options.baseDirectory)
	}
	if flags.Changed(maxDepthFlagName) {
		settings.maxDepth = options.maxDepth
	}
	if flags.Changed(maxFileSizeFlagName) {
		settings.maxFileSize = options.maxFileSize
	}
	if flags.Changed(noCommentsFlagName) {
		settings.comments = !options.disableComments
	}
	if flags.Changed(formatFlagName) {
		formatName = options.format
	}
	if flags.Changed(copyFlagName) {
		settings.copyToClipboard = options.copyToClipboard
	}
	if flags.Changed(tokensFlagName) {
		settings.tokens = options.tokens
	}
	if flags.Changed(modelFlagName) {
		settings.model = options.model
	}
	if flags.Changed(noGitignoreFlagName) {
		settings.useGitignore = !options.disableGitignore
	}
	if flags.Changed(noIgnoreFlagName) {
		settings.useIgnoreFile = !options.disableIgnoreFile
	}
	settings.exclusionPatterns = config.NormalizeExclusionPatterns(
		append(append([]string{}, fileConfiguration.Paths.Exclude...), options.exclusionPatterns...),
	)

	format, formatError := output.ParseOutputFormat(formatName)
	if formatError != nil {
		return stitchSettings{}, formatError
	}
	settings.format = format
	if settings.maxFileSize <= 0 {
		return stitchSettings{}, errNonPositiveFileSize
	}
	if settings.maxDepth < 0 {
		settings.maxDepth = engine.UnlimitedTreeDepth
	}
	return settings, nil
}

// templateConfig converts settings into the engine configuration.
func (settings stitchSettings) templateConfig(logger *zap.Logger) (engine.TemplateConfig, error) {
	templateConfig, configError := engine.NewTemplateConfig(settings.baseDirectory)
	if configError != nil {
		return engine.TemplateConfig{}, fmt.Errorf(errorBaseDirectoryFormat, settings.baseDirectory, configError)
	}
	templateConfig.MaxTreeDepth = settings.maxDepth
	templateConfig.MaxFileSize = settings.maxFileSize
	templateConfig.AddPathComments = settings.comments
	templateConfig.UseGitignore = settings.useGitignore
	templateConfig.UseIgnoreFile = settings.useIgnoreFile
	templateConfig.Logger = logger
	if len(settings.exclusionPatterns) > 0 {
		spec, specError := exclusion.NewSpec(settings.exclusionPatterns)
		if specError != nil {
			return engine.TemplateConfig{}, fmt.Errorf(errorExclusionFormat, specError)
		}
		templateConfig.Exclusion = spec
	}
	return templateConfig, nil
}
