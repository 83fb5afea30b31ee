package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/ctxstitch/internal/config"
	"github.com/temirov/ctxstitch/internal/engine"
	"github.com/temirov/ctxstitch/internal/output"
	"github.com/temirov/ctxstitch/internal/tokenizer"
	"github.com/temirov/ctxstitch/internal/types"
)

const (
	outputFilePermissions = 0o644

	errorReadTemplateFormat    = "read template %s: %w"
	errorReadStandardInput     = "read template from standard input: %w"
	errorWriteOutputFormat     = "write output to %s: %w"
	errorInvalidReferencesText = "%d of %d references are invalid"

	logReadingTemplate   = "reading template"
	logSynthesizing      = "stitching paths"
	logWritingOutput     = "writing output"
	logCopiedToClipboard = "copied output to clipboard"
	logEffectiveSettings = "effective settings"
	logFieldPath         = "path"
	logFieldPaths        = "paths"
	logFieldBytes        = "bytes"
)

// stitchRun executes one invocation of the root command.
type stitchRun struct {
	env              environment
	options          stitchOptions
	flags            *pflag.FlagSet
	logger           *zap.Logger
	workingDirectory string
}

func (run *stitchRun) execute(inputs []string) error {
	if run.options.templatePath == "" && len(inputs) == 0 {
		return errNoInput
	}
	if run.options.templatePath != "" && len(inputs) > 0 {
		return errTemplateWithInputs
	}
	if run.options.dryRun && run.options.listEnabled {
		return errDryRunWithList
	}

	workingDirectory, workingDirectoryError := run.env.resolveWorkingDirectory()
	if workingDirectoryError != nil {
		return workingDirectoryError
	}
	run.workingDirectory = workingDirectory

	fileConfiguration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: run.options.configPath,
		HomeDirectory:    run.env.homeDirectory,
	})
	if loadError != nil {
		return loadError
	}
	settings, settingsError := resolveSettings(run.flags, run.options, fileConfiguration, config.EnvironmentBaseDirectory(), workingDirectory)
	if settingsError != nil {
		return settingsError
	}
	run.logger.Debug(logEffectiveSettings,
		zap.String("base_dir", settings.baseDirectory),
		zap.Int("max_depth", settings.maxDepth),
		zap.Int64("max_file_size", settings.maxFileSize),
		zap.Strings("exclude", settings.exclusionPatterns),
	)
	templateConfig, templateConfigError := settings.templateConfig(run.logger)
	if templateConfigError != nil {
		return templateConfigError
	}

	switch {
	case run.options.listEnabled:
		return run.list(inputs, templateConfig)
	case run.options.dryRun:
		return run.dryRun(inputs, templateConfig)
	default:
		return run.stitch(inputs, templateConfig, settings)
	}
}

func (run *stitchRun) list(inputs []string, templateConfig engine.TemplateConfig) error {
	templateText, templateError := run.templateText(inputs, templateConfig)
	if templateError != nil {
		return templateError
	}
	infos, inspectError := engine.InspectTemplate(templateText, templateConfig)
	if inspectError != nil {
		return inspectError
	}
	rendered, renderError := output.RenderListing(infos, run.options.listFormat)
	if renderError != nil {
		return renderError
	}
	_, writeError := io.WriteString(run.env.stdout, rendered)
	return writeError
}

func (run *stitchRun) dryRun(inputs []string, templateConfig engine.TemplateConfig) error {
	templateText, templateError := run.templateText(inputs, templateConfig)
	if templateError != nil {
		return templateError
	}
	infos, inspectError := engine.InspectTemplate(templateText, templateConfig)
	if inspectError != nil {
		return inspectError
	}
	summary, renderError := output.RenderDryRun(run.env.stdout, infos, run.env.isTerminal())
	if renderError != nil {
		return renderError
	}
	if !summary.AllValid() {
		return fmt.Errorf(errorInvalidReferencesText, summary.Invalid, summary.Total)
	}
	return nil
}

func (run *stitchRun) stitch(inputs []string, templateConfig engine.TemplateConfig, settings stitchSettings) error {
	var bundle string
	if run.options.templatePath != "" && run.options.templatePath != standardInputMarker {
		templatePath := absolutePath(run.workingDirectory, run.options.templatePath)
		run.logger.Info(logReadingTemplate, zap.String(logFieldPath, templatePath))
		processed, processError := engine.ProcessTemplateFile(templatePath, templateConfig)
		if processError != nil {
			return processError
		}
		bundle = processed
	} else {
		templateText, templateError := run.templateText(inputs, templateConfig)
		if templateError != nil {
			return templateError
		}
		processed, processError := engine.ProcessTemplate(templateText, templateConfig)
		if processError != nil {
			return processError
		}
		bundle = processed
	}

	formatted := settings.format.Apply(bundle)
	if writeError := run.writeOutput(formatted); writeError != nil {
		return writeError
	}
	if settings.copyToClipboard {
		if copyError := run.env.clipboard.Copy(formatted); copyError != nil {
			return copyError
		}
		run.logger.Info(logCopiedToClipboard, zap.Int(logFieldBytes, len(formatted)))
	}
	if settings.tokens {
		return run.reportTokens(formatted, settings.model)
	}
	return nil
}

// templateText returns the template to process: standard input, a template file, or a template
// synthesized from the input paths.
func (run *stitchRun) templateText(inputs []string, templateConfig engine.TemplateConfig) (string, error) {
	switch run.options.templatePath {
	case "":
		absoluteInputs := make([]string, 0, len(inputs))
		for _, input := range inputs {
			absoluteInputs = append(absoluteInputs, absolutePath(run.workingDirectory, input))
		}
		run.logger.Info(logSynthesizing, zap.Strings(logFieldPaths, inputs))
		return engine.SynthesizeTemplate(absoluteInputs, templateConfig)
	case standardInputMarker:
		run.logger.Info(logReadingTemplate, zap.String(logFieldPath, standardInputMarker))
		content, readError := io.ReadAll(run.env.stdin)
		if readError != nil {
			return "", fmt.Errorf(errorReadStandardInput, readError)
		}
		return string(content), nil
	default:
		templatePath := absolutePath(run.workingDirectory, run.options.templatePath)
		run.logger.Info(logReadingTemplate, zap.String(logFieldPath, templatePath))
		content, readError := os.ReadFile(templatePath)
		if readError != nil {
			if errors.Is(readError, fs.ErrNotExist) {
				return "", &types.FileNotFoundError{Path: templatePath}
			}
			return "", fmt.Errorf(errorReadTemplateFormat, templatePath, readError)
		}
		return string(content), nil
	}
}

func (run *stitchRun) writeOutput(formatted string) error {
	if run.options.outputPath == "" {
		_, writeError := io.WriteString(run.env.stdout, formatted)
		return writeError
	}
	outputPath := absolutePath(run.workingDirectory, run.options.outputPath)
	run.logger.Info(logWritingOutput, zap.String(logFieldPath, outputPath), zap.Int(logFieldBytes, len(formatted)))
	if writeError := os.WriteFile(outputPath, []byte(formatted), outputFilePermissions); writeError != nil {
		return fmt.Errorf(errorWriteOutputFormat, outputPath, writeError)
	}
	return nil
}

func (run *stitchRun) reportTokens(formatted string, model string) error {
	counter, resolvedModel, counterError := run.env.newCounter(tokenizer.Config{Model: model})
	if counterError != nil {
		return counterError
	}
	result, countError := tokenizer.CountBytes(counter, []byte(formatted))
	if countError != nil {
		return countError
	}
	if !result.Counted {
		run.logger.Warn(tokenSkippedMessage)
		return nil
	}
	_, writeError := fmt.Fprintf(run.env.stderr, tokenReportTemplate, result.Tokens, resolvedModel)
	return writeError
}
