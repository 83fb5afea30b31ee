// Package cli provides the command line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/ctxstitch/internal/output"
	"github.com/temirov/ctxstitch/internal/services/clipboard"
	"github.com/temirov/ctxstitch/internal/tokenizer"
	"github.com/temirov/ctxstitch/internal/utils"
)

const (
	templateFlagName          = "template"
	dryRunFlagName            = "dry-run"
	listFlagName              = "list"
	formatFlagName            = "format"
	outputFlagName            = "output"
	outputFlagShorthand       = "o"
	excludeFlagName           = "exclude"
	excludeFlagShorthand      = "x"
	noGitignoreFlagName       = "no-gitignore"
	noIgnoreFlagName          = "no-ignore"
	noCommentsFlagName        = "no-comments"
	maxDepthFlagName          = "max-depth"
	maxDepthFlagShorthand     = "d"
	maxFileSizeFlagName       = "max-file-size"
	baseDirectoryFlagName     = "base-dir"
	baseDirectoryShorthand    = "b"
	configFlagName            = "config"
	copyFlagName              = "copy"
	tokensFlagName            = "tokens"
	modelFlagName             = "model"
	verboseFlagName           = "verbose"
	verboseFlagShorthand      = "v"
	quietFlagName             = "quiet"
	quietFlagShorthand        = "q"
	versionFlagName           = "version"
	globalFlagName            = "global"
	forceFlagName             = "force"
	standardInputMarker       = "-"
	versionTemplate           = "ctxstitch version: %s\n"
	initSuccessTemplate       = "Configuration written to %s\n"
	tokenReportTemplate       = "Tokens: %d (%s)\n"
	tokenSkippedMessage       = "token count skipped: output is not valid text"
	workingDirectoryErrorText = "unable to determine working directory: %w"

	rootUse              = "ctxstitch [paths...]"
	rootShortDescription = "stitch files and directory trees into one context bundle"
	rootLongDescription  = `ctxstitch expands {{ @path }} references into file contents and directory trees.
Pass paths to stitch them directly, or use --template to expand the references of a template file
(--template - reads the template from standard input). A reference such as {{ @src/ }} renders a
directory tree, {{ @!src/ }} also inlines every file below it, and {{ @!big.log }} bypasses the file
size limit. References never resolve outside the base directory.
Hidden entries (names starting with a dot) never appear in trees or inlined files, even when
.gitignore or .ignore rules allow them.`
	rootUsageExample = `  # Stitch a file and a directory with all of its files
  ctxstitch README.md internal/

  # Expand a template and wrap the result in a markdown fence
  ctxstitch --template prompt.md --format markdown -o bundle.md

  # Check which references a template would resolve
  ctxstitch --template prompt.md --dry-run

  # List the references of a template as JSON
  ctxstitch --template prompt.md --list json`

	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write the default configuration to .ctxstitch.yaml in the working directory,
or to ~/.ctxstitch/config.yaml with --global.`

	templateFlagDescription    = "template file to expand (- reads standard input)"
	dryRunFlagDescription      = "report how each reference resolves without expanding it"
	listFlagDescription        = "list template references (plain, detailed or json)"
	formatFlagDescription      = "output format (plain, markdown or html)"
	outputFlagDescription      = "write the bundle to a file instead of standard output"
	excludeFlagDescription     = "exclude paths matching a glob pattern from directory trees (repeatable)"
	noGitignoreFlagDescription = "do not apply .gitignore rules"
	noIgnoreFlagDescription    = "do not apply .ignore rules"
	noCommentsFlagDescription  = "omit provenance comments"
	maxDepthFlagDescription    = "directory levels rendered below a referenced directory (-1 for unlimited)"
	maxFileSizeFlagDescription = "largest file in bytes included without the ! marker"
	baseDirFlagDescription     = "sandbox root for references (default: working directory)"
	configFlagDescription      = "configuration file (default: .ctxstitch.yaml)"
	copyFlagDescription        = "copy the bundle to the clipboard"
	tokensFlagDescription      = "report the token count of the bundle"
	modelFlagDescription       = "tokenizer model used by --tokens"
	verboseFlagDescription     = "increase log verbosity (repeatable)"
	quietFlagDescription       = "log errors only"
	versionFlagDescription     = "display application version"
	globalFlagDescription      = "write the global configuration file"
	forceFlagDescription       = "overwrite an existing configuration file"
)

var (
	errNoInput            = errors.New("provide paths to stitch or --template")
	errTemplateWithInputs = errors.New("--template cannot be combined with paths")
	errDryRunWithList     = errors.New("--dry-run cannot be combined with --list")
)

// environment holds the process resources a command run touches.
type environment struct {
	stdin            io.Reader
	stdout           io.Writer
	stderr           io.Writer
	workingDirectory string
	homeDirectory    string
	clipboard        clipboard.Copier
	isTerminal       func() bool
	newLogger        func(zapcore.Level) (*zap.Logger, error)
	newCounter       func(tokenizer.Config) (tokenizer.Counter, string, error)
}

func defaultEnvironment() environment {
	return environment{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		clipboard: clipboard.NewService(),
		isTerminal: func() bool {
			return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		},
		newLogger:  utils.NewApplicationLogger,
		newCounter: tokenizer.NewCounter,
	}
}

func (env environment) resolveWorkingDirectory() (string, error) {
	if env.workingDirectory != "" {
		return env.workingDirectory, nil
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return "", fmt.Errorf(workingDirectoryErrorText, workingDirectoryError)
	}
	return workingDirectory, nil
}

func absolutePath(workingDirectory string, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(workingDirectory, path)
}

// stitchOptions stores the raw flag values of the root command.
type stitchOptions struct {
	templatePath      string
	dryRun            bool
	listEnabled       bool
	listFormat        output.ListFormat
	format            string
	outputPath        string
	exclusionPatterns []string
	disableGitignore  bool
	disableIgnoreFile bool
	disableComments   bool
	maxDepth          int
	maxFileSize       int64
	baseDirectory     string
	configPath        string
	copyToClipboard   bool
	tokens            bool
	model             string
	verbosity         int
	quiet             bool
	showVersion       bool
}

// Execute runs the ctxstitch application.
func Execute() error {
	rootCommand := newRootCommand(defaultEnvironment())
	rootCommand.SetArgs(normalizeFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// newRootCommand builds the root Cobra command.
func newRootCommand(env environment) *cobra.Command {
	var options stitchOptions

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if options.showVersion {
				_, writeError := fmt.Fprintf(env.stdout, versionTemplate, utils.GetApplicationVersion())
				return writeError
			}
			loggerInstance, loggerError := env.newLogger(utils.VerbosityLevel(options.quiet, options.verbosity))
			if loggerError != nil {
				return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
			}
			defer func() { _ = loggerInstance.Sync() }()
			run := stitchRun{
				env:     env,
				options: options,
				flags:   command.Flags(),
				logger:  loggerInstance,
			}
			return run.execute(arguments)
		},
	}

	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.CountVarP(&options.verbosity, verboseFlagName, verboseFlagShorthand, verboseFlagDescription)
	persistentFlags.BoolVarP(&options.quiet, quietFlagName, quietFlagShorthand, false, quietFlagDescription)

	flags := rootCommand.Flags()
	flags.StringVar(&options.templatePath, templateFlagName, "", templateFlagDescription)
	registerBooleanFlag(flags, &options.dryRun, dryRunFlagName, dryRunFlagDescription)
	registerListFlag(flags, &options.listFormat, &options.listEnabled)
	flags.StringVar(&options.format, formatFlagName, string(output.FormatPlain), formatFlagDescription)
	flags.StringVarP(&options.outputPath, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	flags.StringArrayVarP(&options.exclusionPatterns, excludeFlagName, excludeFlagShorthand, nil, excludeFlagDescription)
	registerBooleanFlag(flags, &options.disableGitignore, noGitignoreFlagName, noGitignoreFlagDescription)
	registerBooleanFlag(flags, &options.disableIgnoreFile, noIgnoreFlagName, noIgnoreFlagDescription)
	registerBooleanFlag(flags, &options.disableComments, noCommentsFlagName, noCommentsFlagDescription)
	flags.IntVarP(&options.maxDepth, maxDepthFlagName, maxDepthFlagShorthand, defaultMaxDepth, maxDepthFlagDescription)
	flags.Int64Var(&options.maxFileSize, maxFileSizeFlagName, defaultMaxFileSize, maxFileSizeFlagDescription)
	flags.StringVarP(&options.baseDirectory, baseDirectoryFlagName, baseDirectoryShorthand, "", baseDirFlagDescription)
	flags.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	registerBooleanFlag(flags, &options.copyToClipboard, copyFlagName, copyFlagDescription)
	registerBooleanFlag(flags, &options.tokens, tokensFlagName, tokensFlagDescription)
	flags.StringVar(&options.model, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	flags.BoolVar(&options.showVersion, versionFlagName, false, versionFlagDescription)

	rootCommand.SetIn(env.stdin)
	rootCommand.SetOut(env.stdout)
	rootCommand.SetErr(env.stderr)
	rootCommand.AddCommand(newInitCommand(env))
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}
