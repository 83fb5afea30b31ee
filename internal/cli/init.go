package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/ctxstitch/internal/config"
)

// newInitCommand returns the init subcommand that writes the default configuration file.
func newInitCommand(env environment) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			workingDirectory, workingDirectoryError := env.resolveWorkingDirectory()
			if workingDirectoryError != nil {
				return workingDirectoryError
			}
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			destinationPath, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: workingDirectory,
				HomeDirectory:    env.homeDirectory,
			})
			if initError != nil {
				return initError
			}
			_, writeError := fmt.Fprintf(env.stdout, initSuccessTemplate, destinationPath)
			return writeError
		},
	}
	initCommand.Flags().BoolVar(&global, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
