package utils

// EmptyString represents a reusable empty string constant.
const EmptyString = ""

// Configuration and ignore file names used across the project.
const (
	// IgnoreFileName is the name of the ripgrep-style ignore file.
	IgnoreFileName = ".ignore"
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
	// ConfigFileName is the name of the local configuration file.
	ConfigFileName = ".ctxstitch.yaml"
	// GlobalConfigDirectoryName is the directory below the user home holding the global configuration.
	GlobalConfigDirectoryName = ".ctxstitch"
	// GlobalConfigFileName is the global configuration file inside GlobalConfigDirectoryName.
	GlobalConfigFileName = "config.yaml"
	// EnvironmentPrefix prefixes environment variables read by the CLI.
	EnvironmentPrefix = "CTXSTITCH"
)

// LoggerInitializationFailedMessageFormat is used when the zap logger cannot be built.
const LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"

// ApplicationExecutionFailedMessage prefixes fatal command errors.
const ApplicationExecutionFailedMessage = "Error"
