package main

import (
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/temirov/ctxstitch/internal/cli"
	"github.com/temirov/ctxstitch/internal/utils"
)

// main is the entry point for the ctxstitch command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(zapcore.ErrorLevel)
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer func() { _ = loggerInstance.Sync() }()
	if applicationExecutionError := cli.Execute(); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
}
