package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/temirov/ctxstitch/internal/output"
)

const (
	booleanFlagTypeName       = "bool"
	booleanFlagTrueLiteral    = "true"
	booleanFlagAcceptedValues = "true, false, yes, no, on, off, 1, 0"
	errorInvalidBooleanFormat = "invalid boolean value %q for --%s; accepted values: %s"
	listFlagTypeName          = "format"
)

var errListFlagNotInitialized = errors.New("list flag is not initialized")

var booleanFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

var listFormatLiterals = map[string]struct{}{
	string(output.ListPlain):    {},
	string(output.ListDetailed): {},
	string(output.ListJSON):     {},
}

// booleanFlagValue accepts yes/no style literals in addition to strconv booleans.
type booleanFlagValue struct {
	target  *bool
	flagKey string
}

func (value *booleanFlagValue) Set(input string) error {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = booleanFlagTrueLiteral
	}
	parsed, ok := booleanFlagLiterals[normalized]
	if !ok || value.target == nil {
		return fmt.Errorf(errorInvalidBooleanFormat, input, value.flagKey, booleanFlagAcceptedValues)
	}
	*value.target = parsed
	return nil
}

func (value *booleanFlagValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *booleanFlagValue) Type() string {
	return booleanFlagTypeName
}

func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, usage string) {
	*target = false
	flagSet.Var(&booleanFlagValue{target: target, flagKey: name}, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = strconv.FormatBool(false)
		lookup.NoOptDefVal = booleanFlagTrueLiteral
	}
}

// listFlagValue enables listing mode and records the requested listing format. A bare --list means plain.
type listFlagValue struct {
	format  *output.ListFormat
	enabled *bool
}

func (value *listFlagValue) Set(input string) error {
	if value.format == nil || value.enabled == nil {
		return errListFlagNotInitialized
	}
	parsed, parseError := output.ParseListFormat(input)
	if parseError != nil {
		return parseError
	}
	*value.format = parsed
	*value.enabled = true
	return nil
}

func (value *listFlagValue) String() string {
	if value == nil || value.format == nil || value.enabled == nil || !*value.enabled {
		return ""
	}
	return string(*value.format)
}

func (value *listFlagValue) Type() string {
	return listFlagTypeName
}

func registerListFlag(flagSet *pflag.FlagSet, format *output.ListFormat, enabled *bool) {
	*format = output.ListPlain
	*enabled = false
	flagSet.Var(&listFlagValue{format: format, enabled: enabled}, listFlagName, listFlagDescription)
	if lookup := flagSet.Lookup(listFlagName); lookup != nil {
		lookup.NoOptDefVal = string(output.ListPlain)
	}
}

// normalizeFlagArguments joins optional flag values written as separate arguments, so that
// "--copy no" and "--list json" behave like "--copy=no" and "--list=json".
func normalizeFlagArguments(command *cobra.Command, arguments []string) []string {
	booleanFlags := map[string]struct{}{}
	collectBooleanFlagNames(command, booleanFlags)

	normalized := make([]string, 0, len(arguments))
	index := 0
	for index < len(arguments) {
		currentArgument := arguments[index]
		if currentArgument == "--" {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if strings.HasPrefix(currentArgument, "--") && !strings.Contains(currentArgument, "=") && index+1 < len(arguments) {
			flagName := strings.TrimPrefix(currentArgument, "--")
			literal := strings.ToLower(strings.TrimSpace(arguments[index+1]))
			_, isBooleanFlag := booleanFlags[flagName]
			_, isBooleanLiteral := booleanFlagLiterals[literal]
			_, isListLiteral := listFormatLiterals[literal]
			if (isBooleanFlag && isBooleanLiteral) || (flagName == listFlagName && isListLiteral) {
				normalized = append(normalized, fmt.Sprintf("--%s=%s", flagName, arguments[index+1]))
				index += 2
				continue
			}
		}
		normalized = append(normalized, currentArgument)
		index++
	}
	return normalized
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	if command == nil {
		return
	}
	visit := func(flag *pflag.Flag) {
		if flag.Value != nil && flag.Value.Type() == booleanFlagTypeName && flag.NoOptDefVal != "" {
			target[flag.Name] = struct{}{}
		}
	}
	command.PersistentFlags().VisitAll(visit)
	command.Flags().VisitAll(visit)
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}
