// Package flagx holds helpers that let several config layers parse the same
// command line without tripping over each other's flags.
package flagx

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// FilterArgs returns the subset of args that belong to the allowed flags.
//
// valueFlags take a value, either as the next argument ("-c conf.json") or
// inline ("--config=conf.json"). switchFlags are booleans: they never consume
// the next argument, so "--hide-reset-token positional" keeps the
// positional out of the result.
//
// The result is never nil.
func FilterArgs(args []string, valueFlags []string, switchFlags ...string) []string {
	values := make(map[string]struct{}, len(valueFlags))
	for _, f := range valueFlags {
		values[f] = struct{}{}
	}
	switches := make(map[string]struct{}, len(switchFlags))
	for _, f := range switchFlags {
		switches[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--flag=value" or "-f=value"
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			_, isValue := values[name]
			_, isSwitch := switches[name]
			if isValue || isSwitch {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := switches[arg]; ok {
			filtered = append(filtered, arg)
			continue
		}

		if _, ok := values[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigFileFlag extracts the config file path given with -c or --config.
// Every other argument is ignored. Returns "" when the flag is absent.
func ConfigFileFlag() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "--config"})

	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.StringVarP(&config, "config", "c", "", "path to config file (.json, .yaml or .yml)")
	_ = fs.Parse(args)

	return config
}
