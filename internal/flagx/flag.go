// Package flagx lets several components parse their own subset of the
// command line without tripping over each other's flags.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs keeps only the allowed flags from args, together with their
// values. Both "-f value" and "-f=value" forms are recognised; a "--f" spelling
// is treated like "-f".
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[normalize(f)] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[normalize(name)]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[normalize(arg)]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}
	return filtered
}

// Positional returns the arguments that are neither flags nor values of the
// given value-taking flags. The CLI uses it to pick up a callback URL passed
// by the OS URL-scheme handler.
func Positional(args []string, valueFlags []string) []string {
	takesValue := make(map[string]struct{}, len(valueFlags))
	for _, f := range valueFlags {
		takesValue[normalize(f)] = struct{}{}
	}

	out := make([]string, 0)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i+1:]...)
		}
		if !strings.HasPrefix(arg, "-") {
			out = append(out, arg)
			continue
		}
		if strings.Contains(arg, "=") {
			continue
		}
		if _, ok := takesValue[normalize(arg)]; ok && i+1 < len(args) {
			i++
		}
	}
	return out
}

// JSONConfigFlag extracts the config file path given via -c or -config.
// It returns "" when neither is present.
func JSONConfigFlag(args []string) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return config
}

func normalize(name string) string {
	if strings.HasPrefix(name, "--") {
		return name[1:]
	}
	return name
}
