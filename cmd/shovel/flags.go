// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"

	"github.com/spf13/pflag"
)

// globals holds the parsed global flags.
type globals struct {
	verbose bool
	dryRun  bool
	version bool
	watch   bool
	help    bool
	config  string
}

// registerFlags declares the global flags on fs, bound to g.
func registerFlags(fs *pflag.FlagSet, g *globals) {
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "be extra talkative")
	fs.BoolVar(&g.dryRun, "dry-run", false, "show the arguments that would be used instead of running the task")
	fs.BoolVar(&g.version, "version", false, "print the version of shovel")
	fs.BoolVar(&g.watch, "watch", false, "run the task again whenever a project task source changes")
	fs.StringVar(&g.config, "config", "", "config file (default is $XDG_CONFIG_HOME/shovel/config.cue)")
}

// splitArgs separates the tokens naming flags defined on fs, wherever they
// appear, from the rest. A non-boolean flag written without "=" takes the
// next token as its value. The remaining tokens keep their order.
func splitArgs(fs *pflag.FlagSet, args []string) (known, rest []string) {
	for i := 0; i < len(args); i++ {
		tok := args[i]
		f := lookup(fs, tok)
		if f == nil {
			rest = append(rest, tok)
			continue
		}
		known = append(known, tok)
		if f.Value.Type() != "bool" && !strings.Contains(tok, "=") && i+1 < len(args) {
			i++
			known = append(known, args[i])
		}
	}
	return known, rest
}

// lookup returns the flag tok names, or nil. "--name", "--name=value" and a
// single-letter "-n" are recognised.
func lookup(fs *pflag.FlagSet, tok string) *pflag.Flag {
	switch {
	case strings.HasPrefix(tok, "--") && len(tok) > 2:
		name, _, _ := strings.Cut(tok[2:], "=")
		return fs.Lookup(name)
	case strings.HasPrefix(tok, "-") && len(tok) == 2 && tok != "--":
		return fs.ShorthandLookup(tok[1:])
	}
	return nil
}
