// SPDX-License-Identifier: MPL-2.0

// Package argv splits a flat list of command-line tokens into positional
// values and named values.
//
// Tokens beginning with "--" are flags. "--name=value" records a value
// immediately, "--name value" takes the next plain token, and a flag followed
// by another flag (or by nothing) records the boolean value true. A bare
// "--" ends any pending flag and is otherwise dropped.
package argv

import (
	"strings"

	"github.com/shovel-run/shovel/pkg/params"
)

// FlagPrefix marks a token as a named value.
const FlagPrefix = "--"

// Parse splits tokens into positional and named values. Later occurrences of
// the same name replace earlier ones.
func Parse(tokens []string) (positional []string, named params.Named) {
	named = make(params.Named)
	pending := ""

	flush := func() {
		if pending != "" {
			named[pending] = params.Flag()
		}
		pending = ""
	}

	for _, tok := range tokens {
		if tok == FlagPrefix {
			flush()
			continue
		}
		if rest, ok := strings.CutPrefix(tok, FlagPrefix); ok {
			flush()
			if name, value, found := strings.Cut(rest, "="); found {
				if name != "" {
					named[name] = params.Text(value)
				}
				continue
			}
			pending = rest
			continue
		}

		if pending != "" {
			named[pending] = params.Text(tok)
			pending = ""
			continue
		}
		positional = append(positional, tok)
	}
	flush()

	return positional, named
}
