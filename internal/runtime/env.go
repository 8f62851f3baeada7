// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/shovel-run/shovel/pkg/task"
)

const (
	// EnvTask holds the fully qualified name of the running task.
	EnvTask = "SHOVEL_TASK"
	// EnvArgPrefix prefixes every declared parameter.
	EnvArgPrefix = "SHOVEL_ARG_"
	// EnvKeywordPrefix prefixes every extra named value.
	EnvKeywordPrefix = "SHOVEL_KW_"
	// EnvArgCount holds the number of extra positional values.
	EnvArgCount = "SHOVEL_ARGC"
)

// buildEnv layers the bound arguments of call over the host environment.
// Later layers win:
//  1. host environment
//  2. SHOVEL_TASK and SHOVEL_ARGC
//  3. extra named values as SHOVEL_KW_<NAME>
//  4. the keywords slot as a "k=v k2=v2" list under its own name
//  5. the variadic slot as a space-joined list under its own name
//  6. declared parameters under their own name and as SHOVEL_ARG_<NAME>
func buildEnv(call *task.Call) map[string]string {
	env := hostEnv()
	sig := call.Task.Signature()
	b := call.Binding

	env[EnvTask] = call.Task.FullName()
	env[EnvArgCount] = strconv.Itoa(len(b.Variadic))

	for _, key := range slices.Sorted(maps.Keys(b.Keywords)) {
		env[EnvKeywordPrefix+envName(key)] = b.Keywords[key].String()
	}
	if sig.HasKeywords() {
		env[sig.Keywords] = strings.Join(b.KeywordPairs(), " ")
	}
	if sig.HasVariadic() {
		env[sig.Variadic] = strings.Join(b.Variadic, " ")
	}

	for _, a := range b.Args() {
		env[a.Name] = a.Value.String()
		env[EnvArgPrefix+envName(a.Name)] = a.Value.String()
	}
	return env
}

func hostEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}

// envName upper-cases name and replaces characters that cannot appear in a
// variable name with underscores.
func envName(name string) string {
	var b strings.Builder
	for i, r := range strings.ToUpper(name) {
		switch {
		case r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// envSlice converts env to sorted KEY=VALUE pairs.
func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}
