// SPDX-License-Identifier: MPL-2.0

// Package runtime runs the shell bodies of tasks declared in source files.
//
// Scripts execute in the embedded mvdan/sh interpreter, so tasks behave the
// same on every platform without a system shell. Bound arguments reach the
// script as shell variables: each declared parameter under its own name and
// as SHOVEL_ARG_<NAME>, extra positional values as "$@", and extra named
// values as SHOVEL_KW_<NAME>.
package runtime
