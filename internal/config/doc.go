// SPDX-License-Identifier: MPL-2.0

// Package config loads shovel's settings from a CUE file, SHOVEL_
// environment variables and built-in defaults, in increasing order of
// precedence: defaults, file, environment.
package config
