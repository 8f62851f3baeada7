// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the shovel command line: global flags, the reserved
// help and tasks commands, and dispatch of every other name to a task.
package cmd
