// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against embedded schemas and
// decodes them into Go values, keeping enough of the compiled document
// around to report source positions.
package cueutil
