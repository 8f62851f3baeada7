// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and the Markdown guidance shown
// when a shovel invocation goes wrong.
package issue
