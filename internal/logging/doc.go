// SPDX-License-Identifier: MPL-2.0

// Package logging configures the process-wide slog logger: human-readable
// records on stderr, and optionally a rotated log file.
package logging
