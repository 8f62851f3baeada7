// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers lay out task source trees (MustWriteFile, WriteTree), create
// directories (MustMkdirAll) and release resources (MustClose, DeferClose).
package testutil
