// SPDX-License-Identifier: MPL-2.0

// Package params binds command-line argument values to a task's declared
// parameter signature.
//
// A Signature declares required parameters, parameters with default values,
// and optional slots that absorb extra positional values (the variadic slot)
// and extra named values (the keywords slot). Bind classifies every supplied
// value against the signature and reports which defaults were kept and which
// were overridden, so dry runs can explain an invocation before it happens.
//
// Values stay opaque strings; converting them to richer types is the job of
// the task that receives them.
package params
