// SPDX-License-Identifier: MPL-2.0

package params

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidSignature is the sentinel error wrapped by InvalidSignatureError.
var ErrInvalidSignature = errors.New("invalid signature")

// identifierPattern matches parameter names usable as shell variables.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type (
	// Default is a parameter declared with a default value.
	Default struct {
		Name  string
		Value string
	}

	// Signature is the declared parameter shape of a task.
	//
	// Required and Defaults keep declaration order. Variadic names the slot
	// that collects extra positional values and Keywords names the slot that
	// collects extra named values; an empty name means the slot is absent.
	Signature struct {
		Required []string
		Defaults []Default
		Variadic string
		Keywords string
	}

	// InvalidSignatureError reports a malformed signature.
	// It wraps ErrInvalidSignature for errors.Is() compatibility.
	InvalidSignatureError struct {
		Name   string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("invalid signature: parameter %q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrInvalidSignature for errors.Is() compatibility.
func (e *InvalidSignatureError) Unwrap() error { return ErrInvalidSignature }

// IsIdentifier reports whether name is a valid parameter name.
func IsIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// Validate checks that every declared name is an identifier and that no name
// is declared twice.
func (s Signature) Validate() error {
	seen := make(map[string]bool)
	check := func(name string) error {
		if !IsIdentifier(name) {
			return &InvalidSignatureError{Name: name, Reason: "not a valid identifier"}
		}
		if seen[name] {
			return &InvalidSignatureError{Name: name, Reason: "declared more than once"}
		}
		seen[name] = true
		return nil
	}

	for _, name := range s.Required {
		if err := check(name); err != nil {
			return err
		}
	}
	for _, d := range s.Defaults {
		if err := check(d.Name); err != nil {
			return err
		}
	}
	for _, name := range []string{s.Variadic, s.Keywords} {
		if name == "" {
			continue
		}
		if err := check(name); err != nil {
			return err
		}
	}
	return nil
}

// HasVariadic reports whether the signature collects extra positional values.
func (s Signature) HasVariadic() bool { return s.Variadic != "" }

// HasKeywords reports whether the signature collects extra named values.
func (s Signature) HasKeywords() bool { return s.Keywords != "" }

// String renders the signature as "(a, b=2, *args, **kwargs)".
func (s Signature) String() string {
	parts := make([]string, 0, len(s.Required)+len(s.Defaults)+2)
	parts = append(parts, s.Required...)
	for _, d := range s.Defaults {
		parts = append(parts, d.Name+"="+d.Value)
	}
	if s.Variadic != "" {
		parts = append(parts, "*"+s.Variadic)
	}
	if s.Keywords != "" {
		parts = append(parts, "**"+s.Keywords)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
