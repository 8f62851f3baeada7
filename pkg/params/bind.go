// SPDX-License-Identifier: MPL-2.0

package params

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrMissingRequired is returned when required parameters receive no value.
	ErrMissingRequired = errors.New("missing required parameters")
	// ErrTooManyPositional is returned when positional values are left over
	// and the signature has no variadic slot.
	ErrTooManyPositional = errors.New("too many positional arguments")
	// ErrUnexpectedNamed is returned when named values match no parameter and
	// the signature has no keywords slot.
	ErrUnexpectedNamed = errors.New("unexpected named arguments")
)

type (
	// Arg is a parameter name paired with the value it was bound to.
	Arg struct {
		Name  string
		Value Value
	}

	// Binding is the classified result of binding values to a Signature.
	Binding struct {
		// Required holds every required parameter in declaration order.
		Required []Arg
		// Defaulted holds defaulted parameters that kept their default.
		Defaulted []Arg
		// Overridden holds defaulted parameters that received a value.
		Overridden []Arg
		// Variadic holds positional values beyond the declared parameters.
		Variadic []string
		// Keywords holds named values that match no declared parameter.
		Keywords Named
	}

	// BindError describes a failure to bind values to a signature.
	// It wraps one of ErrMissingRequired, ErrTooManyPositional or
	// ErrUnexpectedNamed.
	BindError struct {
		Kind  error
		Names []string
		Count int
	}
)

// Error implements the error interface.
func (e *BindError) Error() string {
	switch {
	case len(e.Names) > 0:
		return fmt.Sprintf("%s: %s", e.Kind, strings.Join(e.Names, ", "))
	case e.Count > 0:
		return fmt.Sprintf("%s: %d extra", e.Kind, e.Count)
	default:
		return e.Kind.Error()
	}
}

// Unwrap returns the sentinel describing the failure kind.
func (e *BindError) Unwrap() error { return e.Kind }

// Bind classifies positional and named values against sig.
//
// Required parameters supplied by name are satisfied first; the remaining
// required parameters consume positional values in order. Each defaulted
// parameter is then overridden by a named value or the next positional
// value, or keeps its default. Leftover positional values go to the
// variadic slot and leftover named values to the keywords slot; without the
// matching slot, leftovers are an error.
func Bind(sig Signature, positional []string, named Named) (Binding, error) {
	remaining := named.Clone()
	rest := positional

	var unsatisfied []string
	for _, name := range sig.Required {
		if _, ok := remaining[name]; !ok {
			unsatisfied = append(unsatisfied, name)
		}
	}
	if len(rest) < len(unsatisfied) {
		return Binding{}, &BindError{Kind: ErrMissingRequired, Names: unsatisfied[len(rest):]}
	}

	var b Binding
	b.Required = make([]Arg, 0, len(sig.Required))
	for _, name := range sig.Required {
		if v, ok := remaining[name]; ok {
			delete(remaining, name)
			b.Required = append(b.Required, Arg{Name: name, Value: v})
			continue
		}
		b.Required = append(b.Required, Arg{Name: name, Value: Text(rest[0])})
		rest = rest[1:]
	}

	for _, d := range sig.Defaults {
		if v, ok := remaining[d.Name]; ok {
			delete(remaining, d.Name)
			b.Overridden = append(b.Overridden, Arg{Name: d.Name, Value: v})
			continue
		}
		if len(rest) > 0 {
			b.Overridden = append(b.Overridden, Arg{Name: d.Name, Value: Text(rest[0])})
			rest = rest[1:]
			continue
		}
		b.Defaulted = append(b.Defaulted, Arg{Name: d.Name, Value: Text(d.Value)})
	}

	if len(rest) > 0 {
		if !sig.HasVariadic() {
			return Binding{}, &BindError{Kind: ErrTooManyPositional, Count: len(rest)}
		}
		b.Variadic = slices.Clone(rest)
	}

	if len(remaining) > 0 {
		if !sig.HasKeywords() {
			return Binding{}, &BindError{Kind: ErrUnexpectedNamed, Names: sortedKeys(remaining)}
		}
		b.Keywords = remaining
	}

	return b, nil
}

// Lookup returns the value bound to a declared parameter.
func (b Binding) Lookup(name string) (Value, bool) {
	for _, group := range [][]Arg{b.Required, b.Overridden, b.Defaulted} {
		for _, a := range group {
			if a.Name == name {
				return a.Value, true
			}
		}
	}
	return Value{}, false
}

// Args returns every declared parameter with its bound value, in the order
// required, overridden, defaulted.
func (b Binding) Args() []Arg {
	out := make([]Arg, 0, len(b.Required)+len(b.Overridden)+len(b.Defaulted))
	out = append(out, b.Required...)
	out = append(out, b.Overridden...)
	out = append(out, b.Defaulted...)
	return out
}

// Explain renders one line per bound value: required parameters first, then
// kept defaults, overridden defaults, and the variadic and keywords slots
// when sig declares them.
func (b Binding) Explain(sig Signature) []string {
	lines := make([]string, 0, len(b.Required)+len(b.Defaulted)+len(b.Overridden)+2)
	for _, a := range b.Required {
		lines = append(lines, fmt.Sprintf("%s = %s", a.Name, a.Value))
	}
	for _, a := range b.Defaulted {
		lines = append(lines, fmt.Sprintf("%s = %s (default)", a.Name, a.Value))
	}
	for _, a := range b.Overridden {
		lines = append(lines, fmt.Sprintf("%s = %s (overridden)", a.Name, a.Value))
	}
	if sig.HasVariadic() {
		lines = append(lines, fmt.Sprintf("%s = [%s]", sig.Variadic, strings.Join(b.Variadic, ", ")))
	}
	if sig.HasKeywords() {
		lines = append(lines, fmt.Sprintf("%s = {%s}", sig.Keywords, strings.Join(b.KeywordPairs(), ", ")))
	}
	return lines
}

// KeywordPairs returns the keywords slot as sorted "key=value" strings.
func (b Binding) KeywordPairs() []string {
	pairs := make([]string, 0, len(b.Keywords))
	for _, k := range sortedKeys(b.Keywords) {
		pairs = append(pairs, k+"="+b.Keywords[k].String())
	}
	return pairs
}

func sortedKeys(n Named) []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
