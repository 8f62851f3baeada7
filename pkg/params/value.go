// SPDX-License-Identifier: MPL-2.0

package params

type (
	// Value is a single argument value supplied on the command line. It is
	// either a text value or the boolean flag produced by a bare "--name".
	Value struct {
		text string
		flag bool
	}

	// Named maps parameter names to the values supplied for them by name.
	Named map[string]Value
)

// Text returns a Value holding s.
func Text(s string) Value {
	return Value{text: s}
}

// Flag returns the boolean Value recorded for a flag given without a value.
func Flag() Value {
	return Value{flag: true}
}

// IsFlag reports whether v was produced by a bare flag.
func (v Value) IsFlag() bool {
	return v.flag
}

// String returns the text of v, or "true" for a flag.
func (v Value) String() string {
	if v.flag {
		return "true"
	}
	return v.text
}

// Clone returns a shallow copy of n. A nil map clones to an empty one.
func (n Named) Clone() Named {
	out := make(Named, len(n))
	for k, v := range n {
		out[k] = v
	}
	return out
}
