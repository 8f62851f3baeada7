// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Document is a CUE document that passed schema validation.
type Document struct {
	// User is the document as written, before unification. Its positions
	// point into the user's file.
	User cue.Value
	// Unified is the document unified with the schema definition.
	Unified cue.Value
	// Filename names the document in errors.
	Filename string
}

// Parse compiles schema, compiles data, unifies data with the schema
// definition at defPath (e.g. "#Tasks") and validates the result.
func Parse(schema string, data []byte, defPath string, opts ...Option) (*Document, error) {
	o := options{maxFileSize: DefaultMaxFileSize, concrete: true, filename: "<input>"}
	for _, opt := range opts {
		opt(&o)
	}

	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}
	def := schemaValue.LookupPath(cue.ParsePath(defPath))
	if def.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", defPath, def.Err())
	}

	user := ctx.CompileBytes(data, cue.Filename(o.filename))
	if user.Err() != nil {
		return nil, FormatError(user.Err(), o.filename)
	}

	unified := def.Unify(user)
	var err error
	if o.concrete {
		err = unified.Validate(cue.Concrete(true))
	} else {
		err = unified.Validate()
	}
	if err != nil {
		return nil, FormatError(err, o.filename)
	}

	return &Document{User: user, Unified: unified, Filename: o.filename}, nil
}

// ParseAndDecode parses the document and decodes it into a T.
func ParseAndDecode[T any](schema string, data []byte, defPath string, opts ...Option) (*T, *Document, error) {
	doc, err := Parse(schema, data, defPath, opts...)
	if err != nil {
		return nil, nil, err
	}
	var out T
	if err := doc.Unified.Decode(&out); err != nil {
		return nil, nil, FormatError(err, doc.Filename)
	}
	return &out, doc, nil
}

// Line returns the line in the user's file where the value at path is
// written, or 0 when the position is unknown.
func (d *Document) Line(path cue.Path) int {
	v := d.User.LookupPath(path)
	if !v.Exists() {
		return 0
	}
	return v.Pos().Line()
}
