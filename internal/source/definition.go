// SPDX-License-Identifier: MPL-2.0

package source

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shovel-run/shovel/internal/cueutil"

	"cuelang.org/go/cue"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed source_schema.cue
var sourceSchema string

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported task source format")

type (
	// file is the decoded content of a task source file.
	file struct {
		Tasks []definition `json:"tasks" toml:"tasks" yaml:"tasks"`
	}

	// definition is one declared task.
	definition struct {
		Name   string     `json:"name" toml:"name" yaml:"name"`
		Doc    string     `json:"doc,omitempty" toml:"doc,omitempty" yaml:"doc,omitempty"`
		Params []paramDef `json:"params,omitempty" toml:"params,omitempty" yaml:"params,omitempty"`
		Args   string     `json:"args,omitempty" toml:"args,omitempty" yaml:"args,omitempty"`
		Kwargs string     `json:"kwargs,omitempty" toml:"kwargs,omitempty" yaml:"kwargs,omitempty"`
		Script string     `json:"script" toml:"script" yaml:"script"`

		line int
	}

	paramDef struct {
		Name    string `json:"name" toml:"name" yaml:"name"`
		Default any    `json:"default,omitempty" toml:"default,omitempty" yaml:"default,omitempty"`
	}
)

// decode parses data according to the extension of filename.
func decode(filename string, data []byte) ([]definition, error) {
	switch ext := strings.ToLower(extension(filename)); ext {
	case ".cue":
		return decodeCUE(filename, data)
	case ".toml":
		return decodeTOML(filename, data)
	case ".yaml", ".yml":
		return decodeYAML(filename, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func decodeCUE(filename string, data []byte) ([]definition, error) {
	f, doc, err := cueutil.ParseAndDecode[file](sourceSchema, data, "#Tasks", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	for i := range f.Tasks {
		f.Tasks[i].line = doc.Line(cue.MakePath(cue.Str("tasks"), cue.Index(i)))
	}
	return f.Tasks, nil
}

func decodeTOML(filename string, data []byte) ([]definition, error) {
	var f file
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	// go-toml does not report positions for decoded values; array table
	// headers give the line each task starts on.
	lines := make([]int, 0, len(f.Tasks))
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; scanner.Scan(); n++ {
		if strings.TrimSpace(scanner.Text()) == "[[tasks]]" {
			lines = append(lines, n)
		}
	}
	for i := range f.Tasks {
		if i < len(lines) {
			f.Tasks[i].line = lines[i]
		}
	}
	return f.Tasks, nil
}

func decodeYAML(filename string, data []byte) ([]definition, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if items := yamlTasks(&root); len(items) == len(f.Tasks) {
		for i, item := range items {
			f.Tasks[i].line = item.Line
		}
	}
	return f.Tasks, nil
}

// yamlTasks returns the sequence items under the top-level "tasks" key.
func yamlTasks(root *yaml.Node) []*yaml.Node {
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "tasks" && root.Content[i+1].Kind == yaml.SequenceNode {
			return root.Content[i+1].Content
		}
	}
	return nil
}

// defaultText renders a declared default as the text a command line would
// supply.
func defaultText(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case float64:
		return strconv.FormatFloat(d, 'f', -1, 64)
	default:
		return fmt.Sprint(d)
	}
}
