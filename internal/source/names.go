// SPDX-License-Identifier: MPL-2.0

package source

import (
	"path/filepath"
	"slices"
	"strings"
)

// IndexName is the file stem that declares tasks for its directory itself:
// shovel/deploy/index.cue declares tasks under "deploy".
const IndexName = "index"

// RootMarkers are the names of the top-level task file or directory. They
// never appear in a task's namespace.
var RootMarkers = []string{"shovel", ".shovel"}

// Namespace derives the namespace segments of tasks declared in path when
// loaded relative to base. The extension is dropped, root markers, index
// stems and empty or relative segments are removed, and leading dots are
// trimmed from what remains.
func Namespace(path, base string) []string {
	rel := strings.TrimSuffix(path, extension(path))
	if base != "" {
		if r, err := filepath.Rel(base, rel); err == nil {
			rel = r
		}
	}

	var out []string
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if seg == "" || seg == "." || seg == ".." || seg == IndexName || slices.Contains(RootMarkers, seg) {
			continue
		}
		if seg = strings.TrimLeft(seg, "."); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// Module names the file a task was declared in, relative to base and
// without extension ("shovel/deploy/web").
func Module(path, base string) string {
	rel := strings.TrimSuffix(path, extension(path))
	if base != "" {
		if r, err := filepath.Rel(base, rel); err == nil {
			rel = r
		}
	}
	return filepath.ToSlash(rel)
}

func extension(path string) string {
	return filepath.Ext(path)
}
