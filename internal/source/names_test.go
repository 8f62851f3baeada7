// SPDX-License-Identifier: MPL-2.0

package source

import (
	"path/filepath"
	"slices"
	"testing"
)

func TestNamespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		base string
		want []string
	}{
		{"project file", "/proj/shovel.cue", "/proj", nil},
		{"project dir file", "/proj/shovel/one.cue", "/proj", []string{"one"}},
		{"nested", "/proj/shovel/deploy/web.yaml", "/proj", []string{"deploy", "web"}},
		{"index file", "/proj/shovel/deploy/index.toml", "/proj", []string{"deploy"}},
		{"root index", "/proj/shovel/index.cue", "/proj", nil},
		{"user file", "/home/u/.shovel.cue", "/home/u", nil},
		{"user dir", "/home/u/.shovel/tools.cue", "/home/u", []string{"tools"}},
		{"hidden segment", "/proj/shovel/.private/x.cue", "/proj", []string{"private", "x"}},
		{"outside base", "/other/shovel/a.cue", "/proj", []string{"other", "a"}},
		{"relative", "shovel/one.cue", "", []string{"one"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Namespace(filepath.FromSlash(tt.path), filepath.FromSlash(tt.base))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Namespace(%q, %q) = %q, want %q", tt.path, tt.base, got, tt.want)
			}
		})
	}
}

func TestModule(t *testing.T) {
	t.Parallel()

	if got := Module(filepath.FromSlash("/proj/shovel.cue"), filepath.FromSlash("/proj")); got != "shovel" {
		t.Errorf("Module() = %q, want %q", got, "shovel")
	}
	if got := Module(filepath.FromSlash("/proj/shovel/deploy/web.cue"), filepath.FromSlash("/proj")); got != "shovel/deploy/web" {
		t.Errorf("Module() = %q, want %q", got, "shovel/deploy/web")
	}
}
