// SPDX-License-Identifier: MPL-2.0

// Package source finds task source files, decodes the tasks they declare
// and merges them into a namespace tree.
//
// A source file lists tasks under a top-level "tasks" key in CUE, TOML or
// YAML. Each task has a name, optional documentation, parameters with
// optional defaults, optional names for the slots that collect extra
// positional and named values, and a shell script body:
//
//	tasks: [{
//		name: "greet"
//		doc:  "Say hello"
//		params: [{name: "who"}, {name: "greeting", default: "Hello"}]
//		script: "echo \"$greeting, $who\""
//	}]
//
// A task's namespace comes from its file's path relative to the load base:
// shovel/deploy/web.cue declares tasks under "deploy.web".
package source
