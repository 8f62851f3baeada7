// SPDX-License-Identifier: MPL-2.0

// Package task defines the runnable unit of shovel: a named callable with a
// declared parameter signature, documentation and a source location.
//
// Tasks are declared with a Builder and gathered by a Collector, which is
// passed explicitly into whatever loads them and drained by its caller:
//
//	c := task.NewCollector()
//	c.Register(task.Define("greet").
//		Doc("Say hello").
//		Param("name").
//		Default("greeting", "Hello").
//		Does(func(ctx context.Context, call *task.Call) (any, error) {
//			fmt.Fprintf(call.Stdout, "%s, %s\n", call.Arg("greeting"), call.Arg("name"))
//			return nil, nil
//		}))
//	tree.Extend(c.Drain())
package task
