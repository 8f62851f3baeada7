// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/shovel-run/shovel/cmd/shovel"

func main() {
	cmd.Execute()
}
