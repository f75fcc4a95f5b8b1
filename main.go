// SPDX-License-Identifier: MPL-2.0

// Command uneet discovers, links and initializes components declared in HTML.
package main

import cmd "github.com/uneet/uneet/cmd/uneet"

func main() {
	cmd.Execute()
}
