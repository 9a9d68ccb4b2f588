// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/plugsort/plugsort/cmd/plugsort"

func main() {
	cmd.Execute()
}
