// Pathway Core CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/pathwaylearn/pathway-core/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
