// Command relsel decides which packages in a Go workspace are
// eligible for release, in what order, and why.
package main

import (
	"fmt"
	"os"

	"github.com/tidenhill/relsel/internal/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
