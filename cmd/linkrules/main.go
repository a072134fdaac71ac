// Command linkrules evaluates link-quality rules against page facts.
package main

import (
	"fmt"
	"os"
)

// Version information, injected at build time.
var Version = "dev"

func main() {
	root := newRootCmd()
	root.Version = Version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
