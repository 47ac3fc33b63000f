package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// version is stamped at build time and reported to LM Bridge as pluginVersion.
var version = "dev"

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
