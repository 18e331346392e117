package main

import (
	"fmt"
	"os"

	"github.com/mattsondev/taskgraph/internal/logging"
)

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	logging.Default().Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
