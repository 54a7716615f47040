package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"picframe/internal/supervisor"
)

// exitSpawnFailure distinguishes "the supervisor could not start its display
// child" from ordinary failures so process managers can alert on it.
const exitSpawnFailure = 3

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, supervisor.ErrSpawn) {
			os.Exit(exitSpawnFailure)
		}
		os.Exit(1)
	}
}
