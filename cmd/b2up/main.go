// Package main provides the entry point for the b2up backup CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jamesainslie/b2up/pkg/b2up/engine"
)

func main() {
	if err := Execute(); err != nil {
		var exitErr *engine.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
