// Package main is the entry point for the aampcore operator harness.
package main

import (
	"os"

	"github.com/jmylchreest/aampcore/cmd/aampcore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
