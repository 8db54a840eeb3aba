// Package main is the entry point for solarmon.
package main

import (
	"os"

	"github.com/hamzajavaid/solarmon/cmd/solarmon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
