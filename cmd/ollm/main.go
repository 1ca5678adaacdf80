// Package main provides the entry point for the ollm CLI.
package main

import (
	"fmt"
	"os"

	"github.com/ollm-cli/ollm/cmd/ollm/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
