// Package main provides the entry point for the pref CLI.
package main

import (
	"fmt"
	"os"

	"github.com/npezza93/pref/cmd/pref/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
