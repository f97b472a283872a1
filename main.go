// Package main is the entry point for the pplan CLI.
//
// pplan proposes disk partition layouts by solving a linear program with
// a two-phase simplex solver, and solves linear programs read from MPS
// files.
//
// Commands: plan, solve, version.
package main

import (
	"errors"
	"fmt"
	"os"

	"q.log/pplan/commands"
	"q.log/pplan/pplan"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, pplan.ErrNoLayout) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
