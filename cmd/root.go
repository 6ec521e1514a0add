// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package cmd wires the rebase engine into a cobra CLI: a local "rebase"
// command driving internal/gitstore against the checked-out repository,
// and a "remote-rebase" command that does the same over the smart HTTP
// protocol without a local checkout.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "rebase-engine",
	Short:         "Merge-preserving history rewrite",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree, printing any error to stderr.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
