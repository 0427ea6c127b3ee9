// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Command pdb inspects Microsoft program database files.
package main

import (
	"log"
	"os"

	"github.com/cockroachdb/pdb/tool"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pdb [command] (flags)",
	Short: "pdb introspection tool",
	Long:  ``,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	t := tool.New()
	rootCmd.AddCommand(t.Commands...)

	if err := rootCmd.Execute(); err != nil {
		// Cobra has already printed the error message.
		os.Exit(1)
	}
}
