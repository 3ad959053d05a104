// Package cmd implements the quill command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Quill conversational assistant server",
	Long: `Quill is a conversational assistant with versioned artifacts.

The model creates and updates artifacts through tools; every change
becomes a new immutable version, and replayed conversation history is
hydrated with the latest version of each artifact it references.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
