// Package cmd implements the kb command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "kb",
	Short: "Knowledge base for retrieval-augmented generation",
	Long: `kb ingests organizational documents, splits them into overlapping
chunks, embeds each chunk, and serves semantic retrieval for grounding
AI-generated content. It runs fully offline with deterministic local
embeddings and integrates with AI agents via MCP.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".kb.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
