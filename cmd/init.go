package cmd

import (
	"github.com/spf13/cobra"

	"github.com/knowbase/kb/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize kb configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the knowledge base and generates a .kb.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
