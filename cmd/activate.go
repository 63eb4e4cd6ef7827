package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var activateCmd = &cobra.Command{
	Use:   "activate [document-id]",
	Short: "Make a document eligible for retrieval again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setActive(args[0], true)
	},
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate [document-id]",
	Short: "Exclude a document from retrieval without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setActive(args[0], false)
	},
}

func setActive(id string, active bool) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.SetActive(ctx, id, active); err != nil {
		return err
	}
	if active {
		fmt.Printf("Activated %s\n", id)
	} else {
		fmt.Printf("Deactivated %s\n", id)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(deactivateCmd)
}
