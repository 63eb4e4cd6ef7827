package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process [document-id]",
	Short: "Run the chunk and embed pass on a pending or failed document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.gateway.Process(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Processed %s: %d chunk(s), status %s\n", doc.Title, doc.ChunkCount, doc.Status)
		return nil
	},
}

var reprocessCmd = &cobra.Command{
	Use:   "reprocess [document-id]",
	Short: "Re-run chunking and embedding on a ready or failed document",
	Long: `Resets the document and runs a fresh processing pass, replacing its
chunk set atomically. Useful after changing chunking settings or when a
remote embedding provider was down during the first pass.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.gateway.Reprocess(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Reprocessed %s: %d chunk(s), status %s\n", doc.Title, doc.ChunkCount, doc.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(reprocessCmd)
}
