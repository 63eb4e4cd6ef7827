package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/knowbase/kb/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List knowledge base documents",
	RunE:  runList,
}

func init() {
	listCmd.Flags().String("status", "", "filter by status: pending, processing, ready, failed")
	listCmd.Flags().String("type", "", "filter by document type: policy, reference, custom")
	listCmd.Flags().String("owner", "", "filter by uploading user")
	listCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	status, _ := cmd.Flags().GetString("status")
	docType, _ := cmd.Flags().GetString("type")
	owner, _ := cmd.Flags().GetString("owner")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	docs, err := a.store.ListDocuments(ctx, store.DocumentFilter{
		Status:     store.Status(status),
		DocType:    store.DocType(docType),
		UploadedBy: owner,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	if len(docs) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tSTATUS\tCHUNKS\tPRIORITY\tACTIVE")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%v\n",
			d.ID, d.Title, d.DocType, d.Status, d.ChunkCount, d.Priority, d.IsActive)
	}
	return w.Flush()
}
