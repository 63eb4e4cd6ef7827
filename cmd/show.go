package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [document-id]",
	Short: "Show one document's metadata and processing state",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.store.GetDocument(ctx, args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	fmt.Printf("Title:       %s\n", doc.Title)
	fmt.Printf("ID:          %s\n", doc.ID)
	if doc.Description != "" {
		fmt.Printf("Description: %s\n", doc.Description)
	}
	fmt.Printf("Type:        %s (%s scope)\n", doc.DocType, doc.Scope)
	fmt.Printf("Source:      %s", doc.SourceType)
	if doc.SourceURL != "" {
		fmt.Printf(" %s", doc.SourceURL)
	}
	fmt.Println()
	fmt.Printf("Status:      %s\n", doc.Status)
	if doc.ProcessingError != "" {
		fmt.Printf("Error:       %s\n", doc.ProcessingError)
	}
	fmt.Printf("Chunks:      %d\n", doc.ChunkCount)
	fmt.Printf("Priority:    %d\n", doc.Priority)
	fmt.Printf("Active:      %v\n", doc.IsActive)
	fmt.Printf("Managed by:  %s\n", managedBy(doc.IsAdminManaged, doc.UploadedBy))
	if len(doc.TargetFunctions) > 0 {
		fmt.Printf("Functions:   %s\n", strings.Join(doc.TargetFunctions, ", "))
	}
	if len(doc.TargetPlatforms) > 0 {
		fmt.Printf("Platforms:   %s\n", strings.Join(doc.TargetPlatforms, ", "))
	}
	if len(doc.Tags) > 0 {
		fmt.Printf("Tags:        %s\n", strings.Join(doc.Tags, ", "))
	}
	fmt.Printf("Used:        %d time(s)\n", doc.UsageCount)
	if doc.LastUsedAt != nil {
		fmt.Printf("Last used:   %s\n", doc.LastUsedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("Created:     %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func managedBy(admin bool, owner string) string {
	if admin {
		return "admin"
	}
	if owner == "" {
		return "unknown"
	}
	return owner
}
