package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/knowbase/kb/internal/retriever"
)

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Assemble token-budgeted prompt context for a query",
	Long: `Searches the knowledge base and assembles the best passages into a
context block that fits the token budget, with source citations.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().Int("max-tokens", 0, "token budget for the context (0 uses the default)")
	contextCmd.Flags().String("function", "", "only match documents targeting this business function")
	contextCmd.Flags().String("platform", "", "only match documents targeting this platform")
	contextCmd.Flags().String("owner", "", "caller identity; their own documents become visible")
	contextCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	maxTokens, _ := cmd.Flags().GetInt("max-tokens")
	function, _ := cmd.Flags().GetString("function")
	platform, _ := cmd.Flags().GetString("platform")
	owner, _ := cmd.Flags().GetString("owner")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	pc, err := a.retriever.ContextForPrompt(ctx, retriever.ContextRequest{
		Query:          args[0],
		MaxTokens:      maxTokens,
		TargetFunction: function,
		TargetPlatform: platform,
		Visibility:     visibilityFor(owner),
	})
	if err != nil {
		return fmt.Errorf("context assembly failed: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pc)
	}

	if pc.ContextText == "" {
		fmt.Println("No matching knowledge found.")
		return nil
	}

	fmt.Println(pc.ContextText)
	fmt.Printf("\n(%d tokens from %d source(s))\n", pc.TokenCount, len(pc.Sources))
	for _, src := range pc.Sources {
		fmt.Printf("- %s (similarity %.3f)\n", src.Title, src.Similarity)
	}
	return nil
}
