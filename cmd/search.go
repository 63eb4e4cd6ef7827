package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/knowbase/kb/internal/retriever"
	"github.com/knowbase/kb/internal/store"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Semantically search the knowledge base",
	Long:  `Embeds the query and returns the highest-scoring ready chunks, ranked by similarity weighted with document priority.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().Int("top-k", 0, "maximum number of results (0 uses the configured default)")
	searchCmd.Flags().Float64("min-similarity", 0, "similarity floor in [-1, 1] (0 uses the configured default)")
	searchCmd.Flags().String("type", "", "filter by document type: policy, reference, custom")
	searchCmd.Flags().String("function", "", "only match documents targeting this business function")
	searchCmd.Flags().String("platform", "", "only match documents targeting this platform")
	searchCmd.Flags().String("owner", "", "caller identity; their own documents become visible")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	topK, _ := cmd.Flags().GetInt("top-k")
	minSim, _ := cmd.Flags().GetFloat64("min-similarity")
	docType, _ := cmd.Flags().GetString("type")
	function, _ := cmd.Flags().GetString("function")
	platform, _ := cmd.Flags().GetString("platform")
	owner, _ := cmd.Flags().GetString("owner")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if topK == 0 {
		topK = a.cfg.Search.TopK
	}
	if minSim == 0 {
		minSim = a.cfg.Search.MinSimilarity
	}

	results, err := a.retriever.Search(ctx, retriever.SearchRequest{
		Query:          args[0],
		TopK:           topK,
		MinSimilarity:  minSim,
		DocType:        store.DocType(docType),
		TargetFunction: function,
		TargetPlatform: platform,
		Visibility:     visibilityFor(owner),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for i, r := range results {
		fmt.Printf("%d. %s  [%s, score %.3f, similarity %.3f]\n",
			i+1, r.DocumentTitle, r.DocType, r.Score, r.Similarity)
		fmt.Printf("   %s\n\n", firstLines(r.Content, 3))
	}
	return nil
}

// firstLines returns at most n lines of s, flattened for terminal display.
func firstLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = append(lines[:n], "...")
	}
	return strings.Join(lines, "\n   ")
}
