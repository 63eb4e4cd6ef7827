package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/knowbase/kb/internal/extract"
	"github.com/knowbase/kb/internal/ingest"
	"github.com/knowbase/kb/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files or globs...]",
	Short: "Add documents to the knowledge base",
	Long: `Reads local files (doublestar globs supported, e.g. 'docs/**/*.md'),
extracts their text, and registers each as a knowledge base document.
With --url a remote document is registered instead; its content stays
pending until the crawler delivers it.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("title", "", "document title (defaults to the file name)")
	ingestCmd.Flags().String("description", "", "document description")
	ingestCmd.Flags().String("type", "custom", "document type: policy, reference, custom")
	ingestCmd.Flags().String("scope", "user", "document scope: global, user")
	ingestCmd.Flags().Bool("admin", false, "register as admin-managed")
	ingestCmd.Flags().StringSlice("function", nil, "target business functions (empty matches all)")
	ingestCmd.Flags().StringSlice("platform", nil, "target platforms (empty matches all)")
	ingestCmd.Flags().StringSlice("tags", nil, "free-form tags")
	ingestCmd.Flags().Int("priority", 0, "retrieval priority 1-10 (0 uses the tier default)")
	ingestCmd.Flags().String("owner", "", "uploading user identity")
	ingestCmd.Flags().String("url", "", "register a URL document instead of files")
	ingestCmd.Flags().Bool("process", true, "run the processing pass immediately")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	req := baseRequestFromFlags(cmd)
	sourceURL, _ := cmd.Flags().GetString("url")
	doProcess, _ := cmd.Flags().GetBool("process")

	if sourceURL != "" {
		req.SourceType = store.SourceURL
		req.SourceURL = sourceURL
		if req.Title == "" {
			req.Title = sourceURL
		}
		doc, err := a.gateway.AddDocument(ctx, req)
		if err != nil {
			return describeIngestError(err)
		}
		fmt.Printf("Registered %s (%s), pending content fetch\n", doc.Title, doc.ID)
		return nil
	}

	files, err := expandGlobs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files matched; pass file paths or globs, or use --url")
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("ingesting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var added, skipped, failed int
	for _, path := range files {
		_ = bar.Add(1)

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", path, err)
			failed++
			continue
		}

		fileReq := req
		fileReq.Content = extract.TextFromFile(path, data)
		if fileReq.Title == "" || len(files) > 1 {
			fileReq.Title = filepath.Base(path)
		}

		doc, err := a.gateway.AddDocument(ctx, fileReq)
		if err != nil {
			var dup *ingest.DuplicateDocumentError
			if errors.As(err, &dup) {
				fmt.Fprintf(os.Stderr, "Skipping %s: already in the knowledge base as %s\n", path, dup.ExistingID)
				skipped++
				continue
			}
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", path, err)
			failed++
			continue
		}
		added++

		if doProcess {
			if _, err := a.gateway.Process(ctx, doc.ID); err != nil {
				fmt.Fprintf(os.Stderr, "Processing %s failed: %v\n", doc.Title, err)
			}
		}
	}

	fmt.Printf("Ingested %d document(s)", added)
	if skipped > 0 {
		fmt.Printf(", %d duplicate(s) skipped", skipped)
	}
	if failed > 0 {
		fmt.Printf(", %d failed", failed)
	}
	fmt.Println()
	return nil
}

// baseRequestFromFlags builds the request fields shared by every file in
// a batch.
func baseRequestFromFlags(cmd *cobra.Command) ingest.AddDocumentRequest {
	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")
	docType, _ := cmd.Flags().GetString("type")
	scope, _ := cmd.Flags().GetString("scope")
	admin, _ := cmd.Flags().GetBool("admin")
	functions, _ := cmd.Flags().GetStringSlice("function")
	platforms, _ := cmd.Flags().GetStringSlice("platform")
	tags, _ := cmd.Flags().GetStringSlice("tags")
	priority, _ := cmd.Flags().GetInt("priority")
	owner, _ := cmd.Flags().GetString("owner")

	return ingest.AddDocumentRequest{
		Title:           title,
		Description:     description,
		DocType:         store.DocType(docType),
		Scope:           store.Scope(scope),
		IsAdminManaged:  admin,
		SourceType:      store.SourceFile,
		TargetFunctions: functions,
		TargetPlatforms: platforms,
		Tags:            tags,
		Priority:        priority,
		Owner:           owner,
	}
}

// expandGlobs resolves each argument as a doublestar glob, falling back to
// a literal path.
func expandGlobs(args []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			matches = []string{arg}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, fmt.Errorf("cannot read %s: %w", m, err)
			}
			if info.IsDir() || seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	return files, nil
}

// describeIngestError rewrites gateway errors into actionable CLI messages.
func describeIngestError(err error) error {
	var dup *ingest.DuplicateDocumentError
	if errors.As(err, &dup) {
		return fmt.Errorf("already in the knowledge base as %s; use `kb show %s`", dup.ExistingID, dup.ExistingID)
	}
	if errors.Is(err, ingest.ErrEmptyContent) {
		return fmt.Errorf("no extractable text in the input")
	}
	if strings.Contains(err.Error(), "title is required") {
		return fmt.Errorf("a title is required; pass --title")
	}
	return err
}
