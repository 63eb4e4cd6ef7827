package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/knowbase/kb/internal/retriever"
	"github.com/knowbase/kb/internal/store"
)

// handleSearchKnowledge performs semantic search over the knowledge base.
func (s *Server) handleSearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	req := retriever.SearchRequest{
		Query:          query,
		TopK:           request.GetInt("top_k", 0),
		DocType:        store.DocType(request.GetString("doc_type", "")),
		TargetFunction: request.GetString("target_function", ""),
		TargetPlatform: request.GetString("target_platform", ""),
	}
	if owner := request.GetString("owner", ""); owner != "" {
		req.Visibility = store.Visibility{
			Owner:               owner,
			IncludeAdminManaged: true,
			IncludeUserManaged:  true,
		}
	} else {
		req.Visibility = store.Visibility{IncludeAdminManaged: true}
	}

	results, err := s.retriever.Search(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No matching knowledge found. The knowledge base may be empty or the query too narrow."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// handleGetContext assembles a token-budgeted context block for a prompt.
func (s *Server) handleGetContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	req := retriever.ContextRequest{
		Query:          query,
		MaxTokens:      request.GetInt("max_tokens", 0),
		TargetFunction: request.GetString("target_function", ""),
		TargetPlatform: request.GetString("target_platform", ""),
	}
	if owner := request.GetString("owner", ""); owner != "" {
		req.Visibility = store.Visibility{
			Owner:               owner,
			IncludeAdminManaged: true,
			IncludeUserManaged:  true,
		}
	} else {
		req.Visibility = store.Visibility{IncludeAdminManaged: true}
	}

	pc, err := s.retriever.ContextForPrompt(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("context assembly failed: %v", err)), nil
	}

	if pc.ContextText == "" {
		return mcp.NewToolResultText("No matching knowledge found for this query."), nil
	}

	var sb strings.Builder
	sb.WriteString(pc.ContextText)
	sb.WriteString("\n\nSources:\n")
	for _, src := range pc.Sources {
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", src.Title, src.DocType))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleListDocuments lists knowledge base documents with their status.
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.DocumentFilter{
		Status:  store.Status(request.GetString("status", "")),
		DocType: store.DocType(request.GetString("doc_type", "")),
	}

	docs, err := s.store.ListDocuments(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}

	if len(docs) == 0 {
		return mcp.NewToolResultText("The knowledge base contains no matching documents."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d document(s):\n", len(docs)))
	for _, d := range docs {
		sb.WriteString(fmt.Sprintf("\n- %s [%s]\n  id: %s\n  type: %s, scope: %s, priority: %d, chunks: %d\n",
			d.Title, d.Status, d.ID, d.DocType, d.Scope, d.Priority, d.ChunkCount))
		if d.ProcessingError != "" {
			sb.WriteString(fmt.Sprintf("  error: %s\n", d.ProcessingError))
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatSearchResults converts search results into a text format suited to
// AI agent consumption.
func formatSearchResults(results []retriever.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("\n--- Result %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("Document: %s (%s)\n", r.DocumentTitle, r.DocType))
		sb.WriteString(fmt.Sprintf("Score: %.3f (similarity %.3f)\n", r.Score, r.Similarity))
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(r.Content))
		sb.WriteString("\n")
	}

	return sb.String()
}
