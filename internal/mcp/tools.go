package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchKnowledgeTool defines the search_knowledge MCP tool.
var searchKnowledgeTool = mcp.NewTool("search_knowledge",
	mcp.WithDescription("Search the organization knowledge base semantically. Returns relevant passages with source documents and similarity scores."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("top_k",
		mcp.Description("Maximum number of passages to return (default 5)"),
	),
	mcp.WithString("doc_type",
		mcp.Description("Filter results by document type"),
		mcp.Enum("policy", "reference", "custom"),
	),
	mcp.WithString("target_function",
		mcp.Description("Only match documents targeting this business function"),
	),
	mcp.WithString("target_platform",
		mcp.Description("Only match documents targeting this platform"),
	),
	mcp.WithString("owner",
		mcp.Description("Caller identity; their own user documents become visible"),
	),
)

// getContextTool defines the get_context MCP tool.
var getContextTool = mcp.NewTool("get_context",
	mcp.WithDescription("Assemble token-budgeted context from the knowledge base for grounding a generation prompt. Returns the context text and the sources included."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language query describing the needed knowledge"),
	),
	mcp.WithNumber("max_tokens",
		mcp.Description("Token budget for the assembled context (default 2000)"),
	),
	mcp.WithString("target_function",
		mcp.Description("Only match documents targeting this business function"),
	),
	mcp.WithString("target_platform",
		mcp.Description("Only match documents targeting this platform"),
	),
	mcp.WithString("owner",
		mcp.Description("Caller identity; their own user documents become visible"),
	),
)

// listDocumentsTool defines the list_documents MCP tool.
var listDocumentsTool = mcp.NewTool("list_documents",
	mcp.WithDescription("List knowledge base documents with their processing status and chunk counts."),
	mcp.WithString("status",
		mcp.Description("Filter by processing status"),
		mcp.Enum("pending", "processing", "ready", "failed"),
	),
	mcp.WithString("doc_type",
		mcp.Description("Filter by document type"),
		mcp.Enum("policy", "reference", "custom"),
	),
)
