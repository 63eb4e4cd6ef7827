package retriever

import "github.com/knowbase/kb/internal/store"

// DefaultMaxContextTokens bounds assembled prompt context when the caller
// gives no budget.
const DefaultMaxContextTokens = 2000

// SearchRequest describes one similarity query.
type SearchRequest struct {
	Query          string           `json:"query"`
	TargetFunction string           `json:"target_function,omitempty"`
	TargetPlatform string           `json:"target_platform,omitempty"`
	DocType        store.DocType    `json:"doc_type,omitempty"`
	TopK           int              `json:"top_k,omitempty"`
	MinSimilarity  float64          `json:"min_similarity,omitempty"`
	Visibility     store.Visibility `json:"visibility"`
}

func (r *SearchRequest) applyDefaults() {
	if r.TopK <= 0 {
		r.TopK = DefaultTopK
	}
	if r.MinSimilarity == 0 {
		r.MinSimilarity = DefaultMinSimilarity
	}
}

// SearchResult is one ranked passage.
type SearchResult struct {
	ChunkID       string        `json:"chunk_id"`
	DocumentID    string        `json:"document_id"`
	DocumentTitle string        `json:"document_title"`
	DocType       store.DocType `json:"doc_type"`
	Content       string        `json:"content"`
	TokenCount    int           `json:"-"`
	Similarity    float64       `json:"similarity"`
	Score         float64       `json:"score"`
	Priority      int           `json:"priority"`
	Tags          []string      `json:"tags,omitempty"`
}

// ContextRequest asks for assembled, budget-bounded prompt context.
type ContextRequest struct {
	Query          string           `json:"query"`
	TargetFunction string           `json:"target_function,omitempty"`
	TargetPlatform string           `json:"target_platform,omitempty"`
	DocType        store.DocType    `json:"doc_type,omitempty"`
	MaxTokens      int              `json:"max_tokens,omitempty"`
	MinSimilarity  float64          `json:"min_similarity,omitempty"`
	Visibility     store.Visibility `json:"visibility"`
}

// Source cites a document whose chunks made it into the context.
type Source struct {
	DocumentID string        `json:"document_id"`
	Title      string        `json:"title"`
	DocType    store.DocType `json:"doc_type,omitempty"`
	Similarity float64       `json:"similarity"`
}

// PromptContext is what the generation collaborator consumes.
type PromptContext struct {
	ContextText string   `json:"context_text"`
	TokenCount  int      `json:"token_count"`
	Sources     []Source `json:"sources"`
}
