// Package retriever is the read path: query embedding, visibility-scoped
// candidate selection, similarity ranking, and token-budget context
// assembly for downstream generation.
package retriever

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/knowbase/kb/internal/embeddings"
	"github.com/knowbase/kb/internal/index"
	"github.com/knowbase/kb/internal/store"
	"github.com/knowbase/kb/internal/vector"
)

const (
	// DefaultTopK is the search result cap when the caller gives none.
	DefaultTopK = 5
	// DefaultMinSimilarity discards weak matches before ranking.
	DefaultMinSimilarity = 0.3
	// contextTopK is the generous candidate count context assembly ranks
	// before applying the token budget.
	contextTopK = 20
)

// Retriever answers similarity queries over READY documents.
type Retriever struct {
	store    *store.Store
	embedder *embeddings.Resilient
	index    index.Index
	log      *zap.Logger
}

// New creates a retriever.
func New(st *store.Store, embedder *embeddings.Resilient, idx index.Index, log *zap.Logger) *Retriever {
	if log == nil {
		log = zap.NewNop()
	}
	return &Retriever{store: st, embedder: embedder, index: idx, log: log}
}

// Search embeds the query, scans chunks of eligible documents, and
// returns up to TopK results ordered by similarity * priority/10. A query
// that cannot be embedded degrades to an empty result rather than an
// error, since an empty answer beats a hard failure in a path feeding
// generation.
func (r *Retriever) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	req.applyDefaults()
	if strings.TrimSpace(req.Query) == "" {
		return nil, nil
	}

	eligible, err := r.eligibleDocuments(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	queryVecs, _ := r.embedder.Embed(ctx, []string{req.Query})
	if len(queryVecs) == 0 || vector.IsZero(queryVecs[0]) {
		r.log.Warn("query embedding degraded to zero vector, returning no results",
			zap.String("query", req.Query))
		return nil, nil
	}

	docIDs := make([]string, 0, len(eligible))
	for id := range eligible {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	hits, err := r.index.Query(ctx, queryVecs[0], docIDs, req.MinSimilarity)
	if err != nil {
		return nil, err
	}

	results := r.rank(hits, eligible, req.TopK)
	if len(results) == 0 {
		return nil, nil
	}
	if err := r.attachContent(ctx, results); err != nil {
		return nil, err
	}

	if err := r.store.MarkUsed(ctx, resultDocumentIDs(results)); err != nil {
		r.log.Warn("recording document usage", zap.Error(err))
	}
	return results, nil
}

// eligibleDocuments builds the candidate set: READY, active, matching the
// doc type filter, visible under the visibility rules, and not excluded by
// a function/platform restriction.
func (r *Retriever) eligibleDocuments(ctx context.Context, req SearchRequest) (map[string]store.Document, error) {
	docs, err := r.store.ListEligible(ctx, req.DocType, req.Visibility)
	if err != nil {
		return nil, err
	}

	eligible := make(map[string]store.Document, len(docs))
	for _, d := range docs {
		if !d.MatchesFunction(req.TargetFunction) || !d.MatchesPlatform(req.TargetPlatform) {
			continue
		}
		eligible[d.ID] = d
	}
	return eligible, nil
}

// rank scores hits by similarity weighted with document priority, sorts
// descending, and caps at topK. Chunk content is attached from the store
// only for the surviving hits.
func (r *Retriever) rank(hits []index.Hit, eligible map[string]store.Document, topK int) []SearchResult {
	scored := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		doc, ok := eligible[h.DocumentID]
		if !ok {
			continue
		}
		scored = append(scored, SearchResult{
			ChunkID:       h.ChunkID,
			DocumentID:    doc.ID,
			DocumentTitle: doc.Title,
			DocType:       doc.DocType,
			Similarity:    h.Similarity,
			Score:         h.Similarity * float64(doc.Priority) / 10,
			Priority:      doc.Priority,
			Tags:          doc.Tags,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return scored[i].ChunkID < scored[j].ChunkID
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// attachContent loads chunk text for the given results.
func (r *Retriever) attachContent(ctx context.Context, results []SearchResult) error {
	if len(results) == 0 {
		return nil
	}
	chunks, err := r.store.ListChunksByDocuments(ctx, resultDocumentIDs(results))
	if err != nil {
		return err
	}
	byID := make(map[string]store.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}
	for i := range results {
		if c, ok := byID[results[i].ChunkID]; ok {
			results[i].Content = c.Content
			results[i].TokenCount = c.TokenCount
		}
	}
	return nil
}

// ContextForPrompt runs a search with a generous TopK, then greedily
// concatenates results in rank order, stopping before the chunk that
// would push the running token count over MaxTokens. Only the sources
// actually included are returned.
func (r *Retriever) ContextForPrompt(ctx context.Context, req ContextRequest) (*PromptContext, error) {
	results, err := r.Search(ctx, SearchRequest{
		Query:          req.Query,
		TargetFunction: req.TargetFunction,
		TargetPlatform: req.TargetPlatform,
		DocType:        req.DocType,
		TopK:           contextTopK,
		MinSimilarity:  req.MinSimilarity,
		Visibility:     req.Visibility,
	})
	if err != nil {
		return nil, err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxContextTokens
	}

	pc := &PromptContext{}
	var parts []string
	used := 0
	seen := make(map[string]bool)

	for _, res := range results {
		tokens := res.TokenCount
		if tokens == 0 {
			tokens = len(strings.Fields(res.Content))
		}
		if used+tokens > maxTokens {
			break
		}
		parts = append(parts, res.Content)
		used += tokens

		if !seen[res.DocumentID] {
			seen[res.DocumentID] = true
			pc.Sources = append(pc.Sources, Source{
				DocumentID: res.DocumentID,
				Title:      res.DocumentTitle,
				DocType:    res.DocType,
				Similarity: res.Similarity,
			})
		}
	}

	pc.ContextText = strings.Join(parts, "\n\n")
	pc.TokenCount = used
	return pc, nil
}

func resultDocumentIDs(results []SearchResult) []string {
	seen := make(map[string]bool, len(results))
	var ids []string
	for _, res := range results {
		if !seen[res.DocumentID] {
			seen[res.DocumentID] = true
			ids = append(ids, res.DocumentID)
		}
	}
	return ids
}
