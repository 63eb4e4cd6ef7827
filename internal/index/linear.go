package index

import (
	"context"

	"github.com/knowbase/kb/internal/store"
	"github.com/knowbase/kb/internal/vector"
)

// Linear scans chunk embeddings straight out of the store. It holds no
// state of its own, so Upsert and Remove are no-ops.
type Linear struct {
	store *store.Store
}

// NewLinear creates the store-backed brute-force index.
func NewLinear(st *store.Store) *Linear {
	return &Linear{store: st}
}

func (l *Linear) Upsert(context.Context, string, []store.Chunk) error { return nil }

func (l *Linear) Remove(context.Context, string) error { return nil }

func (l *Linear) Query(ctx context.Context, embedding []float32, documentIDs []string, minSimilarity float64) ([]Hit, error) {
	chunks, err := l.store.ListChunksByDocuments(ctx, documentIDs)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, c := range chunks {
		sim := vector.Cosine(embedding, c.Embedding)
		if sim < minSimilarity {
			continue
		}
		hits = append(hits, Hit{ChunkID: c.ID, DocumentID: c.DocumentID, Similarity: sim})
	}
	return hits, nil
}
