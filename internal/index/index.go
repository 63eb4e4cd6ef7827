// Package index provides the chunk similarity scan behind search. Two
// implementations exist: Linear reads chunks straight from the store and
// scans them brute-force (the documented baseline), Chromem keeps an
// in-memory chromem-go collection mirroring the store. The sqlite store is
// always the source of truth; an index is rebuildable state.
package index

import (
	"context"
	"fmt"

	"github.com/knowbase/kb/internal/store"
)

// Kind selects an index implementation in configuration.
type Kind string

const (
	KindLinear  Kind = "linear"
	KindChromem Kind = "chromem"
)

// Hit is one chunk scored against a query.
type Hit struct {
	ChunkID    string
	DocumentID string
	Similarity float64
}

// Index scores chunks of candidate documents against a query embedding.
type Index interface {
	// Upsert replaces the indexed chunks of a document after a successful
	// processing pass.
	Upsert(ctx context.Context, documentID string, chunks []store.Chunk) error

	// Remove drops a document's chunks from the index.
	Remove(ctx context.Context, documentID string) error

	// Query returns every chunk of the candidate documents whose cosine
	// similarity against the query embedding reaches minSimilarity,
	// unordered. Ranking is the retriever's job.
	Query(ctx context.Context, embedding []float32, documentIDs []string, minSimilarity float64) ([]Hit, error)
}

// New creates an index of the given kind over the store.
func New(kind Kind, st *store.Store) (Index, error) {
	switch kind {
	case KindLinear, "":
		return NewLinear(st), nil
	case KindChromem:
		return NewChromem()
	default:
		return nil, fmt.Errorf("unknown index kind: %s (supported: linear, chromem)", kind)
	}
}
