package index

import (
	"context"
	"fmt"
	"math"

	chromem "github.com/philippgille/chromem-go"

	"github.com/knowbase/kb/internal/store"
)

const collectionName = "chunks"

// Chromem mirrors READY chunk embeddings into an in-memory chromem-go
// collection. Embeddings are always supplied precomputed, so the
// collection's embedding func is never exercised.
type Chromem struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromem creates an empty in-memory index. Call Rebuild to seed it
// from the store.
func NewChromem() (*Chromem, error) {
	db := chromem.NewDB()

	col, err := db.GetOrCreateCollection(collectionName, nil, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Chromem{db: db, collection: col}, nil
}

// noEmbedding guards against accidental implicit embedding; every code
// path hands chromem a precomputed vector.
func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("index does not embed; vectors must be precomputed")
}

// Rebuild reloads the collection from the store's READY documents. Used at
// startup since the collection is in-memory only.
func (c *Chromem) Rebuild(ctx context.Context, st *store.Store) error {
	docs, err := st.ListDocuments(ctx, store.DocumentFilter{Status: store.StatusReady})
	if err != nil {
		return fmt.Errorf("listing ready documents: %w", err)
	}

	for _, doc := range docs {
		chunks, err := st.ListChunksByDocuments(ctx, []string{doc.ID})
		if err != nil {
			return fmt.Errorf("loading chunks of %s: %w", doc.ID, err)
		}
		if err := c.Upsert(ctx, doc.ID, chunks); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chromem) Upsert(ctx context.Context, documentID string, chunks []store.Chunk) error {
	if err := c.Remove(ctx, documentID); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		docs[i] = chromem.Document{
			ID:        ch.ID,
			Content:   ch.Content,
			Embedding: ch.Embedding,
			Metadata:  map[string]string{"document_id": ch.DocumentID},
		}
	}

	if err := c.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("indexing chunks of %s: %w", documentID, err)
	}
	return nil
}

func (c *Chromem) Remove(ctx context.Context, documentID string) error {
	if c.collection.Count() == 0 {
		return nil
	}
	where := map[string]string{"document_id": documentID}
	if err := c.collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("removing %s from index: %w", documentID, err)
	}
	return nil
}

func (c *Chromem) Query(ctx context.Context, embedding []float32, documentIDs []string, minSimilarity float64) ([]Hit, error) {
	count := c.collection.Count()
	if count == 0 || len(documentIDs) == 0 {
		return nil, nil
	}

	// chromem caps nResults at the collection size; asking for everything
	// makes this the same full scan as the linear baseline.
	results, err := c.collection.QueryEmbedding(ctx, embedding, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	candidates := make(map[string]bool, len(documentIDs))
	for _, id := range documentIDs {
		candidates[id] = true
	}

	var hits []Hit
	for _, r := range results {
		docID := r.Metadata["document_id"]
		if !candidates[docID] {
			continue
		}
		sim := float64(r.Similarity)
		// chromem normalizes stored vectors, which turns a zero embedding
		// into NaN. NaN passes any < comparison, so filter it explicitly.
		if math.IsNaN(sim) || sim < minSimilarity {
			continue
		}
		hits = append(hits, Hit{ChunkID: r.ID, DocumentID: docID, Similarity: sim})
	}
	return hits, nil
}
