package embeddings

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/knowbase/kb/internal/vector"
)

// LocalModelID identifies vectors produced by the deterministic local
// strategy, so degraded-mode chunks can be found and re-embedded once the
// remote provider is healthy again.
const LocalModelID = "local-hash-v1"

// DefaultLocalDimensions is the vector size used when no remote provider
// dictates one.
const DefaultLocalDimensions = 256

// LocalEmbedder is a deterministic, offline embedding strategy: each token
// is hashed into a fixed-dimension space and the resulting vector is
// L2-normalized. It captures lexical overlap only, which is enough to keep
// ingestion and search functioning when the remote provider is down.
type LocalEmbedder struct {
	dims int
}

// NewLocalEmbedder creates a local embedder producing vectors of the given
// dimension. The dimension should match the remote provider's so that
// mixed-model chunk sets remain comparable.
func NewLocalEmbedder(dims int) *LocalEmbedder {
	if dims <= 0 {
		dims = DefaultLocalDimensions
	}
	return &LocalEmbedder{dims: dims}
}

func (e *LocalEmbedder) Name() string { return LocalModelID }

func (e *LocalEmbedder) Dimensions() int { return e.dims }

// Embed never fails; an empty or whitespace-only text yields a zero
// vector, which scores 0 against everything.
func (e *LocalEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = e.embedOne(text)
	}
	return results, nil
}

func (e *LocalEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()
		// Two projections per token soften hash collisions a little.
		vec[sum%uint32(e.dims)] += 1
		vec[(sum>>16)%uint32(e.dims)] += 0.5
	}
	vector.Normalize(vec)
	return vec
}
