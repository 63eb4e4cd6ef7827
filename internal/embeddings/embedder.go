package embeddings

import "context"

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model. It is
	// recorded on every chunk so stale or mixed-model chunks can be
	// identified and refreshed later.
	Name() string
}

// maxInputChars caps the text sent to a provider. Remote embedding models
// reject over-long input, so texts are truncated before the call.
const maxInputChars = 16000

func truncate(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		if len(t) > maxInputChars {
			t = t[:maxInputChars]
		}
		out[i] = t
	}
	return out
}
