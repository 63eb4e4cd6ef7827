package embeddings

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds the remote embedding call. No caller blocks
// longer than this before the local fallback takes over.
const DefaultTimeout = 15 * time.Second

// Resilient wraps a primary (usually remote) embedder with a deterministic
// local fallback so that embedding can never fail the pipeline. Provider
// errors are logged as warnings and absorbed; the model id of whichever
// strategy produced the vectors is reported alongside them.
type Resilient struct {
	primary Embedder // nil means degraded-only mode
	local   *LocalEmbedder
	timeout time.Duration
	log     *zap.Logger
}

// NewResilient builds the fallback strategy. primary may be nil to run
// purely on the local embedder. The local embedder matches the primary's
// dimensions so mixed-model chunk sets stay comparable.
func NewResilient(primary Embedder, timeout time.Duration, log *zap.Logger) *Resilient {
	dims := DefaultLocalDimensions
	if primary != nil {
		dims = primary.Dimensions()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resilient{
		primary: primary,
		local:   NewLocalEmbedder(dims),
		timeout: timeout,
		log:     log,
	}
}

// Dimensions returns the vector size both strategies produce.
func (r *Resilient) Dimensions() int { return r.local.Dimensions() }

// Embed produces one vector per text plus the model id of the strategy
// that produced them. It never returns an error: on any provider failure
// or timeout it falls back to the deterministic local strategy.
func (r *Resilient) Embed(ctx context.Context, texts []string) ([][]float32, string) {
	if len(texts) == 0 {
		return nil, r.local.Name()
	}

	if r.primary != nil {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		vectors, err := r.primary.Embed(callCtx, texts)
		cancel()
		if err == nil && len(vectors) == len(texts) {
			return vectors, r.primary.Name()
		}
		r.log.Warn("embedding provider unavailable, using local fallback",
			zap.String("provider", r.primary.Name()),
			zap.Int("texts", len(texts)),
			zap.Error(err))
	}

	vectors, _ := r.local.Embed(ctx, texts)
	return vectors, r.local.Name()
}
