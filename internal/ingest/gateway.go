// Package ingest is the write path of the retrieval engine: content-
// addressed document creation, deduplication, and the chunk → embed →
// persist processing pass.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/knowbase/kb/internal/chunker"
	"github.com/knowbase/kb/internal/embeddings"
	"github.com/knowbase/kb/internal/index"
	"github.com/knowbase/kb/internal/lifecycle"
	"github.com/knowbase/kb/internal/store"
)

// embedBatchSize bounds texts per embedding call; cancellation is checked
// between batches so an external cancel stops further provider calls.
const embedBatchSize = 16

// AddDocumentRequest carries everything the extraction collaborator hands
// over for a new document.
type AddDocumentRequest struct {
	Title           string
	Description     string
	DocType         store.DocType
	Scope           store.Scope
	IsAdminManaged  bool
	SourceType      store.SourceType
	Content         string // extracted text; may be empty for URL documents
	SourceURL       string
	TargetFunctions []string
	TargetPlatforms []string
	Tags            []string
	Priority        int // 0 picks the default for the management tier
	Owner           string
}

// Gateway orchestrates document ingestion and lifecycle.
type Gateway struct {
	store        *store.Store
	embedder     *embeddings.Resilient
	index        index.Index
	guard        *lifecycle.Guard
	chunkSize    int
	chunkOverlap int
	log          *zap.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithChunking overrides the default chunk size and overlap.
func WithChunking(size, overlap int) Option {
	return func(g *Gateway) {
		g.chunkSize = size
		g.chunkOverlap = overlap
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// New creates a gateway over the given store, embedder, and search index.
func New(st *store.Store, embedder *embeddings.Resilient, idx index.Index, opts ...Option) *Gateway {
	g := &Gateway{
		store:        st,
		embedder:     embedder,
		index:        idx,
		guard:        lifecycle.NewGuard(),
		chunkSize:    chunker.DefaultChunkSize,
		chunkOverlap: chunker.DefaultOverlap,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddDocument validates and deduplicates an upload, then creates the
// document in PENDING. Processing is a separate explicit step so callers
// can batch or retry.
func (g *Gateway) AddDocument(ctx context.Context, req AddDocumentRequest) (*store.Document, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	if req.SourceType == "" {
		req.SourceType = store.SourceFile
	}

	content := strings.TrimSpace(req.Content)
	var hash string
	switch req.SourceType {
	case store.SourceFile:
		if content == "" {
			return nil, ErrEmptyContent
		}
		hash = HashContent(content)
	case store.SourceURL:
		if req.SourceURL == "" {
			return nil, fmt.Errorf("source_url is required for url documents")
		}
		if content != "" {
			hash = HashContent(content)
		} else {
			// The crawler has not fetched the page yet; the URL stands in
			// for the content until SetContent re-hashes.
			hash = HashContent(req.SourceURL)
		}
	default:
		return nil, fmt.Errorf("unknown source type %q", req.SourceType)
	}

	if err := g.checkDuplicate(ctx, hash, req.Owner, ""); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == 0 {
		if req.IsAdminManaged {
			priority = 5
		} else {
			priority = 3
		}
	}
	if priority < 1 {
		priority = 1
	} else if priority > 10 {
		priority = 10
	}

	doc, err := g.store.CreateDocument(ctx, store.Document{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		DocType:         req.DocType,
		Scope:           req.Scope,
		IsAdminManaged:  req.IsAdminManaged,
		SourceType:      req.SourceType,
		SourceURL:       req.SourceURL,
		Content:         content,
		ContentHash:     hash,
		Status:          store.StatusPending,
		TargetFunctions: req.TargetFunctions,
		TargetPlatforms: req.TargetPlatforms,
		Tags:            req.Tags,
		Priority:        priority,
		UploadedBy:      req.Owner,
	})
	if err != nil {
		return nil, err
	}

	g.log.Info("document added",
		zap.String("id", doc.ID),
		zap.String("title", doc.Title),
		zap.String("hash", hash),
		zap.Bool("admin_managed", doc.IsAdminManaged))
	return doc, nil
}

// checkDuplicate enforces the content-hash uniqueness rule: a collision
// with an admin-managed document (the canonical copy) or with the same
// owner's earlier upload is rejected with the conflicting id.
func (g *Gateway) checkDuplicate(ctx context.Context, hash, owner, excludeID string) error {
	matches, err := g.store.FindByContentHash(ctx, hash)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if m.ID == excludeID {
			continue
		}
		if m.IsAdminManaged || m.UploadedBy == owner {
			return &DuplicateDocumentError{ExistingID: m.ID}
		}
	}
	return nil
}

// SetContent stores newly extracted text on a URL document and resets it
// to PENDING for (re)processing.
func (g *Gateway) SetContent(ctx context.Context, documentID, content string) (*store.Document, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	doc, err := g.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status == store.StatusProcessing {
		return nil, ErrProcessingInProgress
	}

	hash := HashContent(content)
	if hash != doc.ContentHash {
		if err := g.checkDuplicate(ctx, hash, doc.UploadedBy, doc.ID); err != nil {
			return nil, err
		}
	}

	if err := g.store.SetContent(ctx, documentID, content, hash); err != nil {
		return nil, err
	}
	if err := g.store.UpdateStatus(ctx, documentID, store.StatusPending, ""); err != nil {
		return nil, err
	}
	return g.store.GetDocument(ctx, documentID)
}

// Process runs one full chunk+embed+persist pass. Allowed from PENDING or
// FAILED; concurrent passes on the same document are rejected. On failure
// the document is marked FAILED with the error recorded, and any previous
// READY chunk set is left untouched (nothing commits except the atomic
// ReplaceChunks).
func (g *Gateway) Process(ctx context.Context, documentID string) (*store.Document, error) {
	if !g.guard.TryAcquire(documentID) {
		return nil, ErrProcessingInProgress
	}
	defer g.guard.Release(documentID)

	doc, err := g.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status == store.StatusProcessing {
		return nil, ErrProcessingInProgress
	}
	if !lifecycle.Processable(doc.Status) {
		return nil, fmt.Errorf("document %s is %s; use reprocess to run it again", documentID, doc.Status)
	}

	swapped, err := g.store.CompareAndSwapStatus(ctx, documentID,
		[]store.Status{store.StatusPending, store.StatusFailed}, store.StatusProcessing)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, ErrProcessingInProgress
	}

	if err := g.runPass(ctx, doc); err != nil {
		failure := &ProcessingError{DocumentID: documentID, Err: err}
		// The pass may have failed because ctx was cancelled; the FAILED
		// status must still land or the document stays in PROCESSING with
		// no way out.
		if uerr := g.store.UpdateStatus(context.WithoutCancel(ctx), documentID, store.StatusFailed, err.Error()); uerr != nil {
			g.log.Error("recording processing failure", zap.String("id", documentID), zap.Error(uerr))
		}
		g.log.Warn("processing failed", zap.String("id", documentID), zap.Error(err))
		return nil, failure
	}

	if err := g.store.UpdateStatus(ctx, documentID, store.StatusReady, ""); err != nil {
		return nil, err
	}
	return g.store.GetDocument(ctx, documentID)
}

// runPass chunks, embeds, and persists the document's text. Only the
// final ReplaceChunks writes chunk rows, so a failed or cancelled pass
// leaves the prior set intact.
func (g *Gateway) runPass(ctx context.Context, doc *store.Document) error {
	if strings.TrimSpace(doc.Content) == "" {
		return fmt.Errorf("no extracted text available")
	}

	pieces := chunker.Split(doc.Content, g.chunkSize, g.chunkOverlap)
	if len(pieces) == 0 {
		return fmt.Errorf("chunking produced no segments")
	}

	chunks := make([]store.Chunk, 0, len(pieces))
	for start := 0; start < len(pieces); start += embedBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + embedBatchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		batch := pieces[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Content
		}
		vectors, model := g.embedder.Embed(ctx, texts)

		for i, p := range batch {
			chunks = append(chunks, store.Chunk{
				ID:             uuid.New().String(),
				DocumentID:     doc.ID,
				ChunkIndex:     p.Index,
				Content:        p.Content,
				TokenCount:     p.TokenCount,
				Embedding:      vectors[i],
				EmbeddingModel: model,
				StartChar:      p.StartChar,
				EndChar:        p.EndChar,
			})
		}
	}

	if err := g.store.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return err
	}

	// Index upkeep is best-effort: the in-memory index rebuilds from the
	// store, so a failure here must not fail the committed pass.
	if err := g.index.Upsert(ctx, doc.ID, chunks); err != nil {
		g.log.Warn("updating search index", zap.String("id", doc.ID), zap.Error(err))
	}

	g.log.Info("document processed",
		zap.String("id", doc.ID),
		zap.Int("chunks", len(chunks)))
	return nil
}

// Reprocess resets a READY or FAILED document to PENDING and runs a fresh
// processing pass.
func (g *Gateway) Reprocess(ctx context.Context, documentID string) (*store.Document, error) {
	doc, err := g.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status == store.StatusProcessing {
		return nil, ErrProcessingInProgress
	}
	if !lifecycle.Reprocessable(doc.Status) {
		return nil, fmt.Errorf("document %s is %s and cannot be reprocessed", documentID, doc.Status)
	}

	if doc.Status != store.StatusPending {
		swapped, err := g.store.CompareAndSwapStatus(ctx, documentID,
			[]store.Status{store.StatusReady, store.StatusFailed}, store.StatusPending)
		if err != nil {
			return nil, err
		}
		if !swapped {
			return nil, ErrProcessingInProgress
		}
	}

	return g.Process(ctx, documentID)
}

// Delete removes the document and all its chunks transactionally, then
// drops them from the search index. Callers owning a backing file artifact
// remove it only after this returns.
func (g *Gateway) Delete(ctx context.Context, documentID string) error {
	if err := g.store.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	if err := g.index.Remove(ctx, documentID); err != nil {
		g.log.Warn("removing document from search index", zap.String("id", documentID), zap.Error(err))
	}
	g.log.Info("document deleted", zap.String("id", documentID))
	return nil
}

// HashContent returns the hex SHA-256 of the given text, the engine's
// content address.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
