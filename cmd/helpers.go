package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/knowbase/kb/internal/config"
	"github.com/knowbase/kb/internal/embeddings"
	"github.com/knowbase/kb/internal/index"
	"github.com/knowbase/kb/internal/ingest"
	"github.com/knowbase/kb/internal/retriever"
	"github.com/knowbase/kb/internal/store"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `kb init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds a zap logger writing to stderr. Stdout stays clean for
// command output and MCP protocol messages.
func newLogger() (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// buildEmbedder creates the configured embedding strategy wrapped with the
// deterministic local fallback.
func buildEmbedder(cfg *config.Config, log *zap.Logger) (*embeddings.Resilient, error) {
	timeout := time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second

	var primary embeddings.Embedder
	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		primary = embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.Embedding.Model))
	case config.ProviderOllama:
		primary = embeddings.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.Dimensions, cfg.Embedding.OllamaBaseURL)
	case config.ProviderLocal:
		// No primary; the resilient wrapper runs on the local strategy alone.
		if cfg.Embedding.Dimensions > 0 {
			primary = embeddings.NewLocalEmbedder(cfg.Embedding.Dimensions)
		}
	}

	return embeddings.NewResilient(primary, timeout, log), nil
}

// app bundles the wired-up engine for command handlers.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *store.DB
	store     *store.Store
	index     index.Index
	gateway   *ingest.Gateway
	retriever *retriever.Retriever
}

// openApp loads config and wires the store, index, gateway, and retriever.
// Callers must Close it.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := store.Open(filepath.Join(cfg.DataDir, "kb.db"))
	if err != nil {
		return nil, fmt.Errorf("opening document store: %w", err)
	}
	st := store.New(db)

	idx, err := index.New(index.Kind(cfg.Search.Index), st)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating search index: %w", err)
	}
	if c, ok := idx.(*index.Chromem); ok {
		if err := c.Rebuild(ctx, st); err != nil {
			log.Warn("rebuilding vector index", zap.Error(err))
		}
	}

	embedder, err := buildEmbedder(cfg, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	gw := ingest.New(st, embedder, idx,
		ingest.WithChunking(cfg.Chunking.Size, cfg.Chunking.Overlap),
		ingest.WithLogger(log),
	)
	rt := retriever.New(st, embedder, idx, log)

	return &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		store:     st,
		index:     idx,
		gateway:   gw,
		retriever: rt,
	}, nil
}

func (a *app) Close() {
	_ = a.log.Sync()
	_ = a.db.Close()
}

// visibilityFor builds retrieval visibility for a caller identity. An empty
// owner sees admin-managed knowledge only.
func visibilityFor(owner string) store.Visibility {
	if owner == "" {
		return store.Visibility{IncludeAdminManaged: true}
	}
	return store.Visibility{
		Owner:               owner,
		IncludeAdminManaged: true,
		IncludeUserManaged:  true,
	}
}
