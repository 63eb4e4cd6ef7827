package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for configuration.
const DefaultPath = ".kb.yml"

// DefaultConfig returns a Config with sensible defaults: offline
// embeddings, the linear scan index, and local data under .kb/.
func DefaultConfig() *Config {
	return &Config{
		DataDir: ".kb",
		Embedding: EmbeddingConfig{
			Provider:       ProviderLocal,
			Model:          "text-embedding-3-small",
			Dimensions:     256,
			TimeoutSeconds: 15,
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 200,
		},
		Search: SearchConfig{
			Index:         "linear",
			TopK:          5,
			MinSimilarity: 0.3,
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (KB_*, underscores mapping to dots).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// KB_SEARCH_TOP_K -> search.top_k, etc. Section names contain no
	// underscores, so only the first one splits. data_dir is the one
	// top-level key and must not be split at all.
	if err := k.Load(env.Provider("KB_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "KB_"))
		if s == "data_dir" {
			return s
		}
		return strings.Replace(s, "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized embedding provider values.
var validProviders = map[EmbeddingProviderType]bool{
	ProviderOpenAI: true,
	ProviderOllama: true,
	ProviderLocal:  true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if !validProviders[c.Embedding.Provider] {
		return fmt.Errorf("invalid embedding provider %q: must be one of openai, ollama, local", c.Embedding.Provider)
	}
	if c.Embedding.Provider != ProviderLocal && c.Embedding.Model == "" {
		return fmt.Errorf("embedding model is required for provider %s", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding dimensions must be non-negative")
	}
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking size must be positive")
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking overlap must be in [0, size)")
	}
	if c.Search.Index != "" && c.Search.Index != "linear" && c.Search.Index != "chromem" {
		return fmt.Errorf("invalid search index %q: must be linear or chromem", c.Search.Index)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search top_k must be positive")
	}
	if c.Search.MinSimilarity < -1 || c.Search.MinSimilarity > 1 {
		return fmt.Errorf("search min_similarity must be in [-1, 1]")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in (0, 65535]")
	}
	return nil
}
