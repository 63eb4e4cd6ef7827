package config

// EmbeddingProviderType identifies an embedding provider strategy.
type EmbeddingProviderType string

const (
	ProviderOpenAI EmbeddingProviderType = "openai"
	ProviderOllama EmbeddingProviderType = "ollama"
	// ProviderLocal runs the deterministic offline strategy only; remote
	// providers fall back to it automatically when unreachable.
	ProviderLocal EmbeddingProviderType = "local"
)

// Config is the top-level configuration, corresponding to .kb.yml.
type Config struct {
	DataDir   string          `yaml:"data_dir" koanf:"data_dir"`
	Embedding EmbeddingConfig `yaml:"embedding" koanf:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking" koanf:"chunking"`
	Search    SearchConfig    `yaml:"search" koanf:"search"`
	Server    ServerConfig    `yaml:"server" koanf:"server"`
}

// EmbeddingConfig selects and tunes the embedding strategy.
type EmbeddingConfig struct {
	Provider       EmbeddingProviderType `yaml:"provider" koanf:"provider"`
	Model          string                `yaml:"model" koanf:"model"`
	Dimensions     int                   `yaml:"dimensions" koanf:"dimensions"`
	OllamaBaseURL  string                `yaml:"ollama_base_url" koanf:"ollama_base_url"`
	TimeoutSeconds int                   `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// ChunkingConfig tunes the text splitter.
type ChunkingConfig struct {
	Size    int `yaml:"size" koanf:"size"`
	Overlap int `yaml:"overlap" koanf:"overlap"`
}

// SearchConfig tunes retrieval defaults.
type SearchConfig struct {
	Index         string  `yaml:"index" koanf:"index"` // linear | chromem
	TopK          int     `yaml:"top_k" koanf:"top_k"`
	MinSimilarity float64 `yaml:"min_similarity" koanf:"min_similarity"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
