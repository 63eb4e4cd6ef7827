package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .kb.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to kb! Let's configure your knowledge base.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Embedding provider.
	providerPrompt := promptui.Select{
		Label: "Select embedding provider",
		Items: []string{
			"local  — deterministic offline embeddings, no API key",
			"openai — OpenAI embeddings (requires OPENAI_API_KEY)",
			"ollama — local Ollama server",
		},
	}
	providerIdx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	providers := []EmbeddingProviderType{ProviderLocal, ProviderOpenAI, ProviderOllama}
	cfg.Embedding.Provider = providers[providerIdx]

	// 2. Model, for remote providers.
	switch cfg.Embedding.Provider {
	case ProviderOpenAI:
		modelPrompt := promptui.Select{
			Label: "Select OpenAI embedding model",
			Items: []string{"text-embedding-3-small", "text-embedding-3-large"},
		}
		_, model, err := modelPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("model selection: %w", err)
		}
		cfg.Embedding.Model = model
	case ProviderOllama:
		modelPrompt := promptui.Prompt{
			Label:   "Ollama embedding model",
			Default: "nomic-embed-text",
		}
		model, err := modelPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		cfg.Embedding.Model = model

		dimsPrompt := promptui.Prompt{
			Label:    "Embedding dimensions for this model",
			Default:  "768",
			Validate: validatePositiveInt,
		}
		dimsStr, err := dimsPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("dimensions: %w", err)
		}
		cfg.Embedding.Dimensions, _ = strconv.Atoi(dimsStr)
	}

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory for the document store",
		Default: cfg.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	cfg.DataDir = dataDir

	// 4. Search index.
	indexPrompt := promptui.Select{
		Label: "Select search index",
		Items: []string{
			"linear  — scan the store directly, no extra memory",
			"chromem — in-memory vector index, rebuilt at startup",
		},
	}
	indexIdx, _, err := indexPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("index selection: %w", err)
	}
	cfg.Search.Index = []string{"linear", "chromem"}[indexIdx]

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(DefaultPath); err != nil {
		return nil, err
	}
	fmt.Printf("\nConfiguration written to %s\n", DefaultPath)

	return cfg, nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}
