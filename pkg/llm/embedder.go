package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
)

// EmbedderConfig configures the embedding model.
type EmbedderConfig struct {
	Model   string
	BaseURL string
}

// Embedder produces query embeddings through the Ollama embedding model.
type Embedder struct {
	config EmbedderConfig
	llm    *ollama.LLM
}

// NewEmbedder connects to the Ollama server with the embedding model.
func NewEmbedder(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	model, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &Embedder{config: config, llm: model}, nil
}

// EmbedQuery returns the embedding vector for one query string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.llm.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}
	return embeddings[0], nil
}
