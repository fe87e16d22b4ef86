package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  base_url: "http://localhost:11434"
  model: "llama3"
  embed_model: "nomic-embed-text:latest"
  max_tokens: 1000
  temperature: 0.5

database:
  url: "postgres://localhost:5432/test"
  table_name: "kb_chunks"
  vector_dim: 768

retrieval:
  top_k: 25
  escalated_top_k: 150
  preview_chars: 600
  chunk_cap: 4
  wide_chunk_cap: 8

pipeline:
  history_turns: 3
  limiter_capacity: 10
  rate_limit: 5

ui:
  streaming: true
  theme: "dark"
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, "llama3", config.LLM.Model)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, "postgres://localhost:5432/test", config.Database.URL)
	assert.Equal(t, "kb_chunks", config.Database.TableName)
	assert.Equal(t, 25, config.Retrieval.TopK)
	assert.Equal(t, 150, config.Retrieval.EscalatedTopK)
	assert.Equal(t, 8, config.Retrieval.WideChunkCap)
	assert.Equal(t, 10, config.Pipeline.LimiterCapacity)
	assert.True(t, config.UI.Streaming)
}

func TestLoadConfigDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("llm:\n  model: mistral\n"), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 40, config.Retrieval.TopK)
	assert.Equal(t, 200, config.Retrieval.EscalatedTopK)
	assert.Equal(t, 800, config.Retrieval.PreviewChars)
	assert.Equal(t, 5, config.Retrieval.ChunkCap)
	assert.Equal(t, 10, config.Retrieval.WideChunkCap)
	assert.Equal(t, 3, config.Pipeline.HistoryTurns)
	assert.Equal(t, 30, config.Pipeline.LimiterCapacity)
}

func TestValidate(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		config, err = getDefaultConfig()
		require.NoError(t, err)
	}
	assert.Empty(t, config.Validate())

	config.Retrieval.TopK = 0
	config.LLM.Temperature = 3
	errs := config.Validate()

	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.Contains(t, fields, "retrieval.top_k")
	assert.Contains(t, fields, "llm.temperature")
}
