// Package config loads pipeline configuration from YAML with environment
// overrides and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		EmbedModel  string  `yaml:"embed_model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
	} `yaml:"database"`

	Retrieval struct {
		TopK          int `yaml:"top_k"`
		EscalatedTopK int `yaml:"escalated_top_k"`
		PreviewChars  int `yaml:"preview_chars"`
		ChunkCap      int `yaml:"chunk_cap"`
		WideChunkCap  int `yaml:"wide_chunk_cap"`
	} `yaml:"retrieval"`

	Pipeline struct {
		HistoryTurns    int     `yaml:"history_turns"`
		LimiterCapacity int     `yaml:"limiter_capacity"`
		RateLimit       float64 `yaml:"rate_limit"`
	} `yaml:"pipeline"`

	UI struct {
		Streaming bool   `yaml:"streaming"`
		Theme     string `yaml:"theme"`
	} `yaml:"ui"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/answerhub/config.yaml"),
			"/etc/answerhub/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.EmbedModel == "" {
		config.LLM.EmbedModel = "nomic-embed-text:latest"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "chunks"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}

	if config.Retrieval.TopK == 0 {
		config.Retrieval.TopK = 40
	}
	if config.Retrieval.EscalatedTopK == 0 {
		config.Retrieval.EscalatedTopK = 200
	}
	if config.Retrieval.PreviewChars == 0 {
		config.Retrieval.PreviewChars = 800
	}
	if config.Retrieval.ChunkCap == 0 {
		config.Retrieval.ChunkCap = 5
	}
	if config.Retrieval.WideChunkCap == 0 {
		config.Retrieval.WideChunkCap = 10
	}

	if config.Pipeline.HistoryTurns == 0 {
		config.Pipeline.HistoryTurns = 3
	}
	if config.Pipeline.LimiterCapacity == 0 {
		config.Pipeline.LimiterCapacity = 30
	}

	if config.UI.Theme == "" {
		config.UI.Theme = "default"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
}
