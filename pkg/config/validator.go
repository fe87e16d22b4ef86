package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "Ollama base URL is required",
		})
	} else if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 1",
		})
	}

	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Retrieval.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.top_k",
			Message: "top_k must be positive",
		})
	}

	if c.Retrieval.EscalatedTopK < c.Retrieval.TopK {
		errors = append(errors, ValidationError{
			Field:   "retrieval.escalated_top_k",
			Message: "escalated_top_k must be at least top_k",
		})
	}

	if c.Retrieval.ChunkCap < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.chunk_cap",
			Message: "chunk_cap must be positive",
		})
	}

	if c.Retrieval.WideChunkCap < c.Retrieval.ChunkCap {
		errors = append(errors, ValidationError{
			Field:   "retrieval.wide_chunk_cap",
			Message: "wide_chunk_cap must be at least chunk_cap",
		})
	}

	if c.Pipeline.HistoryTurns < 1 {
		errors = append(errors, ValidationError{
			Field:   "pipeline.history_turns",
			Message: "history_turns must be positive",
		})
	}

	if c.Pipeline.LimiterCapacity < 1 {
		errors = append(errors, ValidationError{
			Field:   "pipeline.limiter_capacity",
			Message: "limiter_capacity must be positive",
		})
	}

	if c.Pipeline.RateLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "pipeline.rate_limit",
			Message: "rate_limit cannot be negative",
		})
	}

	return errors
}
