// Package llm adapts an Ollama-served model to the pipeline's ChatModel
// interface, for both one-shot and streaming generation, plus embeddings
// for the vector store.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"

	"github.com/caldrin/answerhub/internal/models"
	"github.com/caldrin/answerhub/internal/types"
)

// ClientConfig configures the chat model client.
type ClientConfig struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client is a ChatModel backed by langchaingo's Ollama binding.
type Client struct {
	config ClientConfig
	llm    llms.Model
}

// NewClient validates the configuration and connects to the Ollama server.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}

	model, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Client{config: config, llm: model}, nil
}

// Invoke sends the messages and returns the complete response text.
func (c *Client) Invoke(ctx context.Context, msgs []models.ChatMessage) (string, error) {
	resp, err := c.llm.GenerateContent(ctx, toContent(msgs),
		llms.WithTemperature(c.config.Temperature),
		llms.WithMaxTokens(c.config.MaxTokens))
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from LLM")
	}
	return resp.Choices[0].Content, nil
}

// Stream sends the messages and forwards incremental fragments to fn.
func (c *Client) Stream(ctx context.Context, msgs []models.ChatMessage, fn types.StreamFunc) error {
	_, err := c.llm.GenerateContent(ctx, toContent(msgs),
		llms.WithTemperature(c.config.Temperature),
		llms.WithMaxTokens(c.config.MaxTokens),
		llms.WithStreamingFunc(fn))
	if err != nil {
		return fmt.Errorf("chat stream error: %w", err)
	}
	return nil
}

func toContent(msgs []models.ChatMessage) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		role := schema.ChatMessageTypeHuman
		switch m.Role {
		case models.RoleSystem:
			role = schema.ChatMessageTypeSystem
		case models.RoleAssistant:
			role = schema.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, m.Content))
	}
	return content
}
