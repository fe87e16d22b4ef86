// Package types declares the narrow interfaces through which the pipeline
// consumes its external collaborators: the vector store, the chat history
// store, and the generation/classification model.
package types

import (
	"context"

	"github.com/caldrin/answerhub/internal/models"
)

// VectorSearcher answers similarity queries over a tenant's document
// collections. Implementations must be safe for concurrent use.
type VectorSearcher interface {
	// Query returns up to topK chunks matching queryText within the tenant,
	// ordered by ascending distance. An empty collection means all of the
	// tenant's collections. filter restricts results by metadata equality.
	Query(ctx context.Context, tenant, collection, queryText string, topK int, filter map[string]string) ([]models.Hit, error)

	// SummarizeCapabilities lists the tenant's collections with their
	// topics and example questions.
	SummarizeCapabilities(ctx context.Context, tenant string) ([]models.CollectionInfo, error)
}

// HistoryStore reads and appends conversation turns. Implementations must
// be safe for concurrent use.
type HistoryStore interface {
	// LastTurns returns up to n most recent turns, oldest first.
	LastTurns(ctx context.Context, tenant, user string, n int, conversationID string) ([]models.Turn, error)

	// SaveTurn appends one completed exchange.
	SaveTurn(ctx context.Context, tenant, user, userText, assistantText, conversationID string) error
}

// StreamFunc receives one incremental text fragment from a streaming model
// call. Returning a non-nil error stops the stream.
type StreamFunc func(ctx context.Context, chunk []byte) error

// ChatModel is the generation/classification model. Implementations must
// be safe for concurrent use.
type ChatModel interface {
	// Invoke sends the messages and returns the complete response text.
	Invoke(ctx context.Context, msgs []models.ChatMessage) (string, error)

	// Stream sends the messages and forwards incremental fragments to fn
	// as they are produced.
	Stream(ctx context.Context, msgs []models.ChatMessage, fn StreamFunc) error
}
