// Package store implements the vector-store collaborator on Postgres with
// pgvector: tenant-scoped similarity search with metadata filters, plus
// the collections registry behind the capabilities summary.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/caldrin/answerhub/internal/models"
	"github.com/caldrin/answerhub/pkg/llm"
)

// VectorStoreConfig configures the store.
type VectorStoreConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
}

// VectorStore holds the connection pool and the embedder used to vectorize
// queries. Safe for concurrent use.
type VectorStore struct {
	config   VectorStoreConfig
	pool     *pgxpool.Pool
	embedder *llm.Embedder
}

// NewWithConfig connects to the database and creates the tables and index
// on first use.
func NewWithConfig(config VectorStoreConfig, embedder *llm.Embedder) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &VectorStore{config: config, pool: pool, embedder: embedder}
	if err := vs.initialize(); err != nil {
		pool.Close()
		return nil, err
	}
	return vs, nil
}

func (vs *VectorStore) initialize() error {
	ctx := context.Background()

	if _, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createChunks := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			collection TEXT NOT NULL,
			content TEXT,
			metadata JSONB,
			embedding vector(%d)
		)`, vs.config.TableName, vs.config.VectorDim)
	if _, err := vs.pool.Exec(ctx, createChunks); err != nil {
		return fmt.Errorf("failed to create chunks table: %w", err)
	}

	createScope := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_scope_idx
		ON %s (tenant_id, collection)`,
		vs.config.TableName, vs.config.TableName)
	if _, err := vs.pool.Exec(ctx, createScope); err != nil {
		return fmt.Errorf("failed to create scope index: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName)
	if _, err := vs.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create embedding index: %w", err)
	}

	createCollections := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s_collections (
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			display_name TEXT,
			topics TEXT[],
			example_questions TEXT[],
			PRIMARY KEY (tenant_id, name)
		)`, vs.config.TableName)
	if _, err := vs.pool.Exec(ctx, createCollections); err != nil {
		return fmt.Errorf("failed to create collections table: %w", err)
	}

	return nil
}

// Query embeds queryText and returns the topK nearest chunks for the
// tenant, filtered by collection when given and by metadata equality for
// each filter entry. Results come back ordered by ascending cosine
// distance.
func (vs *VectorStore) Query(ctx context.Context, tenant, collection, queryText string, topK int, filter map[string]string) ([]models.Hit, error) {
	embedding, err := vs.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf(`
		SELECT id, collection, content, metadata, embedding <=> $1 AS distance
		FROM %s
		WHERE tenant_id = $2`, vs.config.TableName)
	args := []any{pgvector.NewVector(embedding), tenant}

	if collection != "" {
		args = append(args, collection)
		sql += fmt.Sprintf(" AND collection = $%d", len(args))
	}
	for key, value := range filter {
		args = append(args, key, value)
		sql += fmt.Sprintf(" AND metadata->>$%d = $%d", len(args)-1, len(args))
	}

	args = append(args, topK)
	sql += fmt.Sprintf(" ORDER BY distance LIMIT $%d", len(args))

	rows, err := vs.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var hits []models.Hit
	for rows.Next() {
		var hit models.Hit
		var rawMetadata []byte
		if err := rows.Scan(&hit.ID, &hit.Collection, &hit.Content, &rawMetadata, &hit.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		hit.Metadata = decodeMetadata(rawMetadata)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return hits, nil
}

// SummarizeCapabilities lists the tenant's registered collections.
func (vs *VectorStore) SummarizeCapabilities(ctx context.Context, tenant string) ([]models.CollectionInfo, error) {
	sql := fmt.Sprintf(`
		SELECT name, COALESCE(display_name, name), topics, example_questions
		FROM %s_collections
		WHERE tenant_id = $1
		ORDER BY name`, vs.config.TableName)

	rows, err := vs.pool.Query(ctx, sql, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	defer rows.Close()

	var infos []models.CollectionInfo
	for rows.Next() {
		var info models.CollectionInfo
		if err := rows.Scan(&info.Name, &info.DisplayName, &info.Topics, &info.ExampleQuestions); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read collections: %w", err)
	}
	return infos, nil
}

// RegisterCollection upserts one collection into the registry.
func (vs *VectorStore) RegisterCollection(ctx context.Context, tenant string, info models.CollectionInfo) error {
	sql := fmt.Sprintf(`
		INSERT INTO %s_collections (tenant_id, name, display_name, topics, example_questions)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, name) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			topics = EXCLUDED.topics,
			example_questions = EXCLUDED.example_questions`,
		vs.config.TableName)

	_, err := vs.pool.Exec(ctx, sql, tenant, info.Name, info.DisplayName, info.Topics, info.ExampleQuestions)
	if err != nil {
		return fmt.Errorf("failed to register collection: %w", err)
	}
	return nil
}

// Chunk is one pre-embedded document chunk for Upsert. Ingestion proper
// (chunking, embedding documents) happens upstream; this entry point lets
// operators and tests seed a workspace.
type Chunk struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Upsert embeds and writes the chunks into the tenant's collection.
func (vs *VectorStore) Upsert(ctx context.Context, tenant, collection string, chunks []Chunk) error {
	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sql := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, collection, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`,
		vs.config.TableName)

	for _, chunk := range chunks {
		embedding, err := vs.embedder.EmbedQuery(ctx, chunk.Content)
		if err != nil {
			return err
		}
		metadata, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, chunk.ID, tenant, collection, chunk.Content,
			metadata, pgvector.NewVector(embedding)); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

// decodeMetadata flattens JSONB metadata to string values; non-string
// scalars are formatted, nested values dropped.
func decodeMetadata(raw []byte) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}
	out := make(map[string]string, len(decoded))
	for k, v := range decoded {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64, bool:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
