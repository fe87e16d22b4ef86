// Package rerank orders retrieved chunks by a secondary model-based
// relevance judgment. Reranking is best effort: any failure falls back to
// the original retrieval order and never reaches the caller.
package rerank

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/caldrin/answerhub/internal/models"
	"github.com/caldrin/answerhub/internal/types"
	"github.com/caldrin/answerhub/pkg/jsonx"
	"github.com/caldrin/answerhub/pkg/retrieval"
)

const rankPrompt = `You rank document snippets by relevance to a question.

Question: %s

Snippets:
%s

Respond with a JSON array of the 0-based snippet indices ordered from most
to least relevant, for example [2, 0, 1]. Return only the JSON array.`

// Config tunes the reranker.
type Config struct {
	// PreviewChars bounds each snippet in the ranking prompt.
	PreviewChars int
	// DefaultCap and WideCap are the chunk caps applied after ranking.
	DefaultCap int
	WideCap    int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{PreviewChars: 800, DefaultCap: 5, WideCap: 10}
}

// Reranker asks the model for an index permutation over retrieved hits.
type Reranker struct {
	model  types.ChatModel
	cfg    Config
	logger zerolog.Logger
}

// New returns a Reranker backed by the given model.
func New(model types.ChatModel, cfg Config, logger zerolog.Logger) *Reranker {
	if cfg.PreviewChars <= 0 {
		cfg.PreviewChars = DefaultConfig().PreviewChars
	}
	if cfg.DefaultCap <= 0 {
		cfg.DefaultCap = DefaultConfig().DefaultCap
	}
	if cfg.WideCap <= 0 {
		cfg.WideCap = DefaultConfig().WideCap
	}
	return &Reranker{model: model, cfg: cfg, logger: logger}
}

// Rank returns the hits reordered by model-judged relevance. Indices the
// model leaves out keep their original relative order after the ranked
// ones; on any parse or call failure the original order is returned.
func (r *Reranker) Rank(ctx context.Context, question string, hits []models.Hit) []models.Hit {
	if len(hits) <= 1 {
		return hits
	}

	order, ok := r.modelOrder(ctx, question, hits)
	if !ok {
		return hits
	}

	ranked := make([]models.Hit, 0, len(hits))
	taken := make([]bool, len(hits))
	for _, i := range order {
		ranked = append(ranked, hits[i])
		taken[i] = true
	}
	for i, hit := range hits {
		if !taken[i] {
			ranked = append(ranked, hit)
		}
	}
	return ranked
}

// Cap returns the chunk cap in force for the request: the wide cap for
// year-level finance questions and table exports, the default otherwise.
func (r *Reranker) Cap(intent models.Intent, domain models.Domain, rawQuestion string) int {
	yearLevel := retrieval.IsYearLevel(rawQuestion)
	if (yearLevel && domain == models.DomainFinance) || intent == models.IntentExportTable {
		return r.cfg.WideCap
	}
	return r.cfg.DefaultCap
}

// modelOrder returns the validated index permutation, or ok=false when the
// ranking is unusable and the identity order should stand.
func (r *Reranker) modelOrder(ctx context.Context, question string, hits []models.Hit) ([]int, bool) {
	var b strings.Builder
	for i, hit := range hits {
		preview := hit.Content
		if len(preview) > r.cfg.PreviewChars {
			preview = preview[:r.cfg.PreviewChars]
		}
		fmt.Fprintf(&b, "[%d] %s\n", i, preview)
	}

	raw, err := r.model.Invoke(ctx, []models.ChatMessage{
		{Role: models.RoleUser, Content: fmt.Sprintf(rankPrompt, question, b.String())},
	})
	if err != nil {
		r.logger.Warn().Err(err).Msg("rerank call failed, keeping retrieval order")
		return nil, false
	}

	var entries []any
	if err := jsonx.Unmarshal(raw, &entries); err != nil {
		r.logger.Warn().Err(err).Str("response", raw).
			Msg("rerank response unparsable, keeping retrieval order")
		return nil, false
	}

	// Entries arrive as JSON numbers; models emit 1.0 as often as 1, so
	// accept integral floats and drop everything else.
	order := make([]int, 0, len(entries))
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		f, isNumber := e.(float64)
		i := int(f)
		if !isNumber || float64(i) != f || i < 0 || i >= len(hits) || seen[i] {
			continue
		}
		seen[i] = true
		order = append(order, i)
	}
	if len(order) == 0 {
		return nil, false
	}
	return order, true
}
