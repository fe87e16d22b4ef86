// Package retrieval decides how the vector store is queried: which
// metadata filter applies, how far top-k escalates, and what happens when
// nothing comes back.
package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/caldrin/answerhub/internal/models"
	"github.com/caldrin/answerhub/internal/types"
)

// Filter metadata keys.
const (
	FilterDocumentID = "document_id"
	FilterYear       = "year"
)

var yearPattern = regexp.MustCompile(`\b(20[0-4][0-9])\b`)

var yearLevelPhrases = []string{
	"whole year", "entire year", "full year", "jan to dec",
}

// documentScopedIntents keep the conversation on the last referenced
// document when one is known.
var documentScopedIntents = map[models.Intent]bool{
	models.IntentFollowupElaborate: true,
	models.IntentImplications:      true,
	models.IntentStrategy:          true,
}

// wideFinanceIntents escalate top-k for finance questions that need broad
// numeric coverage.
var wideFinanceIntents = map[models.Intent]bool{
	models.IntentNumericAnalysis: true,
	models.IntentLookup:          true,
	models.IntentExportTable:     true,
}

// Config tunes the orchestrator.
type Config struct {
	// DefaultTopK is used when the request does not supply one.
	DefaultTopK int
	// EscalatedTopK is the floor applied to year-level and wide finance
	// queries.
	EscalatedTopK int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{DefaultTopK: 40, EscalatedTopK: 200}
}

// Request carries everything the orchestrator needs for one retrieval.
type Request struct {
	Tenant         string
	Collection     string // empty means all of the tenant's collections
	Query          string // effective query text
	RawQuestion    string // original question, used for year detection
	Intent         models.Intent
	Domain         models.Domain
	LastDocumentID string
	TopK           int
}

// Orchestrator queries the vector store with filter and top-k policy
// applied.
type Orchestrator struct {
	store  types.VectorSearcher
	cfg    Config
	logger zerolog.Logger
}

// New returns an Orchestrator over the given searcher.
func New(store types.VectorSearcher, cfg Config, logger zerolog.Logger) *Orchestrator {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = DefaultConfig().DefaultTopK
	}
	if cfg.EscalatedTopK <= 0 {
		cfg.EscalatedTopK = DefaultConfig().EscalatedTopK
	}
	return &Orchestrator{store: store, cfg: cfg, logger: logger}
}

// Retrieve runs one store query with the selected filter and effective
// top-k. When a year filter produced zero hits it retries exactly once
// without the filter and uses whatever that retry returns. Hits come back
// sorted ascending by distance and truncated to the effective top-k.
func (o *Orchestrator) Retrieve(ctx context.Context, req Request) ([]models.Hit, error) {
	filter := o.selectFilter(req)
	topK := o.effectiveTopK(req)

	hits, err := o.store.Query(ctx, req.Tenant, req.Collection, req.Query, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	if len(hits) == 0 && filter[FilterYear] != "" {
		o.logger.Debug().Str("year", filter[FilterYear]).
			Msg("year-filtered query empty, retrying unfiltered")
		hits, err = o.store.Query(ctx, req.Tenant, req.Collection, req.Query, topK, nil)
		if err != nil {
			return nil, fmt.Errorf("vector query retry: %w", err)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (o *Orchestrator) selectFilter(req Request) map[string]string {
	if documentScopedIntents[req.Intent] && req.LastDocumentID != "" {
		return map[string]string{FilterDocumentID: req.LastDocumentID}
	}
	if req.Domain == models.DomainFinance && req.Intent != models.IntentExportTable {
		if year, ok := YearToken(req.RawQuestion); ok {
			return map[string]string{FilterYear: year}
		}
	}
	return nil
}

func (o *Orchestrator) effectiveTopK(req Request) int {
	topK := req.TopK
	if topK <= 0 {
		topK = o.cfg.DefaultTopK
	}
	wideFinance := req.Domain == models.DomainFinance && wideFinanceIntents[req.Intent]
	if (IsYearLevel(req.RawQuestion) || wideFinance) && topK < o.cfg.EscalatedTopK {
		topK = o.cfg.EscalatedTopK
	}
	return topK
}

// YearToken extracts a 4-digit year in 2000-2049 from the question.
func YearToken(question string) (string, bool) {
	m := yearPattern.FindString(question)
	return m, m != ""
}

// IsYearLevel reports whether the question asks about a whole year or a
// long range: it carries a year token plus whole-year phrasing.
func IsYearLevel(question string) bool {
	if _, ok := YearToken(question); !ok {
		return false
	}
	q := strings.ToLower(question)
	for _, p := range yearLevelPhrases {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

// EmptyMessage is the user-facing text when retrieval comes up empty; the
// wording depends on what the question was trying to do.
func EmptyMessage(intent models.Intent) string {
	switch intent {
	case models.IntentNewQuestion:
		return "I could not find relevant information about that in your documents. Try rephrasing the question, or check that the right documents have been uploaded."
	case models.IntentExportTable:
		return "I could not find any data matching that request to export. Try narrowing the topic or the time period."
	default:
		return "I could not find anything relevant to add here. Could you rephrase the question or give me a bit more detail?"
	}
}
