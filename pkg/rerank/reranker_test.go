package rerank

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldrin/answerhub/internal/models"
	"github.com/caldrin/answerhub/internal/types"
)

type fakeModel struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeModel) Invoke(ctx context.Context, msgs []models.ChatMessage) (string, error) {
	f.lastPrompt = msgs[len(msgs)-1].Content
	return f.response, f.err
}

func (f *fakeModel) Stream(ctx context.Context, msgs []models.ChatMessage, fn types.StreamFunc) error {
	return errors.New("not implemented")
}

func newReranker(m *fakeModel) *Reranker {
	return New(m, DefaultConfig(), zerolog.Nop())
}

func threeHits() []models.Hit {
	return []models.Hit{
		{ID: "a", Content: "alpha"},
		{ID: "b", Content: "beta"},
		{ID: "c", Content: "gamma"},
	}
}

func ids(hits []models.Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ID
	}
	return out
}

func TestRankAppliesModelOrder(t *testing.T) {
	m := &fakeModel{response: "[2, 0, 1]"}
	ranked := newReranker(m).Rank(context.Background(), "q", threeHits())
	assert.Equal(t, []string{"c", "a", "b"}, ids(ranked))
}

func TestRankDropsInvalidEntriesAndAppendsRest(t *testing.T) {
	m := &fakeModel{response: `[2, 2, 9, -1, "x", 1.5, 0]`}
	ranked := newReranker(m).Rank(context.Background(), "q", threeHits())
	// Valid entries are 2 then 0; index 1 keeps its original position after.
	assert.Equal(t, []string{"c", "a", "b"}, ids(ranked))
}

func TestRankFallsBackToIdentity(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{"call error", &fakeModel{err: errors.New("boom")}},
		{"prose response", &fakeModel{response: "snippet two is best"}},
		{"object not array", &fakeModel{response: `{"best": 2}`}},
		{"no valid indices", &fakeModel{response: "[9, -3]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := newReranker(tt.model).Rank(context.Background(), "q", threeHits())
			assert.Equal(t, []string{"a", "b", "c"}, ids(ranked))
		})
	}
}

func TestRankOutputIsPermutation(t *testing.T) {
	m := &fakeModel{response: "[1, 0]"}
	hits := threeHits()
	ranked := newReranker(m).Rank(context.Background(), "q", hits)

	require.Len(t, ranked, len(hits))
	seen := map[string]bool{}
	for _, h := range ranked {
		assert.False(t, seen[h.ID], "duplicate hit %s", h.ID)
		seen[h.ID] = true
	}
}

func TestRankSingleHitSkipsModel(t *testing.T) {
	m := &fakeModel{err: errors.New("must not be called")}
	ranked := newReranker(m).Rank(context.Background(), "q", []models.Hit{{ID: "a"}})
	assert.Equal(t, []string{"a"}, ids(ranked))
	assert.Empty(t, m.lastPrompt)
}

func TestRankTruncatesPreviews(t *testing.T) {
	m := &fakeModel{response: "[0, 1]"}
	r := New(m, Config{PreviewChars: 10, DefaultCap: 5, WideCap: 10}, zerolog.Nop())

	long := strings.Repeat("y", 100)
	r.Rank(context.Background(), "q", []models.Hit{{ID: "a", Content: long}, {ID: "b", Content: "short"}})

	assert.Contains(t, m.lastPrompt, strings.Repeat("y", 10))
	assert.NotContains(t, m.lastPrompt, strings.Repeat("y", 11))
}

func TestCapPolicy(t *testing.T) {
	r := newReranker(&fakeModel{})

	tests := []struct {
		name     string
		intent   models.Intent
		domain   models.Domain
		question string
		want     int
	}{
		{"year level finance", models.IntentNumericAnalysis, models.DomainFinance, "spend for the whole year 2024", 10},
		{"export table", models.IntentExportTable, models.DomainGeneral, "export headcount", 10},
		{"year level non-finance", models.IntentLookup, models.DomainHR, "hires for the whole year 2024", 5},
		{"finance without year phrasing", models.IntentNumericAnalysis, models.DomainFinance, "revenue in march 2024", 5},
		{"plain lookup", models.IntentLookup, models.DomainGeneral, "offsite date", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Cap(tt.intent, tt.domain, tt.question))
		})
	}
}
