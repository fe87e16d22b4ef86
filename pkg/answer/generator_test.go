package answer

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

// scriptedModel returns one queued response per Invoke call.
type scriptedModel struct {
	responses []string
	errs      []error
	prompts   []string
}

func (s *scriptedModel) Invoke(ctx context.Context, msgs []models.ChatMessage) (string, error) {
	call := len(s.prompts)
	s.prompts = append(s.prompts, msgs[len(msgs)-1].Content)
	if call < len(s.errs) && s.errs[call] != nil {
		return "", s.errs[call]
	}
	if call < len(s.responses) {
		return s.responses[call], nil
	}
	return "", errors.New("no scripted response")
}

func (s *scriptedModel) Stream(ctx context.Context, msgs []models.ChatMessage, fn types.StreamFunc) error {
	return errors.New("not implemented")
}

func basicInput() Input {
	return Input{
		Question:         "What was Q3 revenue?",
		OriginalQuestion: "what about Q3?",
		Intent:           models.IntentNumericAnalysis,
		Domain:           models.DomainFinance,
		Chunks: []models.RankedChunk{
			{Content: "Q3 revenue was $4M.", Source: "Finance Report"},
		},
	}
}

func TestGenerateGoodDraftSkipsRefine(t *testing.T) {
	m := &scriptedModel{responses: []string{"Q3 revenue was $4M.", "GOOD"}}
	g := NewGenerator(m, zerolog.Nop())

	got, err := g.Generate(context.Background(), basicInput())
	require.NoError(t, err)
	assert.Equal(t, "Q3 revenue was $4M.", got)
	assert.Len(t, m.prompts, 2)
}

func TestGenerateBadDraftRefinesOnce(t *testing.T) {
	m := &scriptedModel{responses: []string{"draft", "This is BAD.", "refined answer"}}
	g := NewGenerator(m, zerolog.Nop())

	got, err := g.Generate(context.Background(), basicInput())
	require.NoError(t, err)
	assert.Equal(t, "refined answer", got)
	assert.Len(t, m.prompts, 3)
}

func TestGenerateEmptyRefinementKeepsDraft(t *testing.T) {
	m := &scriptedModel{responses: []string{"draft", "BAD", "   "}}
	g := NewGenerator(m, zerolog.Nop())

	got, err := g.Generate(context.Background(), basicInput())
	require.NoError(t, err)
	assert.Equal(t, "draft", got)
}

func TestGenerateCritiqueUsesOriginalQuestion(t *testing.T) {
	m := &scriptedModel{responses: []string{"draft", "GOOD"}}
	g := NewGenerator(m, zerolog.Nop())

	_, err := g.Generate(context.Background(), basicInput())
	require.NoError(t, err)

	assert.Contains(t, m.prompts[0], "What was Q3 revenue?")
	assert.Contains(t, m.prompts[1], "what about Q3?")
}

func TestGenerateCritiqueContextTruncated(t *testing.T) {
	in := basicInput()
	in.Chunks = []models.RankedChunk{
		{Content: strings.Repeat("z", 15000), Source: "Big Doc"},
	}
	m := &scriptedModel{responses: []string{"draft", "GOOD"}}
	g := NewGenerator(m, zerolog.Nop())

	_, err := g.Generate(context.Background(), in)
	require.NoError(t, err)

	assert.NotContains(t, m.prompts[1], strings.Repeat("z", 10001))
}

func TestGenerateErrorsSurface(t *testing.T) {
	tests := []struct {
		name string
		m    *scriptedModel
	}{
		{"draft fails", &scriptedModel{errs: []error{errors.New("boom")}}},
		{"critique fails", &scriptedModel{responses: []string{"draft"}, errs: []error{nil, errors.New("boom")}}},
		{"refine fails", &scriptedModel{responses: []string{"draft", "BAD"}, errs: []error{nil, nil, errors.New("boom")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.m, zerolog.Nop())
			_, err := g.Generate(context.Background(), basicInput())
			assert.Error(t, err)
		})
	}
}

func TestGenerateHistoryBounded(t *testing.T) {
	in := basicInput()
	in.History = []models.Turn{
		{User: "first", Assistant: "a1"},
		{User: "second", Assistant: "a2"},
		{User: "third", Assistant: "a3"},
	}
	m := &scriptedModel{responses: []string{"draft", "GOOD"}}
	g := NewGenerator(m, zerolog.Nop())

	_, err := g.Generate(context.Background(), in)
	require.NoError(t, err)
}
