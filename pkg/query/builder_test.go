package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/caldrin/answerhub/internal/models"
)

func TestNormalizePolitePrefixes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Can you please summarize the report", "summarize the report"},
		{"could you please list the benefits", "list the benefits"},
		{"Please explain the policy", "explain the policy"},
		{"I was wondering, what changed in Q2?", "what changed in Q2?"},
		{"I would like to know the totals", "the totals"},
		{"What changed in Q2?", "What changed in Q2?"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in, models.IntentLookup))
		})
	}
}

func TestNormalizeExportTokens(t *testing.T) {
	got := Normalize("Export the 2024 revenue as a table", models.IntentExportTable)
	assert.Equal(t, "the 2024 revenue", got)

	// Export phrasing survives for other intents.
	got = Normalize("Export the 2024 revenue as a table", models.IntentLookup)
	assert.Equal(t, "Export the 2024 revenue as a table", got)
}

func TestBuildWithoutHistory(t *testing.T) {
	got := Build("please show me the totals", models.IntentLookup, nil)
	assert.Equal(t, "show me the totals", got)
}

func TestBuildWithHistory(t *testing.T) {
	history := []models.Turn{
		{User: "what was revenue?", Assistant: "Revenue was $4M."},
	}
	got := Build("and the margin?", models.IntentLookup, history)
	assert.Equal(t, "Follow-up based on the previous answer: Revenue was $4M.\n\nNew question: and the margin?", got)
}

func TestBuildTruncatesLongPreviousAnswer(t *testing.T) {
	history := []models.Turn{
		{User: "q", Assistant: strings.Repeat("x", 500)},
	}
	got := Build("and then?", models.IntentGeneral, history)
	assert.Contains(t, got, strings.Repeat("x", 300))
	assert.NotContains(t, got, strings.Repeat("x", 301))
}
