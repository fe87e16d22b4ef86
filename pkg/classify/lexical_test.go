package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/caldrin/answerhub/internal/models"
)

func TestAnalyzeChitchat(t *testing.T) {
	for _, q := range []string{
		"Hello",
		"hi there",
		"Thanks, that was helpful",
		"thank you!",
		"Good morning",
	} {
		t.Run(q, func(t *testing.T) {
			res := Analyze(q)
			assert.Equal(t, models.IntentChitchat, res.Intent)
			assert.Equal(t, models.DomainGeneral, res.Domain)
			assert.True(t, res.Terminal)
		})
	}
}

func TestAnalyzeChitchatNotSubstring(t *testing.T) {
	// "hi" inside "hiring" must not read as a greeting.
	res := Analyze("What is our hiring process?")
	assert.False(t, res.Terminal)
	assert.Equal(t, models.DomainHR, res.Domain)
}

func TestAnalyzeCapabilities(t *testing.T) {
	res := Analyze("What can you do?")
	assert.Equal(t, models.IntentCapabilities, res.Intent)
	assert.Equal(t, models.DomainGeneral, res.Domain)
	assert.True(t, res.Terminal)
}

func TestAnalyzeDomains(t *testing.T) {
	tests := []struct {
		question string
		domain   models.Domain
	}{
		{"Summarize total revenue for 2024", models.DomainFinance},
		{"How many vacation days do I get?", models.DomainHR},
		{"Why is the api server slow?", models.DomainTech},
		{"What does the travel policy say?", models.DomainPolicy},
		{"Tell me about the offsite", models.DomainGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.domain, Analyze(tt.question).Domain)
		})
	}
}

func TestAnalyzeCheapIntentOrder(t *testing.T) {
	tests := []struct {
		question string
		intent   models.Intent
	}{
		// "tell me more" wins over the lookup keywords.
		{"Tell me more about what is in the report", models.IntentFollowupElaborate},
		{"What is the impact of the new rule?", models.IntentImplications},
		{"Should we expand into new markets?", models.IntentStrategy},
		// "total" fires before "summarize".
		{"Summarize total revenue for 2024", models.IntentNumericAnalysis},
		{"How do I file an expense report?", models.IntentProcedure},
		{"What is the parental leave allowance?", models.IntentLookup},
		{"Export the headcount numbers", models.IntentExportTable},
		{"Compare the two proposals", models.IntentAnalysis},
		{"Anything interesting lately?", models.IntentGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.intent, Analyze(tt.question).Intent)
		})
	}
}
