// Package query normalizes the user question into the effective retrieval
// query, folding in short follow-up context from the prior answer.
package query

import (
	"fmt"
	"strings"

	"github.com/caldrin/answerhub/internal/models"
)

// politePrefixes are stripped from the start of the question. Longer
// phrases come first so "please" does not pre-empt "can you please".
var politePrefixes = []string{
	"can you please",
	"could you please",
	"i was wondering",
	"i would like to know",
	"please",
}

// exportPhrases are removed anywhere in the question when the intent is an
// export request; they describe the output shape, not the topic.
var exportPhrases = []string{
	"as a table",
	"as table",
	"downloadable",
	"export",
	"table",
}

// previousAnswerLimit bounds how much of the prior answer is folded into a
// follow-up query.
const previousAnswerLimit = 300

// Build returns the effective query for retrieval. The question is
// normalized, and when history exists the last assistant answer is
// prepended as follow-up context.
func Build(question string, intent models.Intent, history []models.Turn) string {
	q := Normalize(question, intent)
	if len(history) == 0 {
		return q
	}
	prev := history[len(history)-1].Assistant
	if len(prev) > previousAnswerLimit {
		prev = prev[:previousAnswerLimit]
	}
	return fmt.Sprintf("Follow-up based on the previous answer: %s\n\nNew question: %s", prev, q)
}

// Normalize strips polite prefixes and, for export requests, the
// export-phrasing tokens.
func Normalize(question string, intent models.Intent) string {
	q := strings.TrimSpace(question)
	if intent == models.IntentExportTable {
		for _, p := range exportPhrases {
			q = removeFold(q, p)
		}
		q = strings.Join(strings.Fields(q), " ")
	}

	lower := strings.ToLower(q)
	for _, p := range politePrefixes {
		if strings.HasPrefix(lower, p) {
			q = q[len(p):]
			break
		}
	}
	return strings.TrimLeft(q, " ,.:;-")
}

// removeFold deletes every case-insensitive occurrence of phrase from s.
func removeFold(s, phrase string) string {
	lowerPhrase := strings.ToLower(phrase)
	for {
		i := strings.Index(strings.ToLower(s), lowerPhrase)
		if i < 0 {
			return s
		}
		s = s[:i] + s[i+len(phrase):]
	}
}
