// Package classify determines what a question is asking for. A cheap
// lexical pass and a model-based pass each produce an independent verdict;
// an explicit precedence table merges the two into the final
// classification.
package classify

import (
	"strings"

	"github.com/caldrin/answerhub/internal/models"
)

// LexicalResult is the rule-based verdict over the question text alone.
// Terminal marks chitchat and capability questions, which skip retrieval
// entirely.
type LexicalResult struct {
	Intent   models.Intent
	Domain   models.Domain
	Terminal bool
}

var chitchatPhrases = []string{
	"thank you", "thanks", "how are you", "good morning", "good afternoon",
	"good evening", "goodbye", "bye", "hello", "hi", "hey",
}

var capabilityPhrases = []string{
	"what can you do", "what do you know", "what are you capable of",
	"what can i ask", "what topics", "what kind of questions",
}

var domainKeywords = []struct {
	domain   models.Domain
	keywords []string
}{
	{models.DomainFinance, []string{
		"revenue", "profit", "budget", "expense", "cost", "invoice",
		"financial", "finance", "cash flow", "margin", "fiscal", "quarter",
	}},
	{models.DomainHR, []string{
		"employee", "vacation", "leave", "salary", "payroll", "benefits",
		"hiring", "onboarding", "recruitment", "performance review",
	}},
	{models.DomainTech, []string{
		"server", "deploy", "api", "database", "software", "infrastructure",
		"network", "bug", "outage", "incident",
	}},
	{models.DomainPolicy, []string{
		"policy", "compliance", "regulation", "guideline", "legal", "gdpr",
	}},
}

// cheapIntents is checked in order; keyword sets overlap, so the order is
// part of the contract.
var cheapIntents = []struct {
	intent   models.Intent
	keywords []string
}{
	{models.IntentFollowupElaborate, []string{
		"tell me more", "elaborate", "expand on", "more detail", "go deeper",
	}},
	{models.IntentImplications, []string{
		"implication", "impact", "consequence", "what does this mean",
	}},
	{models.IntentStrategy, []string{
		"strategy", "recommend", "should we", "plan for", "advise",
	}},
	{models.IntentNumericAnalysis, []string{
		"total", "sum", "average", "how much", "how many", "percentage",
		"trend", "calculate",
	}},
	{models.IntentProcedure, []string{
		"how do i", "how to", "steps", "process for", "procedure",
	}},
	{models.IntentLookup, []string{
		"what is", "who is", "when", "where", "show me", "find",
	}},
	{models.IntentExportTable, []string{
		"export", "as a table", "table", "downloadable", "csv",
	}},
	{models.IntentAnalysis, []string{
		"analyze", "analysis", "compare", "breakdown", "summarize", "summary",
	}},
}

// Analyze classifies the question by keyword rules alone. It is a pure
// function of the text.
func Analyze(question string) LexicalResult {
	q := strings.ToLower(strings.TrimSpace(question))

	if matchesPhraseStart(q, chitchatPhrases) {
		return LexicalResult{Intent: models.IntentChitchat, Domain: models.DomainGeneral, Terminal: true}
	}
	if containsAny(q, capabilityPhrases) {
		return LexicalResult{Intent: models.IntentCapabilities, Domain: models.DomainGeneral, Terminal: true}
	}

	domain := models.DomainGeneral
	for _, d := range domainKeywords {
		if containsAny(q, d.keywords) {
			domain = d.domain
			break
		}
	}

	intent := models.IntentGeneral
	for _, c := range cheapIntents {
		if containsAny(q, c.keywords) {
			intent = c.intent
			break
		}
	}

	return LexicalResult{Intent: intent, Domain: domain}
}

// matchesPhraseStart reports whether the question opens with one of the
// phrases, either standing alone or followed by a delimiter. Plain
// substring matching would misfire on words like "hiring".
func matchesPhraseStart(q string, phrases []string) bool {
	for _, p := range phrases {
		if q == p {
			return true
		}
		if strings.HasPrefix(q, p) {
			rest := q[len(p):]
			switch rest[0] {
			case ' ', ',', '.', '!', '?':
				return true
			}
		}
	}
	return false
}

func containsAny(q string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}
