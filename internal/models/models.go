// Package models holds the domain types shared across the answering
// pipeline: classified intents and domains, conversation turns, retrieval
// hits, ranked context chunks, and the terminal pipeline result.
package models

// Intent is the classified purpose of a user question.
type Intent string

const (
	IntentGeneral           Intent = "GENERAL"
	IntentLookup            Intent = "LOOKUP"
	IntentProcedure         Intent = "PROCEDURE"
	IntentNumericAnalysis   Intent = "NUMERIC_ANALYSIS"
	IntentStrategy          Intent = "STRATEGY"
	IntentImplications      Intent = "IMPLICATIONS"
	IntentAnalysis          Intent = "ANALYSIS"
	IntentExportTable       Intent = "EXPORT_TABLE"
	IntentFollowupElaborate Intent = "FOLLOWUP_ELABORATE"
	IntentNewQuestion       Intent = "NEW_QUESTION"
	IntentChitchat          Intent = "CHITCHAT"
	IntentCapabilities      Intent = "CAPABILITIES"
	IntentUnsure            Intent = "UNSURE"
)

// Domain is a coarse topic bucket used to tune retrieval behavior.
type Domain string

const (
	DomainGeneral Domain = "GENERAL"
	DomainFinance Domain = "FINANCE"
	DomainHR      Domain = "HR"
	DomainTech    Domain = "TECH"
	DomainPolicy  Domain = "POLICY"
)

// Classification is the resolved intent, optional rewritten question, and
// domain for one request. It is produced once and never mutated afterward.
type Classification struct {
	Intent    Intent
	Rewritten string // empty means no usable rewrite
	Domain    Domain
}

// Turn is one user/assistant exchange from the conversation history, owned
// by the history collaborator and read-only to the pipeline.
type Turn struct {
	User      string
	Assistant string
}

// Hit is one retrieved text chunk with its similarity distance and
// metadata. Lower distance means more relevant.
type Hit struct {
	ID         string
	Content    string
	Metadata   map[string]string
	Distance   float64
	Collection string
}

// RankedChunk is one context chunk after reranking and cap truncation,
// paired with the display label of its source document.
type RankedChunk struct {
	Content string
	Source  string
}

// Result is the terminal output of one pipeline run: the final answer text
// and the deduplicated, lexicographically sorted source titles.
type Result struct {
	Answer  string
	Sources []string
}

// CollectionInfo describes one document collection for the capabilities
// summary.
type CollectionInfo struct {
	Name             string
	DisplayName      string
	Topics           []string
	ExampleQuestions []string
}

// Role identifies the author of a chat message sent to the model.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one message in a model conversation.
type ChatMessage struct {
	Role    Role
	Content string
}
