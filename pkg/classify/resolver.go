package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/caldrin/answerhub/internal/models"
	"github.com/caldrin/answerhub/internal/types"
	"github.com/caldrin/answerhub/pkg/jsonx"
)

// ModelVerdict is the validated model-based verdict: a (possibly UNSURE)
// intent and an optional rewritten question.
type ModelVerdict struct {
	Intent    models.Intent
	Rewritten string
}

// resolverTurns bounds how much history the model-based classifier sees.
const resolverTurns = 5

const intentPrompt = `You classify user questions for a document Q&A assistant.

Conversation so far:
%s

Current question: %s

Respond with a single JSON object:
{"intent": "<one of FOLLOWUP_ELABORATE, NEW_QUESTION, CHITCHAT, CAPABILITIES, EXPORT_TABLE, ANALYSIS, UNSURE>", "rewritten_question": "<the question rewritten as a self-contained query, or null>"}

Return only the JSON object.`

// acceptedIntents are the only intents trusted from the model; anything
// else collapses to UNSURE.
var acceptedIntents = map[models.Intent]bool{
	models.IntentFollowupElaborate: true,
	models.IntentNewQuestion:       true,
	models.IntentChitchat:          true,
	models.IntentCapabilities:      true,
	models.IntentUnsure:            true,
	models.IntentExportTable:       true,
	models.IntentAnalysis:          true,
}

// critiquePrefixes mark rewrites that judge the prior answer instead of
// restating the question; such rewrites are discarded.
var critiquePrefixes = []string{
	"why was your answer",
	"your previous answer",
	"the assistant",
}

// Resolver merges the lexical verdict with a model-based intent and
// rewrite classification.
type Resolver struct {
	model  types.ChatModel
	logger zerolog.Logger
}

// NewResolver returns a Resolver backed by the given model.
func NewResolver(model types.ChatModel, logger zerolog.Logger) *Resolver {
	return &Resolver{model: model, logger: logger}
}

// Resolve classifies the question. Lexically terminal questions (chitchat,
// capabilities) skip the model call. Model failures are swallowed: the
// verdict degrades to UNSURE and the lexical result carries the request.
func (r *Resolver) Resolve(ctx context.Context, question string, history []models.Turn) models.Classification {
	lex := Analyze(question)
	if lex.Terminal {
		return models.Classification{Intent: lex.Intent, Domain: models.DomainGeneral}
	}
	verdict := r.classifyWithModel(ctx, question, history)
	return Merge(lex, verdict, len(history) > 0)
}

func (r *Resolver) classifyWithModel(ctx context.Context, question string, history []models.Turn) ModelVerdict {
	unsure := ModelVerdict{Intent: models.IntentUnsure}

	raw, err := r.model.Invoke(ctx, []models.ChatMessage{
		{Role: models.RoleUser, Content: fmt.Sprintf(intentPrompt, formatHistory(history), question)},
	})
	if err != nil {
		r.logger.Warn().Err(err).Msg("intent classification call failed, using lexical result")
		return unsure
	}

	var parsed struct {
		Intent    string  `json:"intent"`
		Rewritten *string `json:"rewritten_question"`
	}
	if err := jsonx.Unmarshal(raw, &parsed); err != nil {
		r.logger.Warn().Err(err).Str("response", truncate(raw, 200)).
			Msg("intent classification unparsable, using lexical result")
		return unsure
	}

	intent := models.Intent(strings.ToUpper(strings.TrimSpace(parsed.Intent)))
	if !acceptedIntents[intent] {
		intent = models.IntentUnsure
	}

	rewritten := ""
	if parsed.Rewritten != nil {
		rewritten = strings.TrimSpace(*parsed.Rewritten)
	}
	if rewritten != "" && isCritique(rewritten) {
		rewritten = ""
	}

	return ModelVerdict{Intent: intent, Rewritten: rewritten}
}

// Merge applies the precedence table between the lexical and model
// verdicts. Only FOLLOWUP_ELABORATE, NEW_QUESTION, CHITCHAT and
// CAPABILITIES from the model override the cheap intent, and a follow-up
// with no rewrite and no prior history collapses back to the cheap intent.
func Merge(lex LexicalResult, verdict ModelVerdict, hasHistory bool) models.Classification {
	intent := lex.Intent
	switch verdict.Intent {
	case models.IntentFollowupElaborate:
		if verdict.Rewritten != "" || hasHistory {
			intent = verdict.Intent
		}
	case models.IntentNewQuestion, models.IntentChitchat, models.IntentCapabilities:
		intent = verdict.Intent
	}

	domain := lex.Domain
	if intent == models.IntentChitchat || intent == models.IntentCapabilities {
		domain = models.DomainGeneral
	}

	return models.Classification{Intent: intent, Rewritten: verdict.Rewritten, Domain: domain}
}

func formatHistory(history []models.Turn) string {
	if len(history) == 0 {
		return "no prior conversation"
	}
	if len(history) > resolverTurns {
		history = history[len(history)-resolverTurns:]
	}
	var b strings.Builder
	for _, t := range history {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", t.User, t.Assistant)
	}
	return strings.TrimRight(b.String(), "\n")
}

func isCritique(rewritten string) bool {
	lower := strings.ToLower(rewritten)
	for _, p := range critiquePrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
