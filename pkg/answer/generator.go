// Package answer assembles ranked context and produces the final answer
// through a draft, critique, and single conditional refine pass.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/caldrin/answerhub/internal/models"
	"github.com/caldrin/answerhub/internal/types"
)

// generatorTurns bounds how much history rides along in the draft prompt.
const generatorTurns = 2

// critiqueContextLimit bounds the context shown to the critique call.
const critiqueContextLimit = 10000

const draftSystemPrompt = `You are a knowledge-base assistant answering questions over a tenant's documents.

Rules:
- Ground every statement in the provided context.
- If the context does not cover something, say so instead of guessing.
- Be concise and direct.

Question intent: %s
Topic domain: %s`

const draftUserPrompt = `Context from the document collection:
%s

%sQuestion: %s`

const critiquePrompt = `You review answers from a document Q&A assistant.

Question: %s

Answer: %s

Context the answer had to work with (may be truncated):
%s

Reply with the single word GOOD if the answer is grounded, complete, and on
topic, or BAD if it is not.`

const refinePrompt = `Rewrite the answer below so that:
- every factual or numeric statement is grounded in the context,
- missing data is explicitly flagged rather than invented,
- the question is answered as fully as the context allows.

Question: %s

Context:
%s

Current answer: %s

Return only the improved answer text, with no commentary about the rewrite.`

// Input carries everything the generator needs for one answer.
type Input struct {
	Question         string // effective, possibly rewritten
	OriginalQuestion string
	Intent           models.Intent
	Domain           models.Domain
	Chunks           []models.RankedChunk
	History          []models.Turn
	PreviousAnswer   string
}

// Generator produces the final answer text. Draft, critique, and refine
// errors all surface to the caller; this is the one stage whose failures
// the pipeline reports instead of swallowing.
type Generator struct {
	model  types.ChatModel
	logger zerolog.Logger
}

// NewGenerator returns a Generator backed by the given model.
func NewGenerator(model types.ChatModel, logger zerolog.Logger) *Generator {
	return &Generator{model: model, logger: logger}
}

// Generate drafts an answer, critiques it against the original question,
// and refines it at most once when the critique comes back BAD.
func (g *Generator) Generate(ctx context.Context, in Input) (string, error) {
	contextText := joinChunks(in.Chunks)

	draft, err := g.model.Invoke(ctx, g.draftMessages(in, contextText))
	if err != nil {
		return "", fmt.Errorf("draft answer: %w", err)
	}

	critiqueContext := contextText
	if len(critiqueContext) > critiqueContextLimit {
		critiqueContext = critiqueContext[:critiqueContextLimit]
	}
	verdict, err := g.model.Invoke(ctx, []models.ChatMessage{
		{Role: models.RoleUser, Content: fmt.Sprintf(critiquePrompt, in.OriginalQuestion, draft, critiqueContext)},
	})
	if err != nil {
		return "", fmt.Errorf("critique answer: %w", err)
	}
	// Models often wrap the verdict in prose, so look for the token rather
	// than comparing the whole response.
	if !strings.Contains(strings.ToUpper(verdict), "BAD") {
		return draft, nil
	}

	g.logger.Debug().Msg("critique flagged draft, refining once")
	refined, err := g.model.Invoke(ctx, []models.ChatMessage{
		{Role: models.RoleUser, Content: fmt.Sprintf(refinePrompt, in.Question, contextText, draft)},
	})
	if err != nil {
		return "", fmt.Errorf("refine answer: %w", err)
	}
	if strings.TrimSpace(refined) == "" {
		return draft, nil
	}
	return refined, nil
}

func (g *Generator) draftMessages(in Input, contextText string) []models.ChatMessage {
	msgs := []models.ChatMessage{
		{Role: models.RoleSystem, Content: fmt.Sprintf(draftSystemPrompt, in.Intent, in.Domain)},
	}

	history := in.History
	if len(history) > generatorTurns {
		history = history[len(history)-generatorTurns:]
	}
	for _, t := range history {
		msgs = append(msgs,
			models.ChatMessage{Role: models.RoleUser, Content: t.User},
			models.ChatMessage{Role: models.RoleAssistant, Content: t.Assistant},
		)
	}

	continuity := ""
	if in.PreviousAnswer != "" {
		continuity = fmt.Sprintf("Your previous answer, for continuity:\n%s\n\n", in.PreviousAnswer)
	}
	msgs = append(msgs, models.ChatMessage{
		Role:    models.RoleUser,
		Content: fmt.Sprintf(draftUserPrompt, contextText, continuity, in.Question),
	})
	return msgs
}

func joinChunks(chunks []models.RankedChunk) string {
	if len(chunks) == 0 {
		return "(no documents matched)"
	}
	var b strings.Builder
	for _, c := range chunks {
		fmt.Fprintf(&b, "Source: %s\n%s\n\n", c.Source, c.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
