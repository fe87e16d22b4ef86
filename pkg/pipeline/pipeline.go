// Package pipeline runs the conversational answering flow: classify
// intent, build the effective query, retrieve and rerank context, generate
// an answer with one critique-and-refine pass, and stream the formatted
// result to the caller.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/caldrin/answerhub/internal/models"
	"github.com/caldrin/answerhub/internal/types"
	"github.com/caldrin/answerhub/pkg/answer"
	"github.com/caldrin/answerhub/pkg/classify"
	"github.com/caldrin/answerhub/pkg/query"
	"github.com/caldrin/answerhub/pkg/rerank"
	"github.com/caldrin/answerhub/pkg/retrieval"
	"github.com/caldrin/answerhub/pkg/stream"
)

// resolverHistoryTurns is the largest per-stage history bound; the
// pipeline fetches once and each stage slices what it needs.
const resolverHistoryTurns = 5

// queryHistoryTurns bounds the follow-up context in the effective query.
const queryHistoryTurns = 3

// chitchatReply is the fixed acknowledgment for greetings and thanks.
const chitchatReply = "You're welcome! Ask me anything about your documents whenever you're ready."

// Request identifies one question within a tenant's conversation.
type Request struct {
	Tenant         string
	User           string
	ConversationID string
	Question       string
	Collection     string // empty means all collections
	LastDocumentID string // last referenced document, if the caller tracks one
	TopK           int    // 0 means the configured default
}

// Reply exposes the answer as a lazy fragment stream plus the structured
// result, which becomes available once the stream is drained.
type Reply struct {
	// Fragments delivers answer text incrementally and is closed when the
	// run completes.
	Fragments <-chan string

	result models.Result
	done   chan struct{}
}

// Result blocks until the run completes and returns the final answer and
// sources. It is valid to call only after draining Fragments, or from a
// separate goroutine.
func (r *Reply) Result() models.Result {
	<-r.done
	return r.result
}

// Pipeline executes requests. Stages run strictly sequentially within one
// request; the Pipeline itself is safe for concurrent requests.
type Pipeline struct {
	resolver  *classify.Resolver
	retriever *retrieval.Orchestrator
	reranker  *rerank.Reranker
	generator *answer.Generator
	formatter *stream.Formatter
	store     types.VectorSearcher
	history   types.HistoryStore
	logger    zerolog.Logger
}

// New assembles a Pipeline from its stages and collaborators.
func New(
	resolver *classify.Resolver,
	retriever *retrieval.Orchestrator,
	reranker *rerank.Reranker,
	generator *answer.Generator,
	formatter *stream.Formatter,
	store types.VectorSearcher,
	history types.HistoryStore,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		resolver:  resolver,
		retriever: retriever,
		reranker:  reranker,
		generator: generator,
		formatter: formatter,
		store:     store,
		history:   history,
		logger:    logger,
	}
}

// Ask starts one run and returns immediately. The caller consumes
// Fragments; abandoning the context stops the stream cooperatively.
func (p *Pipeline) Ask(ctx context.Context, req Request) *Reply {
	// Unbuffered: a fragment is emitted only when the caller is consuming,
	// so an abandoned context stops the stream at the next fragment.
	frags := make(chan string)
	rep := &Reply{Fragments: frags, done: make(chan struct{})}

	go func() {
		defer close(rep.done)
		rep.result = p.run(ctx, req, frags)
		close(frags)
	}()

	return rep
}

// run executes the stages and returns the single Result for this request.
// Every branch, including failures, produces exactly one Result.
func (p *Pipeline) run(ctx context.Context, req Request, frags chan<- string) models.Result {
	emit := func(fragment string) error {
		select {
		case frags <- fragment:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	history, err := p.history.LastTurns(ctx, req.Tenant, req.User, resolverHistoryTurns, req.ConversationID)
	if err != nil {
		p.logger.Warn().Err(err).Msg("history lookup failed, continuing without context")
		history = nil
	}

	cls := p.resolver.Resolve(ctx, req.Question, history)
	p.logger.Debug().
		Str("intent", string(cls.Intent)).
		Str("domain", string(cls.Domain)).
		Msg("question classified")

	switch cls.Intent {
	case models.IntentChitchat:
		return p.finish(ctx, req, emit, chitchatReply, nil)
	case models.IntentCapabilities:
		return p.finish(ctx, req, emit, p.capabilitiesAnswer(ctx, req.Tenant), nil)
	}

	effective := req.Question
	if cls.Rewritten != "" {
		effective = cls.Rewritten
	}
	queryHistory := tail(history, queryHistoryTurns)
	queryText := query.Build(effective, cls.Intent, queryHistory)

	hits, err := p.retriever.Retrieve(ctx, retrieval.Request{
		Tenant:         req.Tenant,
		Collection:     req.Collection,
		Query:          queryText,
		RawQuestion:    req.Question,
		Intent:         cls.Intent,
		Domain:         cls.Domain,
		LastDocumentID: req.LastDocumentID,
		TopK:           req.TopK,
	})
	if err != nil {
		return p.problem(ctx, req, emit, err, nil)
	}
	if len(hits) == 0 {
		return p.finish(ctx, req, emit, retrieval.EmptyMessage(cls.Intent), nil)
	}

	ranked := p.reranker.Rank(ctx, effective, hits)
	if chunkCap := p.reranker.Cap(cls.Intent, cls.Domain, req.Question); len(ranked) > chunkCap {
		ranked = ranked[:chunkCap]
	}
	chunks, sources := answer.Assemble(ranked)

	previousAnswer := ""
	if len(history) > 0 {
		previousAnswer = history[len(history)-1].Assistant
	}
	raw, err := p.generator.Generate(ctx, answer.Input{
		Question:         effective,
		OriginalQuestion: req.Question,
		Intent:           cls.Intent,
		Domain:           cls.Domain,
		Chunks:           chunks,
		History:          history,
		PreviousAnswer:   previousAnswer,
	})
	if err != nil {
		return p.problem(ctx, req, emit, err, sources)
	}

	stored, persist := p.formatter.Format(ctx, raw, emit)
	result := models.Result{Answer: stored, Sources: sources}
	if persist {
		p.saveTurn(ctx, req, stored)
	}
	return result
}

// finish handles terminal branches that bypass generation: the message is
// emitted as a single fragment and stored as the answer.
func (p *Pipeline) finish(ctx context.Context, req Request, emit stream.EmitFunc, message string, sources []string) models.Result {
	if sources == nil {
		sources = []string{}
	}
	if err := emit(message); err != nil {
		return models.Result{Answer: message, Sources: sources}
	}
	p.saveTurn(ctx, req, message)
	return models.Result{Answer: message, Sources: sources}
}

// problem reports a generation-stage failure through the normal streaming
// channel; the caller never sees a transport-level error.
func (p *Pipeline) problem(ctx context.Context, req Request, emit stream.EmitFunc, cause error, sources []string) models.Result {
	p.logger.Error().Err(cause).Msg("answer generation failed")
	message := fmt.Sprintf("There was a temporary problem generating the answer (%v). Please try again in a moment.", cause)
	return p.finish(ctx, req, emit, message, sources)
}

func (p *Pipeline) capabilitiesAnswer(ctx context.Context, tenant string) string {
	infos, err := p.store.SummarizeCapabilities(ctx, tenant)
	if err != nil {
		p.logger.Warn().Err(err).Msg("capabilities summary failed")
		return "I answer questions about the documents in your workspace, but I could not load the collection list just now."
	}
	if len(infos) == 0 {
		return "I answer questions about your documents, but no collections have been set up in this workspace yet."
	}

	text := "I answer questions about the documents in your workspace. Here is what I can help with:\n"
	for _, info := range infos {
		line := "- " + info.DisplayName
		if len(info.Topics) > 0 {
			line += ": " + strings.Join(info.Topics, ", ")
		}
		text += line + "\n"
	}
	for _, info := range infos {
		if len(info.ExampleQuestions) > 0 {
			text += fmt.Sprintf("\nFor example, try: %q", info.ExampleQuestions[0])
			break
		}
	}
	return text
}

func (p *Pipeline) saveTurn(ctx context.Context, req Request, answerText string) {
	if err := p.history.SaveTurn(ctx, req.Tenant, req.User, req.Question, answerText, req.ConversationID); err != nil {
		p.logger.Warn().Err(err).Msg("failed to save conversation turn")
	}
}

func tail(turns []models.Turn, n int) []models.Turn {
	if len(turns) > n {
		return turns[len(turns)-n:]
	}
	return turns
}
