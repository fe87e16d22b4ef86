// Package stream converts the final raw answer into the fragment stream
// delivered to the caller, with a one-shot fallback when the formatting
// model misbehaves.
package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/caldrin/answerhub/internal/models"
	"github.com/caldrin/answerhub/internal/types"
)

const formatPrompt = `Format the following answer as clean markdown: headings only
where they help, short paragraphs, lists and tables where the content calls
for them. Do not add, remove, or reword any information.

%s`

// errCallerGone marks an emit failure: the consumer stopped accepting
// fragments, so the stream must stop immediately.
var errCallerGone = errors.New("stream: caller gone")

// EmitFunc forwards one text fragment to the caller. Returning a non-nil
// error means the caller is no longer consuming.
type EmitFunc func(fragment string) error

// Formatter streams a markdown rendering of the raw answer.
type Formatter struct {
	model  types.ChatModel
	logger zerolog.Logger
}

// NewFormatter returns a Formatter backed by the given model.
func NewFormatter(model types.ChatModel, logger zerolog.Logger) *Formatter {
	return &Formatter{model: model, logger: logger}
}

// Format streams the formatted answer through emit as fragments arrive and
// returns the text to store. persist is false only when the caller
// disconnected before any fragment went out; after the first forwarded
// fragment the accumulated partial text becomes the stored answer. Any
// model-side failure, including an empty stream, falls back to emitting
// the unformatted raw answer once.
func (f *Formatter) Format(ctx context.Context, raw string, emit EmitFunc) (stored string, persist bool) {
	var b strings.Builder
	emitted := 0

	err := f.model.Stream(ctx, []models.ChatMessage{
		{Role: models.RoleUser, Content: fmt.Sprintf(formatPrompt, raw)},
	}, func(_ context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		fragment := string(chunk)
		if err := emit(fragment); err != nil {
			return fmt.Errorf("%w: %v", errCallerGone, err)
		}
		emitted++
		b.WriteString(fragment)
		return nil
	})

	switch {
	case err == nil && emitted > 0:
		return b.String(), true
	case errors.Is(err, errCallerGone) || ctx.Err() != nil:
		return b.String(), emitted > 0
	}

	if err != nil {
		f.logger.Warn().Err(err).Msg("answer formatting failed, emitting raw answer")
	} else {
		f.logger.Warn().Msg("answer formatting produced no fragments, emitting raw answer")
	}
	if err := emit(raw); err != nil {
		return raw, false
	}
	return raw, true
}
