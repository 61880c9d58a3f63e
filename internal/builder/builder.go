// Package builder implements the code-implementing role. The builder turns
// one task specification into an implementation, grounded on retrieved code
// examples and every prior failure reason for the task.
package builder

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/metalagman/foreman/internal/knowledge"
	"github.com/metalagman/foreman/internal/llm"
	"github.com/metalagman/foreman/internal/model"
	"github.com/rs/zerolog/log"
)

const (
	defaultTopK     = 3
	defaultMinScore = 0.05

	// exampleSnippetBytes truncates each retrieved example in the prompt.
	exampleSnippetBytes = 600
)

// Builder produces implementations for planned tasks.
type Builder struct {
	completer llm.Completer
	source    knowledge.Source
	topK      int
	minScore  float64
	genTests  bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithRetrieval overrides the retrieval depth and relevance threshold.
func WithRetrieval(topK int, minScore float64) Option {
	return func(b *Builder) {
		if topK > 0 {
			b.topK = topK
		}
		b.minScore = minScore
	}
}

// WithSelfTests enables generation of self-tests in a second completion.
func WithSelfTests(enabled bool) Option {
	return func(b *Builder) {
		b.genTests = enabled
	}
}

// New constructs a Builder over the implementation completer and a knowledge
// source.
func New(completer llm.Completer, source knowledge.Source, opts ...Option) *Builder {
	b := &Builder{
		completer: completer,
		source:    source,
		topK:      defaultTopK,
		minScore:  defaultMinScore,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Implement produces an implementation for one task. It always returns an
// Implementation object, possibly with empty code when the model fails;
// detecting bad code is the harness's and architect's job, not the
// builder's. Attempt numbers are assigned by the caller.
func (b *Builder) Implement(ctx context.Context, task model.Task) model.Implementation {
	examples := b.gatherExamples(ctx, task)
	prompt := implementPrompt(task, examples)

	code, err := b.completer.Complete(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Int("task_id", task.ID).Msg("builder: completion failed")
		code = ""
	}
	code = StripFences(code)

	impl := model.Implementation{
		TaskID: task.ID,
		Code:   code,
	}

	if b.genTests && code != "" {
		impl.SelfTests = b.generateTests(ctx, task, code)
	}
	return impl
}

// gatherExamples queries the knowledge source for code matching the task
// specification. Retrieval failures degrade to building without examples.
func (b *Builder) gatherExamples(ctx context.Context, task model.Task) string {
	query := "code example: " + task.Specification
	if strings.TrimSpace(task.Specification) == "" {
		query = "code example: " + task.Description
	}

	chunks, err := b.source.Query(ctx, query, b.topK)
	if err != nil {
		log.Warn().Err(err).Int("task_id", task.ID).Msg("builder: knowledge query failed")
		return "No examples available."
	}

	var parts []string
	for _, chunk := range chunks {
		if chunk.Score < b.minScore {
			continue
		}
		parts = append(parts, "# From "+chunk.Locator+":\n"+truncate(chunk.Text, exampleSnippetBytes))
	}
	if len(parts) == 0 {
		return "No examples available."
	}
	return strings.Join(parts, "\n\n")
}

// generateTests asks the implementation model for self-tests. Any failure
// degrades to "no tests"; evaluation cannot penalize what was not produced.
func (b *Builder) generateTests(ctx context.Context, task model.Task, code string) string {
	tests, err := b.completer.Complete(ctx, testsPrompt(task, code))
	if err != nil {
		log.Debug().Err(err).Int("task_id", task.ID).Msg("builder: self-test generation failed")
		return ""
	}
	return StripFences(tests)
}

// StripFences removes a surrounding markdown code fence from model output.
// The interior is returned verbatim.
func StripFences(code string) string {
	code = strings.TrimSpace(code)
	if !strings.HasPrefix(code, "```") {
		return code
	}

	lines := strings.Split(code, "\n")
	lines = lines[1:] // drop ```python or bare ```
	if n := len(lines); n > 0 && strings.HasPrefix(strings.TrimSpace(lines[n-1]), "```") {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	// Back up to a rune boundary so the cut never leaves invalid UTF-8.
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}
