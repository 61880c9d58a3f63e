// Package architect implements the planning and validating role. The
// architect decomposes a request into tasks grounded on retrieved context,
// and judges builder implementations against acceptance criteria.
package architect

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
	defaultTopK     = 5
	defaultMinScore = 0.05

	// contextSnippetBytes truncates each retrieved chunk in the prompt.
	contextSnippetBytes = 800
)

// Architect plans change requests and validates implementations.
type Architect struct {
	completer llm.Completer
	source    knowledge.Source
	topK      int
	minScore  float64
}

// Option configures an Architect.
type Option func(*Architect)

// WithRetrieval overrides the retrieval depth and relevance threshold.
func WithRetrieval(topK int, minScore float64) Option {
	return func(a *Architect) {
		if topK > 0 {
			a.topK = topK
		}
		a.minScore = minScore
	}
}

// New constructs an Architect over the planning completer and a knowledge
// source.
func New(completer llm.Completer, source knowledge.Source, opts ...Option) *Architect {
	a := &Architect{
		completer: completer,
		source:    source,
		topK:      defaultTopK,
		minScore:  defaultMinScore,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Plan decomposes a request into an ordered task list. An empty request
// fails with model.ErrInvalidRequest; a response with zero usable tasks
// fails with model.ErrPlanningFailure. No partial plan is ever returned.
func (a *Architect) Plan(ctx context.Context, request string) (model.Plan, error) {
	if strings.TrimSpace(request) == "" {
		return model.Plan{}, model.ErrInvalidRequest
	}

	contextText, locators := a.gatherContext(ctx, request)
	prompt := planPrompt(request, contextText)

	response, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("architect: planning completion failed")
		return model.Plan{}, model.ErrPlanningFailure
	}

	tasks, err := parsePlan(response)
	if err != nil {
		log.Warn().Err(err).Msg("architect: plan response unusable")
		return model.Plan{}, model.ErrPlanningFailure
	}

	log.Info().Int("tasks", len(tasks)).Msg("architect: plan created")
	return model.Plan{
		RequestSummary: request,
		ContextUsed:    locators,
		Tasks:          tasks,
	}, nil
}

// Validate judges an implementation against the task's acceptance criteria.
// Empty code short-circuits to a disapproval without a completion call, and
// an unparsable model response becomes a disapproval rather than an error.
func (a *Architect) Validate(ctx context.Context, task model.Task, impl model.Implementation) (model.ArchitectValidation, error) {
	if strings.TrimSpace(impl.Code) == "" {
		return model.ArchitectValidation{
			Approved: false,
			Feedback: "empty implementation",
		}, nil
	}

	prompt := validatePrompt(task, impl)
	response, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return model.ArchitectValidation{}, err
	}

	verdict, ok := parseValidation(response)
	if !ok {
		log.Warn().Int("task_id", task.ID).Msg("architect: validation response unparsable")
		return model.ArchitectValidation{
			Approved: false,
			Feedback: "validation response unparsable",
		}, nil
	}
	return verdict, nil
}

// gatherContext queries the knowledge source with the request and one
// reformulation. Retrieval failures degrade to planning without context.
func (a *Architect) gatherContext(ctx context.Context, request string) (string, []string) {
	queries := []string{
		request,
		"existing code patterns for: " + request,
	}

	var parts []string
	var locators []string
	seen := make(map[string]struct{})

	for _, query := range queries {
		chunks, err := a.source.Query(ctx, query, a.topK)
		if err != nil {
			log.Warn().Err(err).Msg("architect: knowledge query failed")
			continue
		}
		for _, chunk := range chunks {
			if chunk.Score < a.minScore {
				continue
			}
			if _, ok := seen[chunk.Locator]; ok {
				continue
			}
			seen[chunk.Locator] = struct{}{}
			locators = append(locators, chunk.Locator)
			parts = append(parts, "File: "+chunk.Locator+"\n"+truncate(chunk.Text, contextSnippetBytes))
		}
	}

	if len(parts) == 0 {
		return "No context available.", nil
	}
	return strings.Join(parts, "\n\n---\n\n"), locators
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
