// Package router classifies task text and routes it to the planning or
// implementation completion capability.
package router

import (
	"context"
	"strings"

	"github.com/metalagman/foreman/internal/llm"
	"github.com/rs/zerolog/log"
)

// TaskType is the closed classification enum. Classification is heuristic;
// callers tolerate misclassification as a quality issue, not an error.
type TaskType string

const (
	TaskPlanning     TaskType = "planning"
	TaskImplementing TaskType = "implementing"
	TaskReasoning    TaskType = "reasoning"
	TaskTesting      TaskType = "testing"
	TaskUnknown      TaskType = "unknown"
)

var (
	testingKeywords = []string{
		"test", "unit test", "coverage", "assert",
	}
	implementingKeywords = []string{
		"implement", "write", "code", "function", "def ",
		"class ", "add method", "generate code", "fix bug", "refactor",
	}
	planningKeywords = []string{
		"plan", "break down", "design", "architect", "organize",
		"structure", "outline", "strategy",
	}
	reasoningKeywords = []string{
		"explain", "why", "how does", "what is", "understand",
		"analyze", "evaluate", "compare", "describe",
	}
)

// Classify maps free text to a TaskType by keyword matching. Testing wins
// over implementing so "write a unit test" routes as a testing task.
func Classify(text string) TaskType {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, testingKeywords):
		return TaskTesting
	case containsAny(lower, implementingKeywords):
		return TaskImplementing
	case containsAny(lower, planningKeywords):
		return TaskPlanning
	case containsAny(lower, reasoningKeywords):
		return TaskReasoning
	default:
		return TaskUnknown
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Router holds the two completion capabilities and routes between them.
type Router struct {
	planning       llm.Completer
	implementation llm.Completer
}

// New constructs a router over the two capability handles.
func New(planning, implementation llm.Completer) *Router {
	return &Router{
		planning:       planning,
		implementation: implementation,
	}
}

// Route maps a TaskType to its completion capability. The mapping is fixed
// and total: implementing and testing go to the implementation model,
// everything else to the planning model.
func (r *Router) Route(t TaskType) llm.Completer {
	switch t {
	case TaskImplementing, TaskTesting:
		return r.implementation
	default:
		return r.planning
	}
}

// Process classifies, routes, and completes a request in one call.
func (r *Router) Process(ctx context.Context, request string) (string, error) {
	taskType := Classify(request)
	log.Debug().Str("task_type", string(taskType)).Msg("router: classified request")
	return r.Route(taskType).Complete(ctx, request)
}
