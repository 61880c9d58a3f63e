package architect

import (
	"strings"

	"github.com/metalagman/foreman/internal/model"
)

func planPrompt(request, contextText string) string {
	var b strings.Builder
	b.WriteString("You are an architect agent that plans code changes.\n\n")
	b.WriteString("When planning:\n")
	b.WriteString("1. Understand what the user wants to accomplish.\n")
	b.WriteString("2. Reuse existing patterns from the provided context.\n")
	b.WriteString("3. Break the work into specific, implementable tasks.\n")
	b.WriteString("4. Each task modifies ONE file and has clear acceptance criteria.\n\n")
	b.WriteString("Output your plan as JSON:\n")
	b.WriteString(`{
  "tasks": [
    {
      "id": 1,
      "description": "what to do, human readable",
      "target_location": "path/to/file.py",
      "specification": "detailed instructions for implementation",
      "acceptance_criteria": ["criterion 1", "criterion 2"],
      "depends_on": []
    }
  ]
}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Keep each task small enough to implement in one pass.\n")
	b.WriteString("- Require type annotations and docstrings in every specification.\n")
	b.WriteString("- List depends_on task ids only when a task needs an earlier task's output.\n")
	b.WriteString("- Output ONLY valid JSON, no other text.\n\n")
	b.WriteString("Context from codebase:\n")
	b.WriteString(contextText)
	b.WriteString("\n\nUser request: ")
	b.WriteString(request)
	b.WriteString("\n\nCreate a detailed task plan:")
	return b.String()
}

func validatePrompt(task model.Task, impl model.Implementation) string {
	var b strings.Builder
	b.WriteString("You are an architect validating an implementation.\n\n")
	b.WriteString("Task: ")
	b.WriteString(task.Description)
	b.WriteString("\nSpecification: ")
	b.WriteString(task.Specification)
	b.WriteString("\nAcceptance criteria:\n")
	for _, criterion := range task.AcceptanceCriteria {
		b.WriteString("- ")
		b.WriteString(criterion)
		b.WriteString("\n")
	}
	if len(task.FeedbackHistory) > 0 {
		b.WriteString("\nFeedback from previous attempts:\n")
		for _, feedback := range task.FeedbackHistory {
			b.WriteString("- ")
			b.WriteString(feedback)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nImplementation:\n```\n")
	b.WriteString(impl.Code)
	b.WriteString("\n```\n\n")
	b.WriteString("Evaluate whether this implementation meets ALL acceptance criteria.\n\n")
	b.WriteString("Respond with JSON:\n")
	b.WriteString(`{"approved": true, "feedback": "detailed feedback explaining your decision"}`)
	b.WriteString("\n\nOutput ONLY valid JSON.")
	return b.String()
}
