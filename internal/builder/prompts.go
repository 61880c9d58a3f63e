package builder

import (
	"strings"

	"github.com/metalagman/foreman/internal/model"
)

func implementPrompt(task model.Task, examples string) string {
	var b strings.Builder
	b.WriteString("You are a builder agent that implements code.\n\n")
	b.WriteString("Code standards:\n")
	b.WriteString("- Type annotations on ALL function parameters and return types.\n")
	b.WriteString("- Docstrings for ALL functions and classes.\n")
	b.WriteString("- Follow patterns from the provided examples.\n")
	b.WriteString("- Clean, readable code with meaningful names.\n\n")
	b.WriteString("Output only the code implementation, no explanations or markdown fences.\n\n")
	b.WriteString("Examples from codebase:\n")
	b.WriteString(examples)
	b.WriteString("\n\nTask: ")
	b.WriteString(task.Description)
	b.WriteString("\nFile: ")
	b.WriteString(task.TargetLocation)
	b.WriteString("\nSpecification: ")
	b.WriteString(task.Specification)
	if len(task.AcceptanceCriteria) > 0 {
		b.WriteString("\n\nAcceptance criteria:\n")
		for _, criterion := range task.AcceptanceCriteria {
			b.WriteString("- ")
			b.WriteString(criterion)
			b.WriteString("\n")
		}
	}
	// Every retry sees every prior failure reason, not just the latest.
	if len(task.FeedbackHistory) > 0 {
		b.WriteString("\nPrevious attempts failed. Full history, oldest first:\n")
		for _, feedback := range task.FeedbackHistory {
			b.WriteString("- ")
			b.WriteString(feedback)
			b.WriteString("\n")
		}
		b.WriteString("Address every issue above and do not repeat a failed approach.\n")
	}
	b.WriteString("\nImplementation:")
	return b.String()
}

func testsPrompt(task model.Task, code string) string {
	var b strings.Builder
	b.WriteString("Write minimal tests for the following implementation.\n")
	b.WriteString("Output only test code, no explanations or markdown fences.\n\n")
	b.WriteString("Task: ")
	b.WriteString(task.Description)
	b.WriteString("\n\nImplementation:\n")
	b.WriteString(code)
	b.WriteString("\n\nTests:")
	return b.String()
}
