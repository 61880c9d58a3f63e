// Package model defines the shared domain types for a foreman run.
package model

import "time"

// Task is one unit of planned work produced by the architect.
type Task struct {
	ID                 int      `json:"id"`
	Description        string   `json:"description"`
	TargetLocation     string   `json:"target_location"`
	Specification      string   `json:"specification"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`

	// DependsOn lists IDs of tasks that must complete first. Empty for
	// independent tasks; only consulted when parallel execution is enabled.
	DependsOn []int `json:"depends_on,omitempty"`

	// FeedbackHistory accumulates diagnostics across retry attempts. It is
	// append-only and owned by the coordinator while the task is processed.
	FeedbackHistory []string `json:"feedback_history,omitempty"`
}

// Plan is the ordered task list for one request.
type Plan struct {
	RequestSummary string   `json:"request_summary"`
	ContextUsed    []string `json:"context_used,omitempty"`
	Tasks          []Task   `json:"tasks"`
}

// Implementation is the builder's output for one task attempt. A fresh value
// is produced on every attempt; earlier attempts are retained only in logs.
type Implementation struct {
	TaskID        int    `json:"task_id"`
	Code          string `json:"code"`
	SelfTests     string `json:"self_tests,omitempty"`
	AttemptNumber int    `json:"attempt_number"`
}

// CheckResult is one named mechanical check from the validate phase.
type CheckResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// Observation captures the implementation verbatim, without interpretation.
type Observation struct {
	Code       string    `json:"code"`
	SelfTests  string    `json:"self_tests,omitempty"`
	CodeLength int       `json:"code_length"`
	CapturedAt time.Time `json:"captured_at"`
}

// Validation is the deterministic check battery over the observed code.
type Validation struct {
	Checks []CheckResult `json:"checks"`
	Passed bool          `json:"passed"`
}

// Evaluation is the behavioral phase over the self-tests.
type Evaluation struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// OVEResult is the observe/validate/evaluate outcome for one implementation.
type OVEResult struct {
	Observation   Observation `json:"observation"`
	Validation    Validation  `json:"validation"`
	Evaluation    Evaluation  `json:"evaluation"`
	OverallPassed bool        `json:"overall_passed"`
}

// ArchitectValidation is the architect's semantic verdict on an
// implementation against the task's acceptance criteria.
type ArchitectValidation struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback"`
}

// TaskResult is the terminal record for one task. Description and
// TargetLocation are copied from the planned task so results stay readable
// without the plan at hand.
type TaskResult struct {
	TaskID         int            `json:"task_id"`
	Description    string         `json:"description,omitempty"`
	TargetLocation string         `json:"target_location,omitempty"`
	Success        bool           `json:"success"`
	AttemptsUsed   int            `json:"attempts_used"`
	Implementation Implementation `json:"implementation"`
	FailureReason  string         `json:"failure_reason,omitempty"`
}

// RunSummary aggregates all task results for one request.
type RunSummary struct {
	Request         string       `json:"request"`
	TotalTasks      int          `json:"total_tasks"`
	SuccessfulTasks int          `json:"successful_tasks"`
	FailedTasks     int          `json:"failed_tasks"`
	Results         []TaskResult `json:"results"`
	OverallSuccess  bool         `json:"overall_success"`
}

// NewRunSummary computes the aggregate counters from per-task results.
// OverallSuccess holds iff no task failed.
func NewRunSummary(request string, results []TaskResult) RunSummary {
	summary := RunSummary{
		Request:    request,
		TotalTasks: len(results),
		Results:    results,
	}
	for _, res := range results {
		if res.Success {
			summary.SuccessfulTasks++
		} else {
			summary.FailedTasks++
		}
	}
	summary.OverallSuccess = summary.FailedTasks == 0
	return summary
}
