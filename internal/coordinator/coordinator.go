// Package coordinator drives the plan/build/check/validate loop for one
// request. The coordinator owns the retry budget and the feedback history;
// the roles it orchestrates stay stateless between calls.
package coordinator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/metalagman/foreman/internal/model"
)

// DefaultMaxRetries bounds builder attempts per task.
const DefaultMaxRetries = 3

// ArchitectRole plans requests and judges implementations.
type ArchitectRole interface {
	Plan(ctx context.Context, request string) (model.Plan, error)
	Validate(ctx context.Context, task model.Task, impl model.Implementation) (model.ArchitectValidation, error)
}

// BuilderRole produces an implementation for one task attempt.
type BuilderRole interface {
	Implement(ctx context.Context, task model.Task) model.Implementation
}

// Checker runs the mechanical check pipeline over an implementation.
type Checker interface {
	Run(ctx context.Context, impl model.Implementation) model.OVEResult
}

// Event is one recorded step of a run.
type Event struct {
	Type    string `json:"type"`
	TaskID  int    `json:"task_id,omitempty"`
	Attempt int    `json:"attempt,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// EventSink receives run events. Sinks must not block; persistence errors
// are the sink's problem, not the coordinator's.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

// Coordinator executes requests end to end.
type Coordinator struct {
	architect   ArchitectRole
	builder     BuilderRole
	checker     Checker
	sink        EventSink
	maxRetries  int
	parallelism int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMaxRetries overrides the per-task attempt budget.
func WithMaxRetries(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithEventSink attaches a sink for run events.
func WithEventSink(sink EventSink) Option {
	return func(c *Coordinator) {
		c.sink = sink
	}
}

// WithParallelism enables concurrent task execution with at most n tasks in
// flight. Task dependencies still order execution. n <= 1 keeps the
// sequential path.
func WithParallelism(n int) Option {
	return func(c *Coordinator) {
		c.parallelism = n
	}
}

// New constructs a Coordinator over the three roles.
func New(architect ArchitectRole, builder BuilderRole, checker Checker, opts ...Option) *Coordinator {
	c := &Coordinator{
		architect:  architect,
		builder:    builder,
		checker:    checker,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProcessRequest plans the request and works through every task. Planning
// failures abort the whole run; task failures never do. The summary always
// covers every planned task, in plan order.
func (c *Coordinator) ProcessRequest(ctx context.Context, request string) (model.RunSummary, error) {
	plan, err := c.architect.Plan(ctx, request)
	if err != nil {
		return model.RunSummary{}, fmt.Errorf("plan request: %w", err)
	}

	c.emit(ctx, Event{Type: "plan_created", Detail: fmt.Sprintf("%d tasks", len(plan.Tasks))})
	log.Info().Int("tasks", len(plan.Tasks)).Msg("coordinator: plan accepted")

	var results []model.TaskResult
	if c.parallelism > 1 {
		results = c.executeParallel(ctx, plan.Tasks)
	} else {
		results = c.executeSequential(ctx, plan.Tasks)
	}

	summary := model.NewRunSummary(request, results)
	c.emit(ctx, Event{Type: "run_finished", Detail: fmt.Sprintf("%d/%d tasks succeeded", summary.SuccessfulTasks, summary.TotalTasks)})
	return summary, nil
}

func (c *Coordinator) executeSequential(ctx context.Context, tasks []model.Task) []model.TaskResult {
	results := make([]model.TaskResult, 0, len(tasks))
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			results = append(results, canceledResult(task, err))
			continue
		}
		results = append(results, c.processTask(ctx, task))
	}
	return results
}

// processTask runs the bounded attempt loop for one task. The task value is
// a copy; feedback accumulated here dies with the task's terminal result.
func (c *Coordinator) processTask(ctx context.Context, task model.Task) model.TaskResult {
	c.emit(ctx, Event{Type: "task_started", TaskID: task.ID})

	var lastImpl model.Implementation
	state := newTaskState()

	for state.phase == phaseAttempting {
		impl := c.builder.Implement(ctx, task)
		impl.AttemptNumber = state.attempt
		lastImpl = impl

		approved, feedback := c.judgeAttempt(ctx, task, impl)
		if !approved {
			task.FeedbackHistory = append(task.FeedbackHistory, feedback)
			c.emit(ctx, Event{Type: "attempt_failed", TaskID: task.ID, Attempt: state.attempt, Detail: feedback})
			log.Debug().Int("task_id", task.ID).Int("attempt", state.attempt).Str("feedback", feedback).Msg("coordinator: attempt failed")
		}
		state = state.advance(approved, c.maxRetries)
	}

	if state.phase == phaseSucceeded {
		c.emit(ctx, Event{Type: "task_succeeded", TaskID: task.ID, Attempt: lastImpl.AttemptNumber})
		log.Info().Int("task_id", task.ID).Int("attempts", lastImpl.AttemptNumber).Msg("coordinator: task succeeded")
		return model.TaskResult{
			TaskID:         task.ID,
			Description:    task.Description,
			TargetLocation: task.TargetLocation,
			Success:        true,
			AttemptsUsed:   lastImpl.AttemptNumber,
			Implementation: lastImpl,
		}
	}

	reason := "max retries exceeded"
	if n := len(task.FeedbackHistory); n > 0 {
		reason = "max retries exceeded; last feedback: " + task.FeedbackHistory[n-1]
	}
	c.emit(ctx, Event{Type: "task_failed", TaskID: task.ID, Detail: reason})
	log.Warn().Int("task_id", task.ID).Msg("coordinator: task exhausted retry budget")
	return model.TaskResult{
		TaskID:         task.ID,
		Description:    task.Description,
		TargetLocation: task.TargetLocation,
		Success:        false,
		AttemptsUsed:   c.maxRetries,
		Implementation: lastImpl,
		FailureReason:  reason,
	}
}

// judgeAttempt runs the check pipeline and, only when it passes, the
// architect's semantic validation. The returned feedback is non-empty iff
// the attempt was rejected.
func (c *Coordinator) judgeAttempt(ctx context.Context, task model.Task, impl model.Implementation) (bool, string) {
	ove := c.checker.Run(ctx, impl)
	if !ove.OverallPassed {
		return false, describeOVE(ove)
	}

	verdict, err := c.architect.Validate(ctx, task, impl)
	if err != nil {
		// A transient validation error burns the attempt like any other
		// rejection; the next attempt may succeed.
		return false, "validation error: " + err.Error()
	}
	if !verdict.Approved {
		feedback := verdict.Feedback
		if feedback == "" {
			feedback = "rejected without feedback"
		}
		return false, feedback
	}
	return true, ""
}

func (c *Coordinator) emit(ctx context.Context, event Event) {
	if c.sink != nil {
		c.sink.Emit(ctx, event)
	}
}

func canceledResult(task model.Task, err error) model.TaskResult {
	return model.TaskResult{
		TaskID:         task.ID,
		Description:    task.Description,
		TargetLocation: task.TargetLocation,
		Success:        false,
		FailureReason:  "run canceled: " + err.Error(),
	}
}
