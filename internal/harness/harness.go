// Package harness implements the observe/validate/evaluate check pipeline
// over builder output. The pipeline is mechanical: it makes no model calls,
// so results are fast and reproducible for a given implementation.
package harness

import (
	"context"
	"time"

	"github.com/metalagman/foreman/internal/model"
	"github.com/rs/zerolog/log"
)

// Sandbox executes self-tests against an implementation. No sandbox ships
// with foreman; deployments that have one plug it in via WithSandbox.
type Sandbox interface {
	Run(ctx context.Context, code, tests string) error
}

// Harness runs the three-phase check pipeline.
type Harness struct {
	sandbox Sandbox
}

// Option configures a Harness.
type Option func(*Harness)

// WithSandbox enables self-test execution during the evaluate phase.
func WithSandbox(sandbox Sandbox) Option {
	return func(h *Harness) {
		h.sandbox = sandbox
	}
}

// New constructs a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes the full pipeline. Each phase gates the next: evaluation is
// only attempted when validation passed.
func (h *Harness) Run(ctx context.Context, impl model.Implementation) model.OVEResult {
	observation := observe(impl)
	validation := validate(ctx, observation)
	evaluation := h.evaluate(ctx, observation, validation)

	result := model.OVEResult{
		Observation:   observation,
		Validation:    validation,
		Evaluation:    evaluation,
		OverallPassed: validation.Passed && evaluation.Passed,
	}

	log.Debug().
		Int("task_id", impl.TaskID).
		Int("attempt", impl.AttemptNumber).
		Bool("validation", validation.Passed).
		Bool("evaluation", evaluation.Passed).
		Bool("overall", result.OverallPassed).
		Msg("harness: run complete")

	return result
}

// observe captures the implementation verbatim. No transformation, no
// failure mode.
func observe(impl model.Implementation) model.Observation {
	return model.Observation{
		Code:       impl.Code,
		SelfTests:  impl.SelfTests,
		CodeLength: len(impl.Code),
		CapturedAt: time.Now().UTC(),
	}
}

// validate runs the deterministic check battery. A syntax failure does not
// stop the remaining checks; diagnostics report every failing check.
func validate(ctx context.Context, obs model.Observation) model.Validation {
	checks := runChecks(ctx, obs.Code)

	passed := true
	for _, check := range checks {
		if !check.Passed {
			passed = false
		}
	}
	return model.Validation{Checks: checks, Passed: passed}
}

// evaluate checks the self-tests. Absence of tests passes: evaluation cannot
// penalize what was not asked for.
func (h *Harness) evaluate(ctx context.Context, obs model.Observation, validation model.Validation) model.Evaluation {
	if !validation.Passed {
		return model.Evaluation{Passed: false, Reason: "skipped: validation failed"}
	}
	if obs.SelfTests == "" {
		return model.Evaluation{Passed: true, Reason: "no tests to run"}
	}

	if ok, detail := syntaxValid(ctx, obs.SelfTests); !ok {
		return model.Evaluation{Passed: false, Reason: "self-test syntax error: " + detail}
	}

	if h.sandbox == nil {
		return model.Evaluation{Passed: true, Reason: "self-tests syntactically valid; no execution sandbox"}
	}
	if err := h.sandbox.Run(ctx, obs.Code, obs.SelfTests); err != nil {
		return model.Evaluation{Passed: false, Reason: "self-tests failed: " + err.Error()}
	}
	return model.Evaluation{Passed: true, Reason: "self-tests passed"}
}
