package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalagman/foreman/internal/model"
)

const goodCode = `def add(a: int, b: int) -> int:
    """Return the sum of a and b."""
    return a + b
`

const unannotatedCode = `def add(a, b):
    """Return the sum of a and b."""
    return a + b
`

const brokenCode = `def f(:
    return 1
`

func checkByName(t *testing.T, checks []model.CheckResult, name string) model.CheckResult {
	t.Helper()
	for _, c := range checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not found in %v", name, checks)
	return model.CheckResult{}
}

func TestRunPassesCleanImplementation(t *testing.T) {
	t.Parallel()

	h := New()
	result := h.Run(context.Background(), model.Implementation{TaskID: 1, Code: goodCode})

	require.True(t, result.Validation.Passed)
	assert.True(t, result.Evaluation.Passed)
	assert.Equal(t, "no tests to run", result.Evaluation.Reason)
	assert.True(t, result.OverallPassed)
	assert.Equal(t, len(goodCode), result.Observation.CodeLength)
}

func TestRunEmptyCode(t *testing.T) {
	t.Parallel()

	h := New()
	result := h.Run(context.Background(), model.Implementation{TaskID: 1})

	require.False(t, result.Validation.Passed)
	require.Len(t, result.Validation.Checks, 1)
	assert.Equal(t, "has_code", result.Validation.Checks[0].Name)
	assert.False(t, result.Evaluation.Passed)
	assert.Equal(t, "skipped: validation failed", result.Evaluation.Reason)
	assert.False(t, result.OverallPassed)
}

func TestRunBrokenSyntaxReportsAllChecks(t *testing.T) {
	t.Parallel()

	h := New()
	result := h.Run(context.Background(), model.Implementation{TaskID: 1, Code: brokenCode})

	require.False(t, result.Validation.Passed)
	// A syntax failure must not suppress the remaining checks.
	assert.True(t, checkByName(t, result.Validation.Checks, "has_code").Passed)
	assert.False(t, checkByName(t, result.Validation.Checks, "syntax").Passed)
	checkByName(t, result.Validation.Checks, "type_annotations")
	checkByName(t, result.Validation.Checks, "docstrings")
	assert.False(t, result.OverallPassed)
}

func TestRunUnannotatedFunctionFails(t *testing.T) {
	t.Parallel()

	h := New()
	result := h.Run(context.Background(), model.Implementation{TaskID: 1, Code: unannotatedCode})

	require.False(t, result.Validation.Passed)
	annotations := checkByName(t, result.Validation.Checks, "type_annotations")
	assert.False(t, annotations.Passed)
	assert.Contains(t, annotations.Message, "add")
	assert.True(t, checkByName(t, result.Validation.Checks, "syntax").Passed)
}

func TestRunDeterministic(t *testing.T) {
	t.Parallel()

	h := New()
	impl := model.Implementation{TaskID: 3, Code: unannotatedCode}

	first := h.Run(context.Background(), impl)
	second := h.Run(context.Background(), impl)

	assert.Equal(t, first.Validation, second.Validation)
	assert.Equal(t, first.Evaluation, second.Evaluation)
	assert.Equal(t, first.OverallPassed, second.OverallPassed)
}

func TestEvaluateSelfTests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		selfTests  string
		wantPassed bool
		wantReason string
	}{
		{
			name:       "valid tests without sandbox",
			selfTests:  "def test_add() -> None:\n    \"\"\"Check addition.\"\"\"\n    assert add(1, 2) == 3\n",
			wantPassed: true,
			wantReason: "self-tests syntactically valid; no execution sandbox",
		},
		{
			name:       "broken tests",
			selfTests:  "def test_add(:\n    pass\n",
			wantPassed: false,
			wantReason: "self-test syntax error: syntax errors detected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := New()
			result := h.Run(context.Background(), model.Implementation{
				TaskID:    1,
				Code:      goodCode,
				SelfTests: tt.selfTests,
			})

			require.True(t, result.Validation.Passed)
			assert.Equal(t, tt.wantPassed, result.Evaluation.Passed)
			assert.Equal(t, tt.wantReason, result.Evaluation.Reason)
		})
	}
}

type fakeSandbox struct {
	err error
}

func (s fakeSandbox) Run(_ context.Context, _, _ string) error { return s.err }

func TestSandboxOutcomeDecidesEvaluation(t *testing.T) {
	t.Parallel()

	impl := model.Implementation{
		TaskID:    1,
		Code:      goodCode,
		SelfTests: "def test_ok() -> None:\n    \"\"\"Trivial.\"\"\"\n    assert True\n",
	}

	pass := New(WithSandbox(fakeSandbox{})).Run(context.Background(), impl)
	assert.True(t, pass.Evaluation.Passed)
	assert.Equal(t, "self-tests passed", pass.Evaluation.Reason)

	fail := New(WithSandbox(fakeSandbox{err: errors.New("assertion failed")})).Run(context.Background(), impl)
	assert.False(t, fail.Evaluation.Passed)
	assert.Contains(t, fail.Evaluation.Reason, "assertion failed")
	assert.False(t, fail.OverallPassed)
}

func TestCheckDocstringsMissing(t *testing.T) {
	t.Parallel()

	code := "def add(a: int, b: int) -> int:\n    return a + b\n"
	checks := runChecks(context.Background(), code)

	doc := checkByName(t, checks, "docstrings")
	assert.False(t, doc.Passed)
	assert.Contains(t, doc.Message, "add")
}

func TestCheckDocstringsAnyFunctionSuffices(t *testing.T) {
	t.Parallel()

	code := "def add(a: int, b: int) -> int:\n" +
		"    \"\"\"Return the sum of a and b.\"\"\"\n" +
		"    return a + b\n" +
		"\n" +
		"def sub(a: int, b: int) -> int:\n" +
		"    return a - b\n"
	checks := runChecks(context.Background(), code)

	doc := checkByName(t, checks, "docstrings")
	assert.True(t, doc.Passed)
	assert.Contains(t, doc.Message, "1 of 2")
}

func TestChecksNoFunctionsVacuouslyPass(t *testing.T) {
	t.Parallel()

	checks := runChecks(context.Background(), "x = 1\ny = x + 2\n")

	assert.True(t, checkByName(t, checks, "syntax").Passed)
	assert.True(t, checkByName(t, checks, "type_annotations").Passed)
	assert.True(t, checkByName(t, checks, "docstrings").Passed)
}
