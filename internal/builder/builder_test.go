package builder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalagman/foreman/internal/knowledge"
	"github.com/metalagman/foreman/internal/llm"
	"github.com/metalagman/foreman/internal/model"
)

func sampleTask() model.Task {
	return model.Task{
		ID:                 1,
		Description:        "add a slugify helper",
		TargetLocation:     "util/text.py",
		Specification:      "write slugify(title: str) -> str",
		AcceptanceCriteria: []string{"lowercase output"},
	}
}

func TestImplementReturnsStrippedCode(t *testing.T) {
	t.Parallel()

	completer := llm.CompleterFunc(func(_ context.Context, _ string) (string, error) {
		return "```python\ndef slugify(title: str) -> str:\n    \"\"\"Slugify.\"\"\"\n    return title.lower()\n```", nil
	})

	b := New(completer, knowledge.NewIndex(nil))
	impl := b.Implement(context.Background(), sampleTask())

	assert.Equal(t, 1, impl.TaskID)
	assert.Contains(t, impl.Code, "def slugify")
	assert.NotContains(t, impl.Code, "```")
	assert.Empty(t, impl.SelfTests)
}

func TestImplementCompletionFailureYieldsEmptyCode(t *testing.T) {
	t.Parallel()

	completer := llm.CompleterFunc(func(_ context.Context, _ string) (string, error) {
		return "", errors.New("model unavailable")
	})

	b := New(completer, knowledge.NewIndex(nil))
	impl := b.Implement(context.Background(), sampleTask())

	// The builder never errors; empty code is the harness's problem.
	assert.Equal(t, 1, impl.TaskID)
	assert.Empty(t, impl.Code)
}

func TestImplementPromptCarriesFeedbackHistory(t *testing.T) {
	t.Parallel()

	var prompt string
	completer := llm.CompleterFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "def slugify(title: str) -> str:\n    return title", nil
	})

	task := sampleTask()
	task.FeedbackHistory = []string{"missing docstring", "no type annotations found on functions"}

	New(completer, knowledge.NewIndex(nil)).Implement(context.Background(), task)

	assert.Contains(t, prompt, "missing docstring")
	assert.Contains(t, prompt, "no type annotations found on functions")
	assert.Contains(t, prompt, "lowercase output")
	// Oldest feedback first.
	assert.Less(t, strings.Index(prompt, "missing docstring"), strings.Index(prompt, "no type annotations"))
}

func TestWithSelfTestsGeneratesSecondCompletion(t *testing.T) {
	t.Parallel()

	calls := 0
	completer := llm.CompleterFunc(func(_ context.Context, _ string) (string, error) {
		calls++
		if calls == 1 {
			return "def slugify(title: str) -> str:\n    return title.lower()", nil
		}
		return "```python\ndef test_slugify() -> None:\n    assert slugify(\"A\") == \"a\"\n```", nil
	})

	b := New(completer, knowledge.NewIndex(nil), WithSelfTests(true))
	impl := b.Implement(context.Background(), sampleTask())

	assert.Equal(t, 2, calls)
	assert.Contains(t, impl.SelfTests, "def test_slugify")
	assert.NotContains(t, impl.SelfTests, "```")
}

func TestSelfTestFailureDegradesToNoTests(t *testing.T) {
	t.Parallel()

	calls := 0
	completer := llm.CompleterFunc(func(_ context.Context, _ string) (string, error) {
		calls++
		if calls == 1 {
			return "def slugify(title: str) -> str:\n    return title.lower()", nil
		}
		return "", errors.New("model unavailable")
	})

	b := New(completer, knowledge.NewIndex(nil), WithSelfTests(true))
	impl := b.Implement(context.Background(), sampleTask())

	assert.NotEmpty(t, impl.Code)
	assert.Empty(t, impl.SelfTests)
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", "def f(): pass", "def f(): pass"},
		{"python fence", "```python\ndef f(): pass\n```", "def f(): pass"},
		{"bare fence", "```\ndef f(): pass\n```", "def f(): pass"},
		{"unclosed fence", "```python\ndef f(): pass", "def f(): pass"},
		{"surrounding whitespace", "  ```python\ndef f(): pass\n```  ", "def f(): pass"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestGatherExamplesFallsBackToDescription(t *testing.T) {
	t.Parallel()

	index := knowledge.NewIndex([]knowledge.Document{
		{Locator: "util/text.py", Text: "def slugify(title: str) -> str:\n    \"\"\"Slugify a title.\"\"\""},
	})
	var prompt string
	completer := llm.CompleterFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "def f(): pass", nil
	})

	task := sampleTask()
	task.Specification = "  "
	New(completer, index).Implement(context.Background(), task)

	require.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "util/text.py")
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	t.Parallel()

	text := "код" // 6 bytes, 3 runes
	for limit := 0; limit <= len(text); limit++ {
		got := truncate(text, limit)
		assert.True(t, utf8.ValidString(got), "limit %d produced %q", limit, got)
		assert.LessOrEqual(t, len(got), limit)
	}
	assert.Equal(t, text, truncate(text, len(text)+1))
}
