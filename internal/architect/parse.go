package architect

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/metalagman/foreman/internal/model"
	"github.com/xeipuuv/gojsonschema"
)

// Model output is untrusted text. Every response is schema-checked before
// structural parsing; anything malformed takes the explicit failure branch
// instead of crashing the loop.

const planSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "tasks": {
      "type": "array",
      "items": { "type": "object" }
    }
  },
  "required": ["tasks"]
}`

const validationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "approved": { "type": "boolean" },
    "feedback": { "type": "string" }
  },
  "required": ["approved", "feedback"]
}`

type planDoc struct {
	Tasks []taskDoc `json:"tasks"`
}

type taskDoc struct {
	ID                 int      `json:"id"`
	Description        string   `json:"description"`
	TargetLocation     string   `json:"target_location"`
	Specification      string   `json:"specification"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	DependsOn          []int    `json:"depends_on"`
}

// parsePlan extracts the task list from a planning response. Tasks missing a
// description, target location, specification, or acceptance criteria are
// dropped; zero surviving tasks is an error. Surviving tasks are renumbered
// 1..n in the order the model proposed them.
func parsePlan(response string) ([]model.Task, error) {
	raw, ok := extractJSON(response)
	if !ok {
		return nil, fmt.Errorf("plan response contains no JSON object")
	}
	if err := validateSchema(planSchema, raw); err != nil {
		return nil, err
	}

	var doc planDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse plan response: %w", err)
	}

	tasks := make([]model.Task, 0, len(doc.Tasks))
	for _, td := range doc.Tasks {
		if !usableTask(td) {
			continue
		}
		tasks = append(tasks, model.Task{
			ID:                 len(tasks) + 1,
			Description:        strings.TrimSpace(td.Description),
			TargetLocation:     strings.TrimSpace(td.TargetLocation),
			Specification:      strings.TrimSpace(td.Specification),
			AcceptanceCriteria: trimAll(td.AcceptanceCriteria),
			DependsOn:          td.DependsOn,
		})
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("plan response contains no usable tasks")
	}
	return tasks, nil
}

func usableTask(td taskDoc) bool {
	if strings.TrimSpace(td.Description) == "" ||
		strings.TrimSpace(td.TargetLocation) == "" ||
		strings.TrimSpace(td.Specification) == "" {
		return false
	}
	for _, c := range td.AcceptanceCriteria {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	return false
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseValidation extracts an {approved, feedback} pair from a validation
// response. The second return is false when the response is unusable.
func parseValidation(response string) (model.ArchitectValidation, bool) {
	raw, ok := extractJSON(response)
	if !ok {
		return model.ArchitectValidation{}, false
	}
	if err := validateSchema(validationSchema, raw); err != nil {
		return model.ArchitectValidation{}, false
	}

	var verdict model.ArchitectValidation
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return model.ArchitectValidation{}, false
	}
	return verdict, true
}

func validateSchema(schema string, doc []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("validate response schema: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, schemaErr := range result.Errors() {
			msgs = append(msgs, schemaErr.String())
		}
		return fmt.Errorf("response schema validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// extractJSON returns the first balanced top-level JSON object in text.
// Models often wrap JSON in prose or markdown fences; this tolerates both.
func extractJSON(text string) ([]byte, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := []byte(text[start : i+1])
				if json.Valid(candidate) {
					return candidate, true
				}
				return nil, false
			}
		}
	}
	return nil, false
}
