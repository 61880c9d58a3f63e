package coordinator

import (
	"strings"

	"github.com/metalagman/foreman/internal/model"
)

// describeOVE flattens a failed check pipeline result into one feedback
// line. Every failing check is named; the builder's next attempt should not
// have to rediscover problems one at a time.
func describeOVE(result model.OVEResult) string {
	var parts []string
	for _, check := range result.Validation.Checks {
		if !check.Passed {
			parts = append(parts, check.Name+": "+check.Message)
		}
	}
	if !result.Evaluation.Passed {
		parts = append(parts, "evaluation: "+result.Evaluation.Reason)
	}
	if len(parts) == 0 {
		return "checks failed"
	}
	return strings.Join(parts, "; ")
}
