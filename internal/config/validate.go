package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

// Validate checks the raw bytes of a foreman config file against the
// embedded schema, before any decoding happens. Failures carry every
// violated constraint so a broken .foreman/config.json is fixable in one
// pass, with messages sorted for stable output.
func Validate(raw []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("foreman config: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		violations = append(violations, verr.String())
	}
	sort.Strings(violations)

	return fmt.Errorf("foreman config invalid: %s", strings.Join(violations, "; "))
}
