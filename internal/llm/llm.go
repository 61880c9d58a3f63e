// Package llm provides the text-completion capability consumed by the
// architect and builder roles.
package llm

import "context"

// Completer is a single-shot text completion capability. Callers are
// responsible for parsing structure out of the returned free text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
