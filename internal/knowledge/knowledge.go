// Package knowledge defines the retrieval capability consumed by the
// architect and builder roles, plus a small corpus-backed implementation for
// local use. The heavy lifting of chunking, embedding, and vector index
// persistence belongs to an external retrieval service; this package only
// fixes the contract.
package knowledge

import "context"

// Chunk is one ranked retrieval result. Score is in the cosine-similarity
// range [-1, 1]; callers apply their own relevance threshold.
type Chunk struct {
	Text    string
	Score   float64
	Locator string
}

// Source answers ranked retrieval queries.
type Source interface {
	Query(ctx context.Context, text string, topK int) ([]Chunk, error)
}
