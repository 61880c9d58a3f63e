package knowledge

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"
)

// Index is an in-memory bag-of-words index over a loaded corpus. Scores are
// the cosine similarity of binary term vectors, so they land in [0, 1] and
// satisfy the Source contract. Queries are deterministic: ties break by
// locator.
type Index struct {
	docs  []Document
	terms []map[string]struct{}
}

// NewIndex builds an index over the given documents.
func NewIndex(docs []Document) *Index {
	idx := &Index{
		docs:  docs,
		terms: make([]map[string]struct{}, len(docs)),
	}
	for i, doc := range docs {
		idx.terms[i] = termSet(doc.Text)
	}
	return idx
}

// Len reports the number of indexed documents.
func (idx *Index) Len() int {
	return len(idx.docs)
}

// Query returns up to topK chunks ranked by similarity to text. Documents
// with zero overlap are omitted.
func (idx *Index) Query(ctx context.Context, text string, topK int) ([]Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, nil
	}

	query := termSet(text)
	if len(query) == 0 {
		return nil, nil
	}

	chunks := make([]Chunk, 0, len(idx.docs))
	for i, doc := range idx.docs {
		score := cosine(query, idx.terms[i])
		if score <= 0 {
			continue
		}
		chunks = append(chunks, Chunk{
			Text:    doc.Text,
			Score:   score,
			Locator: doc.Locator,
		})
	}

	sort.Slice(chunks, func(a, b int) bool {
		if chunks[a].Score != chunks[b].Score {
			return chunks[a].Score > chunks[b].Score
		}
		return chunks[a].Locator < chunks[b].Locator
	})
	if len(chunks) > topK {
		chunks = chunks[:topK]
	}
	return chunks, nil
}

func cosine(query, doc map[string]struct{}) float64 {
	if len(query) == 0 || len(doc) == 0 {
		return 0
	}
	overlap := 0
	for term := range query {
		if _, ok := doc[term]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}
	return float64(overlap) / math.Sqrt(float64(len(query))*float64(len(doc)))
}

func termSet(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	set := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if len(field) < 2 {
			continue
		}
		set[field] = struct{}{}
	}
	return set
}
