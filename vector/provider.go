// Package vector provides semantic search over the menu. The Provider
// interface hides the vector database; the only implementation talks to
// Pinecone, with embeddings generated by Pinecone's inference API so the
// index and the queries share one model.
package vector

import "context"

// Embedding input types. Queries and passages are embedded differently by
// the model; mixing them up quietly ruins recall.
const (
	InputQuery   = "query"
	InputPassage = "passage"
)

// Document is one indexable unit: the text that gets embedded plus the
// metadata stored alongside the vector.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Match is one search hit.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

// Provider is a vector index with built-in embedding.
type Provider interface {
	// Embed converts text to a vector. inputType is InputQuery or
	// InputPassage.
	Embed(ctx context.Context, text, inputType string) ([]float32, error)

	// Search returns the topK nearest documents, optionally restricted by
	// a metadata filter.
	Search(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]Match, error)

	// Upsert embeds and writes documents, returning how many were indexed.
	Upsert(ctx context.Context, docs []Document) (int, error)

	// DeleteAll clears the namespace, used before a full reindex.
	DeleteAll(ctx context.Context) error

	Close() error
}
