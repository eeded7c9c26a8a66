package vector

import (
	"context"
	"fmt"
	"sync"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
)

const upsertBatchSize = 100

// PineconeProvider implements Provider against a Pinecone serverless index.
// Embeddings go through the inference endpoint (see embedder.go), so query
// and passage vectors always come from the configured model.
type PineconeProvider struct {
	client    *pinecone.Client
	embedder  *InferenceEmbedder
	indexName string
	indexHost string
	namespace string

	mu   sync.Mutex
	conn *pinecone.IndexConnection
}

// NewPineconeProvider builds the provider. The index itself must already
// exist; create it in the Pinecone console with the configured dimension.
func NewPineconeProvider(cfg *config.VectorConfig) (*PineconeProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for Pinecone")
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	return &PineconeProvider{
		client:    client,
		embedder:  NewInferenceEmbedder(cfg),
		indexName: cfg.IndexName,
		indexHost: cfg.IndexHost,
		namespace: cfg.Namespace,
	}, nil
}

// indexConn returns the cached index connection, resolving the index host
// once. Configuring index_host skips the DescribeIndex round trip.
func (p *PineconeProvider) indexConn(ctx context.Context) (*pinecone.IndexConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		return p.conn, nil
	}

	host := p.indexHost
	if host == "" {
		index, err := p.client.DescribeIndex(ctx, p.indexName)
		if err != nil {
			return nil, fmt.Errorf("failed to describe index %s: %w", p.indexName, err)
		}
		host = index.Host
	}

	conn, err := p.client.Index(pinecone.NewIndexConnParams{
		Host:      host,
		Namespace: p.namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to index: %w", err)
	}

	p.conn = conn
	return conn, nil
}

// Embed generates an embedding via the inference endpoint.
func (p *PineconeProvider) Embed(ctx context.Context, text, inputType string) ([]float32, error) {
	return p.embedder.Embed(ctx, text, inputType)
}

// Search queries the index by vector.
func (p *PineconeProvider) Search(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]Match, error) {
	conn, err := p.indexConn(ctx)
	if err != nil {
		return nil, err
	}

	var metadataFilter *pinecone.MetadataFilter
	if len(filter) > 0 {
		metadataFilter, err = structpb.NewStruct(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to convert filter: %w", err)
		}
	}

	resp, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		MetadataFilter:  metadataFilter,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query Pinecone: %w", err)
	}

	matches := make([]Match, 0, len(resp.Matches))
	for _, scored := range resp.Matches {
		if scored.Vector == nil {
			continue
		}
		m := Match{
			ID:    scored.Vector.Id,
			Score: scored.Score,
		}
		if scored.Vector.Metadata != nil {
			m.Metadata = scored.Vector.Metadata.AsMap()
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Upsert embeds each document as a passage and writes vectors in batches.
func (p *PineconeProvider) Upsert(ctx context.Context, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	conn, err := p.indexConn(ctx)
	if err != nil {
		return 0, err
	}

	vectors := make([]*pinecone.Vector, 0, len(docs))
	for _, doc := range docs {
		values, err := p.embedder.Embed(ctx, doc.Text, InputPassage)
		if err != nil {
			return 0, fmt.Errorf("failed to embed document %s: %w", doc.ID, err)
		}

		var metadata *pinecone.Metadata
		if len(doc.Metadata) > 0 {
			metadata, err = structpb.NewStruct(doc.Metadata)
			if err != nil {
				return 0, fmt.Errorf("failed to convert metadata for %s: %w", doc.ID, err)
			}
		}

		vectors = append(vectors, &pinecone.Vector{
			Id:       doc.ID,
			Values:   values,
			Metadata: metadata,
		})
	}

	indexed := 0
	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(vectors) {
			end = len(vectors)
		}
		n, err := conn.UpsertVectors(ctx, vectors[start:end])
		if err != nil {
			return indexed, fmt.Errorf("failed to upsert vectors: %w", err)
		}
		indexed += int(n)
	}
	return indexed, nil
}

// DeleteAll clears the namespace.
func (p *PineconeProvider) DeleteAll(ctx context.Context) error {
	conn, err := p.indexConn(ctx)
	if err != nil {
		return err
	}
	if err := conn.DeleteAllVectorsInNamespace(ctx); err != nil {
		return fmt.Errorf("failed to clear namespace: %w", err)
	}
	return nil
}

// Close releases the index connection.
func (p *PineconeProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

var _ Provider = (*PineconeProvider)(nil)
