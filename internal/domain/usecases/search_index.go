package usecases

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
	"github.com/0xcro3dile/latentqa-go/internal/domain/ports"
)

// EmbeddingIndex is a ports.SimilarityIndex over a vector store.
// It embeds the probe text and returns the nearest documents.
type EmbeddingIndex struct {
	embedder    ports.EmbeddingService
	vectorStore ports.VectorStore
}

// NewEmbeddingIndex creates an EmbeddingIndex with injected dependencies.
func NewEmbeddingIndex(embedder ports.EmbeddingService, vectorStore ports.VectorStore) *EmbeddingIndex {
	return &EmbeddingIndex{embedder: embedder, vectorStore: vectorStore}
}

// Lookup implements ports.SimilarityIndex.
func (ix *EmbeddingIndex) Lookup(ctx context.Context, probe string, k int) ([]entities.Document, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "EmbeddingIndex.Lookup",
		trace.WithAttributes(attribute.String("index.probe", probe), attribute.Int("index.k", k)))
	defer span.End()

	if k <= 0 {
		return nil, nil
	}

	embedding, err := ix.embedder.Embed(ctx, probe)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("embedding probe: %w", err)
	}

	results, err := ix.vectorStore.Search(ctx, embedding, k)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("searching vectors: %w", err)
	}

	docs := make([]entities.Document, len(results))
	for i, r := range results {
		docs[i] = r.Document
	}
	return docs, nil
}

// Count reports how many documents back the index.
func (ix *EmbeddingIndex) Count(ctx context.Context) (int, error) {
	return ix.vectorStore.Count(ctx)
}
