package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
	"github.com/0xcro3dile/latentqa-go/internal/domain/ports"
)

// IngestUseCase builds the similarity index from prepared documents.
type IngestUseCase struct {
	embedder    ports.EmbeddingService
	vectorStore ports.VectorStore
	batchSize   int
	concurrency int
	logger      *slog.Logger
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(
	embedder ports.EmbeddingService,
	vectorStore ports.VectorStore,
	batchSize, concurrency int,
	logger *slog.Logger,
) *IngestUseCase {
	if batchSize <= 0 {
		batchSize = 32
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestUseCase{
		embedder:    embedder,
		vectorStore: vectorStore,
		batchSize:   batchSize,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Ingest embeds documents and stores them. Blank documents are skipped.
// Returns the number of documents stored.
func (uc *IngestUseCase) Ingest(ctx context.Context, docs []entities.Document) (int, error) {
	docs, err := uc.embed(ctx, docs)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	if err := uc.vectorStore.Store(ctx, docs); err != nil {
		return 0, fmt.Errorf("storing documents: %w", err)
	}

	uc.logger.InfoContext(ctx, "documents indexed", "count", len(docs))
	return len(docs), nil
}

// Rebuild embeds docs and then replaces the store contents with them.
// Nothing is removed unless every document was embedded.
func (uc *IngestUseCase) Rebuild(ctx context.Context, docs []entities.Document) (int, error) {
	docs, err := uc.embed(ctx, docs)
	if err != nil {
		return 0, err
	}

	if err := uc.vectorStore.Replace(ctx, docs); err != nil {
		return 0, fmt.Errorf("replacing documents: %w", err)
	}

	uc.logger.InfoContext(ctx, "index rebuilt", "count", len(docs))
	return len(docs), nil
}

// embed returns the non-blank docs with embeddings filled in.
func (uc *IngestUseCase) embed(ctx context.Context, docs []entities.Document) ([]entities.Document, error) {
	docs = nonBlank(docs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)

	for start := 0; start < len(docs); start += uc.batchSize {
		start := start
		end := min(start+uc.batchSize, len(docs))
		batch := docs[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, d := range batch {
				texts[i] = d.Content
			}

			embeddings, err := uc.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embedding documents %d-%d: %w", start, end, err)
			}
			if len(embeddings) != len(batch) {
				return fmt.Errorf("expected %d embeddings, got %d", len(batch), len(embeddings))
			}
			for i := range batch {
				batch[i].Embedding = embeddings[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// nonBlank returns a copy of docs without whitespace-only documents.
// The copy keeps embedding writes off the caller's slice.
func nonBlank(docs []entities.Document) []entities.Document {
	out := make([]entities.Document, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.Content) == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}
