package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/0xcro3dile/latentqa-go/internal/adapters/embedding"
	"github.com/0xcro3dile/latentqa-go/internal/adapters/llm"
	"github.com/0xcro3dile/latentqa-go/internal/adapters/vectordb"
	"github.com/0xcro3dile/latentqa-go/internal/domain/ports"
	"github.com/0xcro3dile/latentqa-go/internal/infrastructure/config"
)

// store is an opened vector store with its release func. memory is set for
// the snapshot-backed backend.
type store struct {
	ports.VectorStore
	memory *vectordb.InMemoryStore
	close  func() error
}

func openStore(ctx context.Context, cfg config.IndexConfig, logger *slog.Logger) (*store, error) {
	switch cfg.Backend {
	case "sqlite":
		s, err := vectordb.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &store{VectorStore: s, close: s.Close}, nil

	case "pgvector":
		s, err := vectordb.NewPGVectorStore(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &store{VectorStore: s, close: s.Close}, nil

	case "memory":
		s := vectordb.NewInMemoryStore()
		n, err := s.LoadSnapshot(cfg.Snapshot)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Warn("index snapshot not found, starting empty", "path", cfg.Snapshot)
		case err != nil:
			return nil, err
		default:
			logger.Info("index snapshot loaded", "path", cfg.Snapshot, "documents", n)
		}
		return &store{VectorStore: s, memory: s, close: func() error { return nil }}, nil

	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
}

func newEmbedder(cfg config.EmbeddingConfig, logger *slog.Logger) ports.EmbeddingService {
	if cfg.Provider == "openai" {
		return embedding.NewOpenAIAdapter(cfg.BaseURL, cfg.APIKey, cfg.Model)
	}
	return embedding.NewOllamaAdapter(cfg.BaseURL, cfg.Model, cfg.Concurrency, logger)
}

func newLLM(cfg config.LLMConfig) ports.LLMService {
	if cfg.Provider == "ollama" {
		return llm.NewOllamaChatAdapter(cfg.BaseURL, cfg.Model, cfg.Timeout)
	}
	return llm.NewOpenAIChatAdapter(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout)
}
