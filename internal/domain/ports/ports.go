// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
)

// SimilarityIndex is the read-only document index consumed by retrieval.
// Implementations must be safe for concurrent readers.
type SimilarityIndex interface {
	// Lookup returns up to k documents nearest to probe, most similar first.
	Lookup(ctx context.Context, probe string, k int) ([]entities.Document, error)
}

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMService generates chat completions from a language model.
type LLMService interface {
	// Chat returns the assistant reply for the given conversation.
	Chat(ctx context.Context, messages []entities.ChatMessage) (string, error)

	// ChatStream returns the reply token by token.
	ChatStream(ctx context.Context, messages []entities.ChatMessage) (<-chan StreamToken, error)
}

// VectorStore persists and queries document embeddings.
type VectorStore interface {
	// Store saves documents with their embeddings.
	Store(ctx context.Context, docs []entities.Document) error

	// Search finds the most similar documents to a query embedding.
	Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error)

	// Clear removes all data from the store.
	Clear(ctx context.Context) error

	// Replace swaps the whole contents for docs in one step. On error the
	// previous contents are left in place.
	Replace(ctx context.Context, docs []entities.Document) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
}

// SessionStore keeps per-session conversation history.
type SessionStore interface {
	// Get returns the history of a session, oldest first. Unknown sessions yield nil.
	Get(ctx context.Context, sessionID string) []entities.ChatMessage

	// Append adds messages to the end of a session's history.
	Append(ctx context.Context, sessionID string, msgs ...entities.ChatMessage)

	// Evict drops a session. It reports whether the session existed.
	Evict(ctx context.Context, sessionID string) bool

	// Len returns the number of live sessions.
	Len() int
}

// StreamToken represents a single token in a streaming LLM response.
type StreamToken struct {
	Content string
	Done    bool
	Error   error
}

// FileWatcher monitors a file for changes.
type FileWatcher interface {
	// Watch starts monitoring the file and emits events.
	Watch(ctx context.Context, path string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
