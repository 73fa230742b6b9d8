package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
)

// InMemoryStore keeps the whole index in memory and searches it by brute force.
// It can be persisted to and loaded from a JSON snapshot file.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs []entities.Document
	ids  map[string]int // docID -> position in docs
}

// NewInMemoryStore creates a new in-memory vector store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{ids: make(map[string]int)}
}

// Store saves documents with their embeddings. A document whose ID is
// already present replaces the old one in place.
func (s *InMemoryStore) Store(ctx context.Context, docs []entities.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range docs {
		if pos, ok := s.ids[d.ID]; ok && d.ID != "" {
			s.docs[pos] = d
			continue
		}
		s.ids[d.ID] = len(s.docs)
		s.docs = append(s.docs, d)
	}
	return nil
}

// Search finds the most similar documents to a query embedding.
func (s *InMemoryStore) Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return rankTopK(embedding, s.docs, topK), nil
}

// Clear removes all data from the store.
func (s *InMemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = nil
	s.ids = make(map[string]int)
	return nil
}

// Count returns the number of stored documents.
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.docs), nil
}

// Replace swaps the whole contents in one step. Readers see either the old
// or the new index, never a mix.
func (s *InMemoryStore) Replace(ctx context.Context, docs []entities.Document) error {
	s.swap(docs)
	return nil
}

func (s *InMemoryStore) swap(docs []entities.Document) {
	ids := make(map[string]int, len(docs))
	kept := make([]entities.Document, 0, len(docs))
	for _, d := range docs {
		if pos, ok := ids[d.ID]; ok && d.ID != "" {
			kept[pos] = d
			continue
		}
		ids[d.ID] = len(kept)
		kept = append(kept, d)
	}

	s.mu.Lock()
	s.docs = kept
	s.ids = ids
	s.mu.Unlock()
}

// LoadSnapshot replaces the store contents with the snapshot at path.
func (s *InMemoryStore) LoadSnapshot(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading snapshot: %w", err)
	}

	var docs []entities.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return 0, fmt.Errorf("decoding snapshot: %w", err)
	}

	s.swap(docs)
	return len(docs), nil
}

// SaveSnapshot writes the store contents to path. The file is written next
// to the target and renamed over it so watchers never see a partial file.
func (s *InMemoryStore) SaveSnapshot(path string) error {
	s.mu.RLock()
	data, err := json.Marshal(s.docs)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
