package usecases

import (
	"context"
	"errors"
	"sync"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
	"github.com/0xcro3dile/latentqa-go/internal/domain/ports"
)

// mockEmbedder implements ports.EmbeddingService for testing
type mockEmbedder struct {
	mu      sync.Mutex
	embedFn func(text string) ([]float32, error)
	texts   []string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		emb, err := m.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = emb
	}
	return result, nil
}

// mockVectorStore implements ports.VectorStore for testing
type mockVectorStore struct {
	mu        sync.Mutex
	docs      []entities.Document
	storeFn   func(docs []entities.Document) error
	searchErr error
	cleared   bool
	replaced  bool
}

func (m *mockVectorStore) Store(ctx context.Context, docs []entities.Document) error {
	if m.storeFn != nil {
		return m.storeFn(docs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, docs...)
	return nil
}

func (m *mockVectorStore) Search(ctx context.Context, emb []float32, topK int) ([]entities.QueryResult, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var results []entities.QueryResult
	for i, d := range m.docs {
		if i >= topK {
			break
		}
		results = append(results, entities.QueryResult{Document: d, Score: 0.9})
	}
	return results, nil
}

func (m *mockVectorStore) Clear(ctx context.Context) error {
	m.docs = nil
	m.cleared = true
	return nil
}

func (m *mockVectorStore) Replace(ctx context.Context, docs []entities.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append([]entities.Document(nil), docs...)
	m.replaced = true
	return nil
}

func (m *mockVectorStore) Count(ctx context.Context) (int, error) {
	return len(m.docs), nil
}

// mockLLM implements ports.LLMService for testing
type mockLLM struct {
	response string
	err      error
	tokens   []string
	received [][]entities.ChatMessage
}

func (m *mockLLM) Chat(ctx context.Context, messages []entities.ChatMessage) (string, error) {
	m.received = append(m.received, messages)
	if m.err != nil {
		return "", m.err
	}
	if m.response != "" {
		return m.response, nil
	}
	return "mocked answer", nil
}

func (m *mockLLM) ChatStream(ctx context.Context, messages []entities.ChatMessage) (<-chan ports.StreamToken, error) {
	m.received = append(m.received, messages)
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan ports.StreamToken, len(m.tokens)+1)
	go func() {
		defer close(ch)
		for _, tok := range m.tokens {
			ch <- ports.StreamToken{Content: tok}
		}
		ch <- ports.StreamToken{Done: true}
	}()
	return ch, nil
}

// memorySessions implements ports.SessionStore for testing
type memorySessions struct {
	mu       sync.Mutex
	sessions map[string][]entities.ChatMessage
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[string][]entities.ChatMessage)}
}

func (s *memorySessions) Get(ctx context.Context, id string) []entities.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.ChatMessage(nil), s.sessions[id]...)
}

func (s *memorySessions) Append(ctx context.Context, id string, msgs ...entities.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = append(s.sessions[id], msgs...)
}

func (s *memorySessions) Evict(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func (s *memorySessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

var errBoom = errors.New("boom")
