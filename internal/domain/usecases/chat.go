package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
	"github.com/0xcro3dile/latentqa-go/internal/domain/ports"
)

// EmptyQueryReply is returned for blank queries instead of calling the model.
const EmptyQueryReply = "Please enter a valid query."

var (
	// ErrCompletion wraps failures of the remote completion API.
	ErrCompletion = errors.New("completion failed")

	// ErrEmptySession is returned when a request has no session identifier.
	ErrEmptySession = errors.New("session id is required")
)

// ChatOptions tunes the chat pipeline.
type ChatOptions struct {
	TokenLimit    int  // Word budget for retrieved context
	HistoryWindow int  // Prior messages replayed to the model
	Dedupe        bool // Drop repeated documents across lookups
}

// ChatUseCase answers questions about the show for a session.
type ChatUseCase struct {
	index    ports.SimilarityIndex
	llm      ports.LLMService
	sessions ports.SessionStore
	opts     ChatOptions
	logger   *slog.Logger
}

// NewChatUseCase creates a ChatUseCase with injected dependencies.
func NewChatUseCase(
	index ports.SimilarityIndex,
	llm ports.LLMService,
	sessions ports.SessionStore,
	opts ChatOptions,
	logger *slog.Logger,
) *ChatUseCase {
	if opts.TokenLimit <= 0 {
		opts.TokenLimit = 1000
	}
	if opts.HistoryWindow < 0 {
		opts.HistoryWindow = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatUseCase{
		index:    index,
		llm:      llm,
		sessions: sessions,
		opts:     opts,
		logger:   logger,
	}
}

// Prepared is the outcome of the retrieval half of the pipeline.
type Prepared struct {
	Intent   entities.Intent
	Sources  []entities.Document // documents included in Context
	Context  string
	Messages []entities.ChatMessage
}

// Prepare classifies the query, retrieves and trims context and assembles
// the message list for the model. It does not touch session history.
func (uc *ChatUseCase) Prepare(ctx context.Context, req *entities.ChatRequest) (*Prepared, error) {
	intent := Classify(req.Query)

	docs, err := Retrieve(ctx, uc.index, req.Query, intent.TopK, intent.Episode)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}
	if uc.opts.Dedupe {
		docs = Dedupe(docs)
	}
	sources := WithinBudget(docs, uc.opts.TokenLimit)
	retrieved := LimitTokens(sources, uc.opts.TokenLimit)

	uc.logger.DebugContext(ctx, "query analyzed",
		"session_id", req.SessionID,
		"intent", intent.Type,
		"episode", intent.Episode,
		"top_k", intent.TopK,
		"documents", len(docs),
		"sources", len(sources),
		"context_words", len(strings.Fields(retrieved)))

	messages := []entities.ChatMessage{{Role: entities.RoleSystem, Content: SystemPrompt}}
	messages = append(messages, uc.recentHistory(ctx, req.SessionID)...)
	messages = append(messages, entities.ChatMessage{
		Role:    entities.RoleUser,
		Content: buildUserPrompt(req.Query, retrieved),
	})

	return &Prepared{Intent: intent, Sources: sources, Context: retrieved, Messages: messages}, nil
}

// Chat runs the full pipeline and records the exchange in the session.
func (uc *ChatUseCase) Chat(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, error) {
	if req.SessionID == "" {
		return nil, ErrEmptySession
	}
	if strings.TrimSpace(req.Query) == "" {
		return &entities.ChatResponse{Answer: EmptyQueryReply}, nil
	}

	p, err := uc.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	answer, err := uc.llm.Chat(ctx, p.Messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	uc.sessions.Append(ctx, req.SessionID,
		entities.ChatMessage{Role: entities.RoleUser, Content: req.Query},
		entities.ChatMessage{Role: entities.RoleAssistant, Content: answer},
	)

	return &entities.ChatResponse{
		Answer:  answer,
		Intent:  p.Intent,
		Sources: p.Sources,
	}, nil
}

// ChatStream runs the pipeline and streams the answer. History is recorded
// once the stream finishes without error.
func (uc *ChatUseCase) ChatStream(ctx context.Context, req *entities.ChatRequest) (<-chan ports.StreamToken, error) {
	if req.SessionID == "" {
		return nil, ErrEmptySession
	}
	if strings.TrimSpace(req.Query) == "" {
		ch := make(chan ports.StreamToken, 1)
		ch <- ports.StreamToken{Content: EmptyQueryReply, Done: true}
		close(ch)
		return ch, nil
	}

	p, err := uc.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	upstream, err := uc.llm.ChatStream(ctx, p.Messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	out := make(chan ports.StreamToken, 16)
	go func() {
		defer close(out)

		send := func(tok ports.StreamToken) bool {
			select {
			case out <- tok:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var answer strings.Builder
		for tok := range upstream {
			if tok.Error != nil {
				tok.Error = fmt.Errorf("%w: %w", ErrCompletion, tok.Error)
				send(tok)
				return
			}
			answer.WriteString(tok.Content)
			if tok.Done {
				uc.sessions.Append(ctx, req.SessionID,
					entities.ChatMessage{Role: entities.RoleUser, Content: req.Query},
					entities.ChatMessage{Role: entities.RoleAssistant, Content: answer.String()},
				)
			}
			if !send(tok) || tok.Done {
				return
			}
		}
	}()
	return out, nil
}

// EndSession drops a session's history.
func (uc *ChatUseCase) EndSession(ctx context.Context, sessionID string) bool {
	return uc.sessions.Evict(ctx, sessionID)
}

func (uc *ChatUseCase) recentHistory(ctx context.Context, sessionID string) []entities.ChatMessage {
	history := uc.sessions.Get(ctx, sessionID)
	if len(history) > uc.opts.HistoryWindow {
		history = history[len(history)-uc.opts.HistoryWindow:]
	}
	return history
}
