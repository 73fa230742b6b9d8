package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
	"github.com/0xcro3dile/latentqa-go/internal/domain/ports"
)

// Groq defaults. Groq speaks the OpenAI chat completions protocol.
const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "gemma2-9b-it"
)

// OpenAIChatAdapter implements ports.LLMService against any
// OpenAI-compatible chat completions endpoint.
type OpenAIChatAdapter struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIChatAdapter creates a chat adapter. Empty values fall back to Groq.
func NewOpenAIChatAdapter(baseURL, apiKey, model string, timeout time.Duration) *OpenAIChatAdapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &OpenAIChatAdapter{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

func (a *OpenAIChatAdapter) request(messages []entities.ChatMessage, stream bool) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: msgs,
		Stream:   stream,
	}
}

// Chat returns the first choice's content.
func (a *OpenAIChatAdapter) Chat(ctx context.Context, messages []entities.ChatMessage) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := a.client.CreateChatCompletion(ctx, a.request(messages, false))
	if err != nil {
		return "", fmt.Errorf("creating chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty chat response")
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatStream streams the reply. The final token has Done set.
func (a *OpenAIChatAdapter) ChatStream(ctx context.Context, messages []entities.ChatMessage) (<-chan ports.StreamToken, error) {
	cancel := context.CancelFunc(func() {})
	if a.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
	}

	stream, err := a.client.CreateChatCompletionStream(ctx, a.request(messages, true))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating chat completion stream: %w", err)
	}

	ch := make(chan ports.StreamToken, 100)

	go func() {
		defer close(ch)
		defer cancel()
		defer stream.Close()

		send := func(tok ports.StreamToken) bool {
			select {
			case ch <- tok:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				send(ports.StreamToken{Done: true})
				return
			}
			if err != nil {
				send(ports.StreamToken{Done: true, Error: err})
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if delta := resp.Choices[0].Delta.Content; delta != "" {
				if !send(ports.StreamToken{Content: delta}) {
					return
				}
			}
		}
	}()

	return ch, nil
}
