// Package llm provides chat completion adapters.
// Clean Architecture: Adapters implementing ports.LLMService.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
	"github.com/0xcro3dile/latentqa-go/internal/domain/ports"
)

// OllamaChatAdapter implements ports.LLMService using the Ollama chat API.
type OllamaChatAdapter struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaChatAdapter creates a new Ollama LLM adapter.
func NewOllamaChatAdapter(baseURL, model string, timeout time.Duration) *OllamaChatAdapter {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	if timeout <= 0 {
		timeout = 300 * time.Second // Longer timeout for streaming
	}
	return &OllamaChatAdapter{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ollamaChatRequest is the Ollama chat API request.
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

// ollamaChatResponse is one Ollama chat API response object. Streaming
// responses are newline delimited sequences of these.
type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

// Chat returns the assistant reply for the conversation.
func (a *OllamaChatAdapter) Chat(ctx context.Context, messages []entities.ChatMessage) (string, error) {
	resp, err := a.post(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if chatResp.Error != "" {
		return "", fmt.Errorf("Ollama error: %s", chatResp.Error)
	}

	return chatResp.Message.Content, nil
}

// ChatStream streams the reply via Ollama's streaming API.
func (a *OllamaChatAdapter) ChatStream(ctx context.Context, messages []entities.ChatMessage) (<-chan ports.StreamToken, error) {
	resp, err := a.post(ctx, messages, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan ports.StreamToken, 100)

	go func() {
		defer close(ch)
		defer resp.Body.Close()

		send := func(tok ports.StreamToken) bool {
			select {
			case ch <- tok:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var chunk ollamaChatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue // Skip malformed lines
			}
			if chunk.Error != "" {
				send(ports.StreamToken{Done: true, Error: fmt.Errorf("Ollama error: %s", chunk.Error)})
				return
			}

			if !send(ports.StreamToken{Content: chunk.Message.Content, Done: chunk.Done}) || chunk.Done {
				return
			}
		}

		err := scanner.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		send(ports.StreamToken{Done: true, Error: err})
	}()

	return ch, nil
}

func (a *OllamaChatAdapter) post(ctx context.Context, messages []entities.ChatMessage, stream bool) (*http.Response, error) {
	reqBody := ollamaChatRequest{
		Model:    a.model,
		Messages: make([]ollamaMessage, len(messages)),
		Stream:   stream,
	}
	for i, m := range messages {
		reqBody.Messages[i] = ollamaMessage{Role: m.Role, Content: m.Content}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Ollama: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}
	return resp, nil
}
