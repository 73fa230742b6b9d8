package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
)

var testMessages = []entities.ChatMessage{
	{Role: entities.RoleSystem, Content: "be brief"},
	{Role: entities.RoleUser, Content: "Hi"},
}

func TestOllamaChat_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream || len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": "Hello there!"},
			"done":    true,
		})
	}))
	defer server.Close()

	adapter := NewOllamaChatAdapter(server.URL, "test-model", 0)
	resp, err := adapter.Chat(context.Background(), testMessages)

	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if resp != "Hello there!" {
		t.Errorf("unexpected response: %s", resp)
	}
}

func TestOllamaChat_ChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Streaming response - newline delimited JSON
		w.Write([]byte(`{"message":{"role":"assistant","content":"Hello"},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"role":"assistant","content":" world"},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"role":"assistant","content":"!"},"done":true}` + "\n"))
	}))
	defer server.Close()

	adapter := NewOllamaChatAdapter(server.URL, "test", 0)
	ch, err := adapter.ChatStream(context.Background(), testMessages)

	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	var got strings.Builder
	done := false
	for token := range ch {
		if token.Error != nil {
			t.Fatalf("unexpected stream error: %v", token.Error)
		}
		got.WriteString(token.Content)
		done = token.Done
	}

	if !done {
		t.Error("last token should be done")
	}
	if got.String() != "Hello world!" {
		t.Errorf("unexpected stream content: %q", got.String())
	}
}

func TestOllamaChat_StreamTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"role":"assistant","content":"Hel"},"done":false}` + "\n"))
	}))
	defer server.Close()

	ch, err := NewOllamaChatAdapter(server.URL, "test", 0).ChatStream(context.Background(), testMessages)
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	var last error
	for token := range ch {
		last = token.Error
	}
	if last == nil {
		t.Error("a stream without a done marker should end with an error")
	}
}

func TestOllamaChat_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	adapter := NewOllamaChatAdapter(server.URL, "test", 0)
	if _, err := adapter.Chat(context.Background(), testMessages); err == nil {
		t.Error("should error on 404")
	}
	if _, err := adapter.ChatStream(context.Background(), testMessages); err == nil {
		t.Error("stream should error on 404")
	}
}

func TestOllamaChat_DefaultValues(t *testing.T) {
	adapter := NewOllamaChatAdapter("", "", 0)
	if adapter.baseURL != "http://localhost:11434" {
		t.Error("should default to localhost")
	}
	if adapter.model != "llama3.2" {
		t.Error("should default to llama3.2")
	}
}
