package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIChat_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk_test", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","model":"gemma2-9b-it",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Hi!"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	adapter := NewOpenAIChatAdapter(server.URL, "gsk_test", "", time.Second)
	answer, err := adapter.Chat(context.Background(), testMessages)
	require.NoError(t, err)
	assert.Equal(t, "Hi!", answer)
}

func TestOpenAIChat_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","choices":[]}`))
	}))
	defer server.Close()

	_, err := NewOpenAIChatAdapter(server.URL, "k", "m", 0).Chat(context.Background(), testMessages)
	assert.Error(t, err)
}

func TestOpenAIChat_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer server.Close()

	_, err := NewOpenAIChatAdapter(server.URL, "k", "m", 0).Chat(context.Background(), testMessages)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestOpenAIChat_ChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"model\":\"m\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	ch, err := NewOpenAIChatAdapter(server.URL, "k", "m", time.Second).ChatStream(context.Background(), testMessages)
	require.NoError(t, err)

	var got strings.Builder
	done := false
	for tok := range ch {
		require.NoError(t, tok.Error)
		got.WriteString(tok.Content)
		done = tok.Done
	}
	assert.True(t, done)
	assert.Equal(t, "Hello", got.String())
}

func TestOpenAIChat_Defaults(t *testing.T) {
	adapter := NewOpenAIChatAdapter("", "", "", 0)
	assert.Equal(t, DefaultModel, adapter.model)
}
