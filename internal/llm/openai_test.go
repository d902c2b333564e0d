package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ai-garden/internal/domain"
)

func openAIModel(apiKey string) ModelConfig {
	return ModelConfig{ID: "gpt-4o", Provider: ProviderOpenAI, APIKey: apiKey}
}

func TestOpenAIStreamer_StreamChat(t *testing.T) {
	var gotAuth string
	var gotBody chatCompletionsRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hola\"}}]}\n\n")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\" mundo\"}}]}\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	streamer := NewOpenAIStreamer(server.URL, nil)
	stream, err := streamer.StreamChat(context.Background(), openAIModel("sk-test-key-123456"), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hola"},
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	defer stream.Close()

	got := collectDeltas(t, stream)
	if strings.Join(got, "") != "Hola mundo" {
		t.Fatalf("unexpected deltas: %v", got)
	}

	if gotAuth != "Bearer sk-test-key-123456" {
		t.Errorf("unexpected Authorization header: %q", gotAuth)
	}
	if gotBody.Model != "gpt-4o" || !gotBody.Stream {
		t.Errorf("unexpected request body: %+v", gotBody)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Content != "hola" {
		t.Errorf("unexpected messages: %+v", gotBody.Messages)
	}
}

func TestOpenAIStreamer_AuthErrorMasksKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"invalid key"}}`)
	}))
	defer server.Close()

	const rawKey = "sk-live-secretsecret-abcd"
	streamer := NewOpenAIStreamer(server.URL, nil)
	_, err := streamer.StreamChat(context.Background(), openAIModel(rawKey), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hola"},
	})
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if strings.Contains(err.Error(), "secretsecret") {
		t.Fatalf("raw key leaked: %v", err)
	}
}

func TestOpenAIStreamer_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	streamer := NewOpenAIStreamer(server.URL, nil)
	_, err := streamer.StreamChat(context.Background(), openAIModel("sk-test-key-123456"), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hola"},
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestOpenAIStreamer_UpstreamFailureKeepsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream on fire")
	}))
	defer server.Close()

	streamer := NewOpenAIStreamer(server.URL, nil)
	_, err := streamer.StreamChat(context.Background(), openAIModel("sk-test-key-123456"), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hola"},
	})
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.Status != http.StatusBadGateway {
		t.Fatalf("unexpected status: %d", provErr.Status)
	}
}
