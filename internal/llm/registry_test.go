package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-garden/internal/domain"
)

func testRegistry(mock *MockStreamer) *Registry {
	models := []ModelConfig{
		{ID: "gpt-4o", Provider: ProviderOpenAI, APIKey: "sk-test-key-123456"},
		{ID: "gpt-sin-clave", Provider: ProviderOpenAI, APIKey: ""},
	}
	return NewRegistry(nil, models, map[string]Streamer{
		ProviderOpenAI: mock,
	})
}

func TestRegistry_ResolveUnknownModel(t *testing.T) {
	reg := testRegistry(&MockStreamer{})
	_, err := reg.Resolve("gpt-inventado")
	if !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
	if !strings.Contains(err.Error(), "gpt-inventado") {
		t.Fatalf("error should name the model: %v", err)
	}
}

func TestRegistry_StreamMissingKey(t *testing.T) {
	mock := &MockStreamer{}
	reg := testRegistry(mock)

	_, err := reg.Stream(context.Background(), "gpt-sin-clave", []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hola"},
	})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if mock.LastModel.ID != "" {
		t.Fatalf("streamer should not be called, got model %q", mock.LastModel.ID)
	}
}

func TestRegistry_StreamDispatchesToProvider(t *testing.T) {
	mock := &MockStreamer{Deltas: []string{"hola", " che"}}
	reg := testRegistry(mock)

	messages := []domain.ChatMessage{{Role: domain.RoleUser, Content: "hola"}}
	stream, err := reg.Stream(context.Background(), "gpt-4o", messages)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	got := collectDeltas(t, stream)
	if strings.Join(got, "") != "hola che" {
		t.Fatalf("unexpected deltas: %v", got)
	}
	if mock.LastModel.ID != "gpt-4o" || mock.LastModel.APIKey != "sk-test-key-123456" {
		t.Fatalf("unexpected model config: %+v", mock.LastModel)
	}
	if len(mock.LastMessages) != 1 || mock.LastMessages[0].Content != "hola" {
		t.Fatalf("unexpected messages: %+v", mock.LastMessages)
	}
}
