package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"ai-garden/internal/domain"
	"ai-garden/internal/llm"
	"ai-garden/internal/search"
)

type mockModelStreamer struct {
	deltas       []string
	err          error
	lastModel    string
	lastMessages []domain.ChatMessage
	calls        int
}

func (m *mockModelStreamer) Stream(_ context.Context, modelID string, messages []domain.ChatMessage) (llm.Stream, error) {
	m.calls++
	m.lastModel = modelID
	m.lastMessages = messages
	if m.err != nil {
		return nil, m.err
	}
	return llm.NewStaticStream(m.deltas...), nil
}

func TestChatService_MissingInput(t *testing.T) {
	models := &mockModelStreamer{}
	svc := NewChatService(zap.NewNop(), models, nil, nil)

	cases := []struct {
		name string
		req  ChatRequest
	}{
		{"no messages", ChatRequest{Model: "gpt-4o"}},
		{"no model", ChatRequest{Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "hola"}}}},
		{"blank model", ChatRequest{Model: "  ", Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "hola"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Chat(context.Background(), "", tc.req)
			if !errors.Is(err, ErrMissingInput) {
				t.Fatalf("expected ErrMissingInput, got %v", err)
			}
		})
	}
	if models.calls != 0 {
		t.Fatalf("no dispatch expected, got %d calls", models.calls)
	}
}

func TestChatService_DispatchWithoutSearch(t *testing.T) {
	models := &mockModelStreamer{deltas: []string{"hola"}}
	svc := NewChatService(zap.NewNop(), models, nil, nil)

	req := ChatRequest{
		Model:    "gpt-4o",
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "hola"}},
	}
	stream, err := svc.Chat(context.Background(), "user-1", req)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	stream.Close()

	if models.lastModel != "gpt-4o" {
		t.Errorf("unexpected model: %q", models.lastModel)
	}
	if models.lastMessages[0].Content != "hola" {
		t.Errorf("unexpected message: %+v", models.lastMessages[0])
	}
}

func TestChatService_WebSearchRewritesCopyNotOriginal(t *testing.T) {
	models := &mockModelStreamer{deltas: []string{"ok"}}
	aug := NewSearchAugmenter(zap.NewNop(), &search.MockClient{
		Results: []search.Result{{Title: "Go", Snippet: "lenguaje", URL: "https://go.dev"}},
	})
	svc := NewChatService(zap.NewNop(), models, aug, nil)

	req := ChatRequest{
		Model:        "gpt-4o",
		UseWebSearch: true,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleAssistant, Content: "buenas"},
			{Role: domain.RoleUser, Content: "que es go?"},
		},
	}
	stream, err := svc.Chat(context.Background(), "user-1", req)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	stream.Close()

	dispatched := models.lastMessages
	if len(dispatched) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(dispatched))
	}
	last := dispatched[len(dispatched)-1].Content
	if !strings.Contains(last, "Web search results:") {
		t.Errorf("dispatched prompt lacks search block:\n%s", last)
	}
	if !strings.HasSuffix(last, "Question: que es go?") {
		t.Errorf("original query missing from dispatched prompt:\n%s", last)
	}
	// El slice del caller queda intacto.
	if req.Messages[1].Content != "que es go?" {
		t.Errorf("caller messages mutated: %q", req.Messages[1].Content)
	}
	if dispatched[0].Content != "buenas" {
		t.Errorf("earlier turns should pass through untouched: %q", dispatched[0].Content)
	}
}

func TestChatService_SearchFailureStillDispatches(t *testing.T) {
	models := &mockModelStreamer{deltas: []string{"ok"}}
	aug := NewSearchAugmenter(zap.NewNop(), &search.MockClient{Err: errors.New("search down")})
	svc := NewChatService(zap.NewNop(), models, aug, nil)

	req := ChatRequest{
		Model:        "gpt-4o",
		UseWebSearch: true,
		Messages:     []domain.ChatMessage{{Role: domain.RoleUser, Content: "que es go?"}},
	}
	stream, err := svc.Chat(context.Background(), "user-1", req)
	if err != nil {
		t.Fatalf("Chat should not fail on search failure: %v", err)
	}
	stream.Close()

	last := models.lastMessages[0].Content
	if !strings.Contains(last, noticeSearchFailed) {
		t.Errorf("expected failure notice in prompt:\n%s", last)
	}
}

func TestChatService_AssistantTailSkipsAugmentation(t *testing.T) {
	models := &mockModelStreamer{deltas: []string{"ok"}}
	mock := &search.MockClient{}
	svc := NewChatService(zap.NewNop(), models, NewSearchAugmenter(zap.NewNop(), mock), nil)

	req := ChatRequest{
		Model:        "gpt-4o",
		UseWebSearch: true,
		Messages:     []domain.ChatMessage{{Role: domain.RoleAssistant, Content: "buenas"}},
	}
	stream, err := svc.Chat(context.Background(), "", req)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	stream.Close()

	if mock.LastQuery != "" {
		t.Fatalf("search should not run when the tail is not a user turn, got query %q", mock.LastQuery)
	}
}

func TestChatService_TracksEvents(t *testing.T) {
	repo := &mockEventRepo{}
	tracker := NewEventTracker(zap.NewNop(), repo)
	models := &mockModelStreamer{err: llm.ErrUnsupportedModel}
	svc := NewChatService(zap.NewNop(), models, nil, tracker)

	_, err := svc.Chat(context.Background(), "user-1", ChatRequest{
		Model:    "gpt-inventado",
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "hola"}},
	})
	if !errors.Is(err, llm.ErrUnsupportedModel) {
		t.Fatalf("expected dispatch error, got %v", err)
	}
	tracker.Wait()

	events := repo.all()
	if len(events) != 1 || events[0].EventType != "chat_error" {
		t.Fatalf("expected one chat_error event, got %+v", events)
	}
}
