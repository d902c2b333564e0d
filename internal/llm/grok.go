package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"ai-garden/internal/domain"
)

// GrokStreamer implementa Streamer contra la API de xAI via HTTP crudo.
// xAI habla el mismo wire format de chat completions, pero aqui el SSE se
// decodifica incrementalmente pidiendo text/event-stream en forma explicita.
type GrokStreamer struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewGrokStreamer(baseURL string, logger *zap.Logger) *GrokStreamer {
	if baseURL == "" {
		baseURL = "https://api.x.ai/v1"
	}
	return &GrokStreamer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

func (s *GrokStreamer) StreamChat(ctx context.Context, model ModelConfig, messages []domain.ChatMessage) (Stream, error) {
	bodyBytes, err := json.Marshal(chatCompletionsRequest{
		Model:    model.ID,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+model.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 32<<10))
		resp.Body.Close()
		return nil, classifyUpstreamError(resp.StatusCode, string(b), model.APIKey)
	}

	return newSSEStream(resp.Body, s.logger, extractChatDelta), nil
}
