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

// OpenAIStreamer implementa Streamer contra la API de chat completions de
// OpenAI (y compatibles) con stream habilitado.
type OpenAIStreamer struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewOpenAIStreamer(baseURL string, logger *zap.Logger) *OpenAIStreamer {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIStreamer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

type chatCompletionsRequest struct {
	Model    string               `json:"model"`
	Messages []domain.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
}

func (s *OpenAIStreamer) StreamChat(ctx context.Context, model ModelConfig, messages []domain.ChatMessage) (Stream, error) {
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

// extractChatDelta saca choices[0].delta.content de un chunk de streaming
// con forma OpenAI.
func extractChatDelta(payload []byte) (string, error) {
	var chunk struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", err
	}
	if len(chunk.Choices) == 0 {
		return "", nil
	}
	return chunk.Choices[0].Delta.Content, nil
}
