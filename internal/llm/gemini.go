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

const defaultGeminiMaxOutputTokens = 8192

// GeminiStreamer implementa Streamer contra la Generative Language API de
// Google. Los roles se mapean user->user y assistant->model, y el ultimo
// turno debe ser del usuario.
type GeminiStreamer struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewGeminiStreamer(baseURL string, logger *zap.Logger) *GeminiStreamer {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	return &GeminiStreamer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiGenerateRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

func (s *GeminiStreamer) StreamChat(ctx context.Context, model ModelConfig, messages []domain.ChatMessage) (Stream, error) {
	contents, err := buildGeminiContents(messages)
	if err != nil {
		return nil, err
	}

	maxTokens := model.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultGeminiMaxOutputTokens
	}
	bodyBytes, err := json.Marshal(geminiGenerateRequest{
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.7,
			TopP:            0.95,
			MaxOutputTokens: maxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse", s.baseURL, model.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", model.APIKey)
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

	return newSSEStream(resp.Body, s.logger, extractGeminiDelta), nil
}

// buildGeminiContents filtra roles user/assistant y valida que el turno final
// sea del usuario. Un tail vacio o invalido (por ejemplo tras filtrar roles)
// devuelve ErrPromptStructure.
func buildGeminiContents(messages []domain.ChatMessage) ([]geminiContent, error) {
	var contents []geminiContent
	for _, m := range messages {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			continue
		}
		role := "user"
		if m.Role == domain.RoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}
	if len(contents) == 0 || contents[len(contents)-1].Role != "user" {
		return nil, ErrPromptStructure
	}
	return contents, nil
}

func extractGeminiDelta(payload []byte) (string, error) {
	var chunk struct {
		Candidates []struct {
			Content struct {
				Parts []geminiPart `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", err
	}
	if len(chunk.Candidates) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, part := range chunk.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
