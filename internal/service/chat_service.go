package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"ai-garden/internal/domain"
	"ai-garden/internal/llm"
)

// ChatRequest es el cuerpo de POST /api/chat.
type ChatRequest struct {
	Messages     []domain.ChatMessage `json:"messages"`
	Model        string               `json:"model"`
	UseWebSearch bool                 `json:"useWebSearch"`
}

var ErrMissingInput = errors.New("missing messages or model")

// ModelStreamer abre streams por identificador de modelo; lo implementa
// llm.Registry.
type ModelStreamer interface {
	Stream(ctx context.Context, modelID string, messages []domain.ChatMessage) (llm.Stream, error)
}

// ChatService orquesta un request de chat: validacion, augmentacion opcional
// con busqueda web, seleccion de proveedor y apertura del stream.
type ChatService struct {
	logger    *zap.Logger
	models    ModelStreamer
	augmenter *SearchAugmenter
	tracker   *EventTracker
}

func NewChatService(logger *zap.Logger, models ModelStreamer, augmenter *SearchAugmenter, tracker *EventTracker) *ChatService {
	return &ChatService{
		logger:    logger,
		models:    models,
		augmenter: augmenter,
		tracker:   tracker,
	}
}

// Chat valida el request y devuelve el stream de deltas del proveedor. La
// lista de mensajes del caller nunca se muta: la augmentacion despacha una
// copia con el ultimo turno reescrito. Un fallo de busqueda degrada el prompt
// con un aviso fijo; cualquier otro fallo corta el request completo.
func (s *ChatService) Chat(ctx context.Context, userID string, req ChatRequest) (llm.Stream, error) {
	if len(req.Messages) == 0 || strings.TrimSpace(req.Model) == "" {
		return nil, ErrMissingInput
	}

	messages := req.Messages
	if req.UseWebSearch && s.augmenter != nil {
		last := messages[len(messages)-1]
		if last.Role == domain.RoleUser {
			rewritten := make([]domain.ChatMessage, len(messages))
			copy(rewritten, messages)
			rewritten[len(rewritten)-1].Content = s.augmenter.Augment(ctx, last.Content)
			messages = rewritten
			s.track(userID, "web_search_used", map[string]any{"model": req.Model})
		}
	}

	stream, err := s.models.Stream(ctx, req.Model, messages)
	if err != nil {
		s.track(userID, "chat_error", map[string]any{
			"model": req.Model,
			"error": err.Error(),
		})
		return nil, err
	}

	s.track(userID, "chat_request", map[string]any{
		"model":      req.Model,
		"web_search": req.UseWebSearch,
	})
	return stream, nil
}

func (s *ChatService) track(userID, eventType string, data map[string]any) {
	if s.tracker == nil {
		return
	}
	s.tracker.Track(domain.Event{
		UserID:    userID,
		EventType: eventType,
		EventData: data,
	})
}
