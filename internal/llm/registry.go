package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ai-garden/internal/domain"
)

// Claves de proveedor para la tabla de adapters.
const (
	ProviderOpenAI = "openai"
	ProviderGrok   = "grok"
	ProviderGemini = "gemini"
)

// ModelConfig describe un modelo soportado: a que adapter va, con que
// credencial y con que limites. La tabla completa se inyecta al construir el
// Registry; no hay lecturas de entorno escondidas.
type ModelConfig struct {
	ID              string
	Provider        string
	APIKey          string
	MaxOutputTokens int
}

// Registry resuelve un identificador de modelo hacia su adapter y credencial,
// y despacha la llamada de streaming.
type Registry struct {
	logger    *zap.Logger
	models    map[string]ModelConfig
	streamers map[string]Streamer
}

func NewRegistry(logger *zap.Logger, models []ModelConfig, streamers map[string]Streamer) *Registry {
	table := make(map[string]ModelConfig, len(models))
	for _, m := range models {
		table[m.ID] = m
	}
	return &Registry{
		logger:    logger,
		models:    table,
		streamers: streamers,
	}
}

// Resolve busca el modelo en la tabla estatica de soportados.
func (r *Registry) Resolve(modelID string) (ModelConfig, error) {
	mc, ok := r.models[modelID]
	if !ok {
		return ModelConfig{}, fmt.Errorf("%w: %s", ErrUnsupportedModel, modelID)
	}
	return mc, nil
}

// Stream resuelve modelo y credencial y abre el stream contra el proveedor.
// Una credencial ausente es un fallo de configuracion al momento del request.
func (r *Registry) Stream(ctx context.Context, modelID string, messages []domain.ChatMessage) (Stream, error) {
	mc, err := r.Resolve(modelID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(mc.APIKey) == "" {
		return nil, fmt.Errorf("%w: model %s", ErrNotConfigured, modelID)
	}
	streamer, ok := r.streamers[mc.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: provider %s", ErrUnsupportedModel, mc.Provider)
	}

	if r.logger != nil {
		r.logger.Info("dispatching chat stream",
			zap.String("model", mc.ID),
			zap.String("provider", mc.Provider),
			zap.String("api_key", MaskAPIKey(mc.APIKey)),
		)
	}
	return streamer.StreamChat(ctx, mc, messages)
}
