package llm

import (
	"context"

	"ai-garden/internal/domain"
)

// MockStreamer permite tests sin llamar a un proveedor real.
type MockStreamer struct {
	Deltas       []string
	Err          error
	LastModel    ModelConfig
	LastMessages []domain.ChatMessage
}

func (m *MockStreamer) StreamChat(_ context.Context, model ModelConfig, messages []domain.ChatMessage) (Stream, error) {
	m.LastModel = model
	m.LastMessages = messages
	if m.Err != nil {
		return nil, m.Err
	}
	return NewStaticStream(m.Deltas...), nil
}
